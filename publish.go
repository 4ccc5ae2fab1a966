package main

import (
	"encoding/json"
	"fmt"
	"os"

	"social-integration/domain/model"
	"social-integration/usecase"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var publishFlags struct {
	file      string
	identity  string
	platforms []string
	title     string
	body      string
	images    []string
	videos    []string
	hashtags  []string
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish one request to one or more platforms and print the outcomes",
	Long: `Publish builds a request from flags or a JSON file (--file, same shape as the
API's request object) and publishes it to every --platform concurrently.
Outcomes are printed as JSON; the command fails when no platform published.`,
	RunE: runPublish,
}

func init() {
	f := publishCmd.Flags()
	f.StringVar(&publishFlags.file, "file", "", "JSON publish request")
	f.StringVar(&publishFlags.identity, "identity", string(model.SystemIdentity), "identity whose credentials are used")
	f.StringSliceVarP(&publishFlags.platforms, "platform", "p", nil, "target platform (repeatable)")
	f.StringVar(&publishFlags.title, "title", "", "post title")
	f.StringVar(&publishFlags.body, "body", "", "post body")
	f.StringSliceVar(&publishFlags.images, "image", nil, "image url (repeatable)")
	f.StringSliceVar(&publishFlags.videos, "video", nil, "video url (repeatable)")
	f.StringSliceVar(&publishFlags.hashtags, "hashtag", nil, "hashtag (repeatable)")
	_ = publishCmd.MarkFlagRequired("platform")
	rootCmd.AddCommand(publishCmd)
}

func buildPublishRequest() (*model.PublishRequest, error) {
	req := &model.PublishRequest{}
	if publishFlags.file != "" {
		raw, err := os.ReadFile(publishFlags.file)
		if err != nil {
			return nil, fmt.Errorf("read request: %w", err)
		}
		if err := json.Unmarshal(raw, req); err != nil {
			return nil, fmt.Errorf("decode request: %w", err)
		}
	}
	if publishFlags.title != "" {
		req.Title = publishFlags.title
	}
	if publishFlags.body != "" {
		req.Body = publishFlags.body
	}
	for _, u := range publishFlags.images {
		req.Media = append(req.Media, model.MediaItem{Type: model.MediaImage, URL: u, Order: len(req.Media)})
	}
	for _, u := range publishFlags.videos {
		req.Media = append(req.Media, model.MediaItem{Type: model.MediaVideo, URL: u, Order: len(req.Media)})
	}
	req.Hashtags = append(req.Hashtags, publishFlags.hashtags...)
	return req, nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	req, err := buildPublishRequest()
	if err != nil {
		return err
	}
	platforms := make([]model.Platform, 0, len(publishFlags.platforms))
	for _, p := range publishFlags.platforms {
		platforms = append(platforms, model.ParsePlatform(p))
	}

	ctx := usecase.WithRequestID(cmd.Context(), uuid.NewString())
	a, err := buildApp(ctx, false)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()

	outcomes := a.publish.PublishToMany(ctx, platforms, model.Identity(publishFlags.identity), req)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcomes); err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Outcome == model.OutcomePublished {
			return nil
		}
	}
	return fmt.Errorf("no platform published the request")
}
