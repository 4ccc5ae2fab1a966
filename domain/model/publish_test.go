package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-integration/domain/model"
)

func TestPublishRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       model.PublishRequest
		textual   bool
		videoOnly bool
		wantErr   bool
	}{
		{name: "empty title and body on textual platform", req: model.PublishRequest{Hashtags: []string{"sale"}}, textual: true, wantErr: true},
		{name: "title only", req: model.PublishRequest{Title: "Sale"}, textual: true},
		{name: "whitespace only", req: model.PublishRequest{Title: "  ", Body: "\n"}, textual: true, wantErr: true},
		{name: "video platform without video", req: model.PublishRequest{Title: "x", Media: []model.MediaItem{{Type: model.MediaImage, URL: "https://cdn/x.jpg"}}}, videoOnly: true, wantErr: true},
		{name: "video platform with video", req: model.PublishRequest{Media: []model.MediaItem{{Type: model.MediaVideo, URL: "https://cdn/x.mp4"}}}, videoOnly: true},
		{name: "media without url", req: model.PublishRequest{Title: "x", Media: []model.MediaItem{{Type: model.MediaImage}}}, textual: true, wantErr: true},
		{name: "unknown media type", req: model.PublishRequest{Title: "x", Media: []model.MediaItem{{Type: "gif", URL: "u"}}}, textual: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(tt.textual, tt.videoOnly)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPublishRequest_Normalize(t *testing.T) {
	req := model.PublishRequest{
		Title:    "  Sale ",
		Hashtags: []string{"#sale", " deals", "", "##x"},
		Mentions: []string{"@acme", " "},
		Media: []model.MediaItem{
			{Type: model.MediaImage, URL: "b", Order: 2},
			{Type: model.MediaImage, URL: "a", Order: 1},
		},
	}
	req.Normalize()

	assert.Equal(t, "Sale", req.Title)
	assert.Equal(t, []string{"sale", "deals", "x"}, req.Hashtags)
	assert.Equal(t, []string{"acme"}, req.Mentions)
	assert.Equal(t, "a", req.Media[0].URL)
}

func TestPublishResult_Outcome(t *testing.T) {
	assert.Equal(t, model.OutcomePublished, model.Published("1", "u").Outcome())
	assert.Equal(t, model.OutcomeSkipped, model.Unsupported().Outcome())
	assert.Equal(t, model.OutcomeNeedsReconnect, model.Failed(model.KindReauthRequired, "").Outcome())
	assert.Equal(t, model.OutcomeFailed, model.Failed(model.KindRemoteRejection, "policy violation").Outcome())
	assert.Equal(t, model.OutcomeFailed, (*model.PublishResult)(nil).Outcome())

	res := model.Unsupported()
	assert.False(t, res.Success)
	assert.Equal(t, "not supported", res.Error)
}

func TestFailedFrom(t *testing.T) {
	res := model.FailedFrom(model.NewError(model.KindTimeout, model.PlatformTikTok, "", errors.New("poll budget exhausted")))
	assert.Equal(t, model.KindTimeout, res.Kind)
	assert.Equal(t, "poll budget exhausted", res.Error)

	res = model.FailedFrom(errors.New("boom"))
	assert.Equal(t, model.KindInternal, res.Kind)
	assert.Equal(t, "boom", res.Error)
}

func TestPublishRequest_CloneIsIndependent(t *testing.T) {
	req := &model.PublishRequest{
		Hashtags: []string{"#a"},
		Media:    []model.MediaItem{{Type: model.MediaImage, URL: "2", Order: 2}, {Type: model.MediaImage, URL: "1", Order: 1}},
	}
	cp := req.Clone()
	cp.Normalize()

	assert.Equal(t, "#a", req.Hashtags[0])
	assert.Equal(t, "2", req.Media[0].URL)
	assert.Equal(t, "1", cp.Media[0].URL)
}
