package zalo

import (
	"social-integration/domain/model"
	"social-integration/infrastructure/clients/remote"
)

const (
	maxTitle       = 150
	maxDescription = 300
)

type articleCover struct {
	CoverType string `json:"cover_type"`
	PhotoURL  string `json:"photo_url"`
	Status    string `json:"status"`
}

type articleBlock struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
}

type article struct {
	ID          string         `json:"id,omitempty"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Author      string         `json:"author,omitempty"`
	Cover       *articleCover  `json:"cover,omitempty"`
	Description string         `json:"description"`
	Body        []articleBlock `json:"body"`
	Status      string         `json:"status"`
	Comment     string         `json:"comment"`
}

// Title uses the request title or derives one from the first line of the body.
func Title(req *model.PublishRequest) string {
	if req.Title != "" {
		return remote.Truncate(req.Title, maxTitle)
	}
	return remote.FirstLine(req.Body, maxTitle)
}

// buildArticle lays out a text block (body, hashtags, mentions) followed by one block per image.
// The first image doubles as the cover.
func buildArticle(req *model.PublishRequest, author string) article {
	a := article{
		Type:        "normal",
		Title:       Title(req),
		Author:      author,
		Description: remote.Truncate(remote.JoinNonEmpty(" ", req.Body, remote.Prefixed("#", req.Hashtags)), maxDescription),
		Status:      "show",
		Comment:     "show",
	}
	text := remote.JoinNonEmpty("\n\n", req.Body, remote.Prefixed("#", req.Hashtags), remote.Prefixed("@", req.Mentions))
	if text == "" {
		text = a.Title
	}
	a.Body = append(a.Body, articleBlock{Type: "text", Content: text})
	for i, img := range req.Images() {
		if i == 0 {
			a.Cover = &articleCover{CoverType: "photo", PhotoURL: img.URL, Status: "show"}
		}
		a.Body = append(a.Body, articleBlock{Type: "image", URL: img.URL})
	}
	return a
}
