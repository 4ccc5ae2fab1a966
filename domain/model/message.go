package model

import "time"

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentVideo AttachmentType = "video"
	AttachmentAudio AttachmentType = "audio"
	AttachmentFile  AttachmentType = "file"
)

type Attachment struct {
	Type AttachmentType `json:"type"`
	URL  string         `json:"url"`
}

type MessageResult struct {
	MessageID   string `json:"message_id"`
	RecipientID string `json:"recipient_id"`
}

// Message is one entry of a conversation history
type Message struct {
	ID       string    `json:"id"`
	SenderID string    `json:"sender_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
	FromPage bool      `json:"from_page"`
}
