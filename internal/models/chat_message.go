package models

import "time"

// ChatMessage is a relayed message stored against a Channel.
// CreatedAt carries the timestamp supplied by the sending client, not the
// server receipt time.
type ChatMessage struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// ChannelID is the Channel the message belongs to.
	ChannelID string `gorm:"not null;index:idx_channel_created" json:"channel_id"`
	// UserID identifies the author in the hosting application.
	UserID string `gorm:"not null" json:"user_id"`
	// Sender is the display name shown next to the message.
	Sender string `gorm:"not null" json:"sender"`
	// Content is the message text. It may be empty for image-only messages.
	Content string `gorm:"type:text" json:"content"`
	// ImageURL is an optional reference to an uploaded image.
	ImageURL *string `json:"image_url,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_channel_created" json:"created_at"`
}
