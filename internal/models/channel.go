package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel is the durable counterpart of a relay room.
// Each room topic (a course-offering or group id) maps to at most one Channel.
type Channel struct {
	// ID is the message-store identifier (UUID) that persisted messages reference.
	ID string `gorm:"primaryKey" json:"id"`
	// Topic is the room topic this channel belongs to.
	Topic string `gorm:"uniqueIndex;not null" json:"topic"`
	// Name is a human readable label, e.g. the course title.
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate is a GORM hook that assigns a new UUID when the ID is not set.
func (c *Channel) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}
