package model

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the conversation log. Append-only: rows are never
// updated or deleted, readers only ever take the most recent window.
type Message struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"index"`
	Role      string `gorm:"not null;check:role IN ('user','assistant')"`
	Text      string `gorm:"not null"`
	CreatedAt time.Time
}
