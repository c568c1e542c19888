package model

import (
	"math"
	"time"
)

// Task statuses. Transitions are one-directional: an active task may become
// done or cancelled, a closed task is never reopened.
const (
	StatusActive    = "active"
	StatusDone      = "done"
	StatusCancelled = "cancelled"
)

// Task represents a single item on a user's list.
//
// RepeatRule and ParentTaskID are reserved schema fields: the assistant
// records them but no recurrence expansion or subtask logic reads them yet.
type Task struct {
	ID              uint    `gorm:"primaryKey"`
	UserID          uint    `gorm:"index:idx_tasks_user_status"`
	Text            string  `gorm:"not null"`
	CategoryEmoji   string  `gorm:"default:''"`
	CategoryName    string  `gorm:"default:''"`
	Status          string  `gorm:"index:idx_tasks_user_status;default:'active';check:status IN ('active','done','cancelled')"`
	PriorityValue   float64 `gorm:"default:5"`
	PriorityUrgency float64 `gorm:"default:5"`
	PriorityRisk    float64 `gorm:"default:5"`
	PrioritySize    float64 `gorm:"default:5"`
	PriorityScore   float64 `gorm:"default:0"`
	DueDate         *string // YYYY-MM-DD
	DueTime         *string // HH:MM
	TimeOfDay       *string // утро / день / вечер / ночь
	RepeatRule      *string
	ParentTaskID    *uint
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// Score folds the four ratings into the single ranking key: stakes summed,
// divided by effort. The divisor is clamped to 1 so a zero-size task cannot
// blow up. Rounded to two decimals. Computed once at creation time and never
// recalculated afterwards.
func Score(value, urgency, risk, size float64) float64 {
	if size <= 0 {
		size = 1
	}
	return math.Round((value+urgency+risk)/size*100) / 100
}
