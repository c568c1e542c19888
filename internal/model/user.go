package model

import "time"

// User stores Telegram user metadata and per-user counters.
// Created lazily on first contact, never deleted.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	TelegramID   int64  `gorm:"uniqueIndex"`
	Name         string `gorm:"default:''"`
	Timezone     string `gorm:"default:'Europe/Moscow'"`
	TipsShown    int    `gorm:"default:0"`
	SettingsJSON string `gorm:"column:settings_json;default:'{}'"`
	CreatedAt    time.Time
}
