package repository

import (
	"context"

	"gorm.io/gorm"

	"taskmate/internal/model"
)

// MessageRepository keeps the append-only conversation log.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Save(ctx context.Context, userID uint, role, text string) error {
	msg := model.Message{UserID: userID, Role: role, Text: text}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return wrap("save message", err)
	}
	return nil
}

// Recent returns the user's most recent messages, oldest first.
func (r *MessageRepository) Recent(ctx context.Context, userID uint, limit int) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, wrap("recent messages", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
