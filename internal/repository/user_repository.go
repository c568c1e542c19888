package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"taskmate/internal/model"
)

// DefaultCategories are seeded once for every new user, in this order.
var DefaultCategories = []model.Category{
	{Emoji: "🏠", Name: "Быт / дом"},
	{Emoji: "👨‍👩‍👧", Name: "Семья"},
	{Emoji: "💇‍♀️", Name: "Уход / внешность"},
	{Emoji: "🌿", Name: "Для себя"},
	{Emoji: "🎫", Name: "Досуг"},
	{Emoji: "📦", Name: "Дела / поручения"},
	{Emoji: "🧠", Name: "Большие проекты"},
	{Emoji: "🔁", Name: "Регулярные дела"},
}

// UserRepository handles users and their per-user counters.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate finds a user by Telegram id, creating the row and seeding the
// default categories on first contact. Idempotent: repeated calls return the
// existing row untouched.
func (r *UserRepository) GetOrCreate(ctx context.Context, telegramID int64, name string) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", telegramID).First(&user).Error
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{
			TelegramID:   telegramID,
			Name:         name,
			Timezone:     "Europe/Moscow",
			SettingsJSON: "{}",
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, wrap("create user", err)
		}
		if err := r.seedCategories(ctx, user.ID); err != nil {
			return nil, err
		}
		return &user, nil
	default:
		return nil, wrap("find user", err)
	}
}

// seedCategories inserts the default set unless the user already has rows.
// Check-before-insert: a concurrent first contact can still double-seed, a
// uniqueness constraint on (user_id, name) would be needed to close that.
func (r *UserRepository) seedCategories(ctx context.Context, userID uint) error {
	db := r.db.WithContext(ctx)
	var count int64
	if err := db.Model(&model.Category{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return wrap("count categories", err)
	}
	if count > 0 {
		return nil
	}
	for i, c := range DefaultCategories {
		cat := model.Category{UserID: userID, Emoji: c.Emoji, Name: c.Name, SortOrder: i}
		if err := db.Create(&cat).Error; err != nil {
			return wrap("seed category", err)
		}
	}
	return nil
}

// IncrementTips bumps the created-task counter and returns the new value.
func (r *UserRepository) IncrementTips(ctx context.Context, telegramID int64) (int, error) {
	db := r.db.WithContext(ctx)
	err := db.Model(&model.User{}).
		Where("telegram_id = ?", telegramID).
		UpdateColumn("tips_shown", gorm.Expr("tips_shown + 1")).Error
	if err != nil {
		return 0, wrap("increment tips", err)
	}
	return r.TipsShown(ctx, telegramID)
}

// TipsShown reads the created-task counter.
func (r *UserRepository) TipsShown(ctx context.Context, telegramID int64) (int, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Select("tips_shown").
		Where("telegram_id = ?", telegramID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, wrap("read tips", err)
	}
	return user.TipsShown, nil
}
