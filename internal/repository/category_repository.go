package repository

import (
	"context"

	"gorm.io/gorm"

	"taskmate/internal/model"
)

// CategoryRepository reads task categories. Writes happen only through the
// one-time seeding in UserRepository; custom category management is not
// supported yet.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID uint) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sort_order ASC").
		Find(&categories).Error; err != nil {
		return nil, wrap("list categories", err)
	}
	return categories, nil
}
