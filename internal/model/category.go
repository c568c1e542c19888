package model

// Category is one of the task areas seeded for every new user.
// Tasks keep their own denormalized copy of the emoji and name, so
// renaming a category never rewrites existing tasks.
type Category struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"index"`
	Emoji     string
	Name      string
	SortOrder int `gorm:"default:0"`
}
