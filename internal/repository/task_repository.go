package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"taskmate/internal/model"
)

// TaskInput carries the fields accepted for a new task. The four ratings are
// nominally 0–10; the LLM is trusted on range but never on presence.
type TaskInput struct {
	Text          string  `validate:"required"`
	CategoryEmoji string
	CategoryName  string
	DueDate       *string `validate:"omitempty,datetime=2006-01-02"`
	DueTime       *string `validate:"omitempty,datetime=15:04"`
	TimeOfDay     *string
	Value         float64
	Urgency       float64
	Risk          float64
	Size          float64
}

// TaskRepository handles task lifecycle and fuzzy lookup.
type TaskRepository struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db, validate: validator.New()}
}

// Create validates the input, computes the priority score and inserts the
// task. Invalid input comes back as *ValidationError.
func (r *TaskRepository) Create(ctx context.Context, userID uint, input TaskInput) (*model.Task, error) {
	input.Text = strings.TrimSpace(input.Text)
	if err := r.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return nil, &ValidationError{Field: fieldErrs[0].Field(), Reason: fieldErrs[0].Tag()}
		}
		return nil, &ValidationError{Field: "input", Reason: err.Error()}
	}

	task := model.Task{
		UserID:          userID,
		Text:            input.Text,
		CategoryEmoji:   input.CategoryEmoji,
		CategoryName:    input.CategoryName,
		Status:          model.StatusActive,
		PriorityValue:   input.Value,
		PriorityUrgency: input.Urgency,
		PriorityRisk:    input.Risk,
		PrioritySize:    input.Size,
		PriorityScore:   model.Score(input.Value, input.Urgency, input.Risk, input.Size),
		DueDate:         input.DueDate,
		DueTime:         input.DueTime,
		TimeOfDay:       input.TimeOfDay,
	}
	if err := r.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, wrap("create task", err)
	}
	return &task, nil
}

// ListActive returns the user's open tasks, highest priority score first.
// Ties keep insertion order.
func (r *TaskRepository) ListActive(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.StatusActive).
		Order("priority_score DESC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, wrap("list active tasks", err)
	}
	return tasks, nil
}

// ListToday returns active tasks due today or carrying no date at all.
// "Today" is evaluated in UTC, not the user's stored timezone.
func (r *TaskRepository) ListToday(ctx context.Context, userID uint) ([]model.Task, error) {
	today := time.Now().UTC().Format("2006-01-02")
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND (due_date = ? OR due_date IS NULL)",
			userID, model.StatusActive, today).
		Order("priority_score DESC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, wrap("list today tasks", err)
	}
	return tasks, nil
}

// Complete transitions a task active→done and stamps the completion time.
// The status guard makes the update conditional: of two concurrent attempts
// exactly one sees RowsAffected > 0. Returns false, not an error, when the
// task is missing, owned by someone else or already closed.
func (r *TaskRepository) Complete(ctx context.Context, taskID, userID uint) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ? AND user_id = ? AND status = ?", taskID, userID, model.StatusActive).
		Updates(map[string]interface{}{
			"status":       model.StatusDone,
			"completed_at": now,
		})
	if res.Error != nil {
		return false, wrap("complete task", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// FindByFragment fuzzily resolves a free-text fragment against the user's
// active tasks: first case-insensitive substring match wins, then a
// token-overlap pass where every word of the fragment must appear somewhere
// in the candidate. Returns nil when nothing matches.
func (r *TaskRepository) FindByFragment(ctx context.Context, userID uint, fragment string) (*model.Task, error) {
	needle := strings.ToLower(strings.TrimSpace(fragment))
	if needle == "" {
		return nil, nil
	}
	tasks, err := r.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if strings.Contains(strings.ToLower(tasks[i].Text), needle) {
			return &tasks[i], nil
		}
	}
	words := strings.Fields(needle)
	for i := range tasks {
		haystack := strings.ToLower(tasks[i].Text)
		all := true
		for _, w := range words {
			if !strings.Contains(haystack, w) {
				all = false
				break
			}
		}
		if all {
			return &tasks[i], nil
		}
	}
	return nil, nil
}

// FindManyByFragments resolves each fragment independently, preserving input
// order and dropping duplicate hits.
func (r *TaskRepository) FindManyByFragments(ctx context.Context, userID uint, fragments []string) ([]model.Task, error) {
	var found []model.Task
	seen := make(map[uint]bool)
	for _, fragment := range fragments {
		task, err := r.FindByFragment(ctx, userID, fragment)
		if err != nil {
			return nil, err
		}
		if task == nil || seen[task.ID] {
			continue
		}
		seen[task.ID] = true
		found = append(found, *task)
	}
	return found, nil
}
