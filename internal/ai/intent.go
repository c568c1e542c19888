package ai

// IntentType discriminates the five shapes the model may return.
type IntentType string

const (
	IntentTask         IntentType = "task"
	IntentTasks        IntentType = "tasks"
	IntentChat         IntentType = "chat"
	IntentDone         IntentType = "done"
	IntentDoneMultiple IntentType = "done_multiple"
)

// TaskDraft is one normalized task-creation record. Ratings default to 5
// when the model leaves them out.
type TaskDraft struct {
	Text          string
	CategoryEmoji string
	CategoryName  string
	DueDate       *string
	DueTime       *string
	TimeOfDay     *string
	Value         float64
	Urgency       float64
	Risk          float64
	Size          float64
}

// Intent is the normalized outcome of one model reply. Type selects which
// variant fields are populated; ReplyText is always non-empty, whatever the
// model sent back.
type Intent struct {
	Type        IntentType
	ReplyText   string
	Task        *TaskDraft  // IntentTask
	Tasks       []TaskDraft // IntentTasks
	SearchText  string      // IntentDone
	SearchTexts []string    // IntentDoneMultiple
}
