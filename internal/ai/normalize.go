package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const defaultReply = "Записано."

// Normalize coerces raw model output into an Intent. It is a total function:
// malformed, concatenated, fenced or outright non-JSON input all degrade to
// something displayable, never an error. The model's output is untrusted and
// the rest of the pipeline must not block on it.
func Normalize(raw string) Intent {
	raw = stripFence(strings.TrimSpace(raw))

	if intent, ok := parseStrict(raw); ok {
		return ensureReply(intent)
	}

	objects := extractObjects(raw)
	if len(objects) > 0 {
		var taskObjects []map[string]interface{}
		for _, obj := range objects {
			if typ, _ := obj["type"].(string); typ == string(IntentTask) {
				taskObjects = append(taskObjects, obj)
			}
		}
		if len(taskObjects) > 0 {
			return ensureReply(mergeTasks(taskObjects))
		}
		return ensureReply(intentFromObject(objects[0]))
	}

	return ensureReply(Intent{Type: IntentChat, ReplyText: extractReplyText(raw)})
}

// parseStrict attempts a single whole-string JSON parse. An array is treated
// as a list of task records and merged.
func parseStrict(raw string) (Intent, bool) {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return Intent{}, false
	}
	switch v := value.(type) {
	case []interface{}:
		var items []map[string]interface{}
		for _, el := range v {
			if obj, ok := el.(map[string]interface{}); ok {
				items = append(items, obj)
			}
		}
		return mergeTasks(items), true
	case map[string]interface{}:
		return intentFromObject(v), true
	}
	return Intent{}, false
}

func intentFromObject(obj map[string]interface{}) Intent {
	typ, _ := obj["type"].(string)
	reply := stringField(obj, "reply_text", defaultReply)

	switch IntentType(typ) {
	case IntentTask:
		draft := draftFromObject(obj, "task_text")
		return Intent{Type: IntentTask, ReplyText: reply, Task: &draft}
	case IntentTasks:
		items, _ := obj["tasks"].([]interface{})
		drafts := make([]TaskDraft, 0, len(items))
		for _, el := range items {
			if o, ok := el.(map[string]interface{}); ok {
				drafts = append(drafts, draftFromObject(o, "task_text"))
			}
		}
		return Intent{Type: IntentTasks, ReplyText: reply, Tasks: drafts}
	case IntentDone:
		return Intent{
			Type:       IntentDone,
			ReplyText:  reply,
			SearchText: stringField(obj, "search_text", ""),
		}
	case IntentDoneMultiple:
		items, _ := obj["search_texts"].([]interface{})
		texts := make([]string, 0, len(items))
		for _, el := range items {
			if s, ok := el.(string); ok {
				texts = append(texts, s)
			}
		}
		return Intent{Type: IntentDoneMultiple, ReplyText: reply, SearchTexts: texts}
	default:
		// Missing or unknown discriminator: treat as plain chat.
		return Intent{Type: IntentChat, ReplyText: reply}
	}
}

// mergeTasks folds one-or-more raw task records into a single tasks intent
// with a generated count-prefixed reply enumerating every task.
func mergeTasks(items []map[string]interface{}) Intent {
	drafts := make([]TaskDraft, 0, len(items))
	for _, obj := range items {
		d := draftFromObject(obj, "task_text")
		d.TimeOfDay = nil
		drafts = append(drafts, d)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Записала %d задач:", len(drafts))
	for _, d := range drafts {
		fmt.Fprintf(&b, "\n  %s %s", d.CategoryEmoji, d.Text)
	}
	return Intent{Type: IntentTasks, ReplyText: b.String(), Tasks: drafts}
}

func draftFromObject(obj map[string]interface{}, textKey string) TaskDraft {
	return TaskDraft{
		Text:          stringField(obj, textKey, ""),
		CategoryEmoji: stringField(obj, "category_emoji", ""),
		CategoryName:  stringField(obj, "category_name", ""),
		DueDate:       optionalString(obj, "due_date"),
		DueTime:       optionalString(obj, "due_time"),
		TimeOfDay:     optionalString(obj, "time_of_day"),
		Value:         floatField(obj, "priority_value", 5),
		Urgency:       floatField(obj, "priority_urgency", 5),
		Risk:          floatField(obj, "priority_risk", 5),
		Size:          floatField(obj, "priority_size", 5),
	}
}

// extractObjects scans for balanced brace-delimited substrings and parses
// each independently, tolerating concatenated {...}{...} output.
func extractObjects(text string) []map[string]interface{} {
	var results []map[string]interface{}
	depth := 0
	start := -1
	for i, ch := range []byte(text) {
		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				var obj map[string]interface{}
				if err := json.Unmarshal([]byte(text[start:i+1]), &obj); err == nil {
					results = append(results, obj)
				}
				start = -1
			}
		}
	}
	return results
}

// extractReplyText digs a displayable reply out of unparseable output,
// falling back to the raw text verbatim.
func extractReplyText(raw string) string {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		if s, ok := obj["reply_text"].(string); ok {
			return s
		}
		return raw
	}
	for _, o := range extractObjects(raw) {
		if s, ok := o["reply_text"].(string); ok {
			return s
		}
	}
	return raw
}

// stripFence removes a single markdown code-block wrapper (```json ... ```)
// when the whole string is wrapped in one.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func ensureReply(intent Intent) Intent {
	if strings.TrimSpace(intent.ReplyText) == "" {
		intent.ReplyText = defaultReply
	}
	return intent
}

func stringField(obj map[string]interface{}, key, fallback string) string {
	if s, ok := obj[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func optionalString(obj map[string]interface{}, key string) *string {
	if s, ok := obj[key].(string); ok && s != "" {
		return &s
	}
	return nil
}

func floatField(obj map[string]interface{}, key string, fallback float64) float64 {
	if f, ok := obj[key].(float64); ok {
		return f
	}
	return fallback
}
