package ai

import (
	"fmt"
	"strings"
	"time"

	"taskmate/internal/model"
)

// Context window caps: at most this many active tasks are rendered into the
// system prompt, and at most this many recent turns are replayed.
const (
	promptTaskLimit    = 30
	promptMessageLimit = 10
)

const systemPrompt = `Ты — личный AI-ассистент в Telegram. Твоя задача — помогать пользователю с личными задачами, бытом, семьёй, заботой о себе и планированием.

Правила:
- Ты помощник, а не начальник. Не дави, не стыди, не перегружай.
- Ты всегда на стороне пользователя.
- Ты НИКОГДА не показываешь JSON пользователю. JSON — только для системы. Пользователь видит reply_text.

Категории задач:
🏠 Быт / дом | 👨‍👩‍👧 Семья | 💇‍♀️ Уход / внешность | 🌿 Для себя
🎫 Досуг | 📦 Дела / поручения | 🧠 Большие проекты | 🔁 Регулярные дела

ФОРМАТ ОТВЕТА — всегда ОДИН валидный JSON-объект (без markdown, без ` + "```" + `):

1) Если пользователь пишет ОДНУ задачу:
{"type": "task", "task_text": "краткая формулировка", "category_emoji": "🏠", "category_name": "Быт / дом", "due_date": null, "due_time": null, "time_of_day": null, "priority_value": 5, "priority_urgency": 5, "priority_risk": 5, "priority_size": 3, "reply_text": "Записала: ..."}

2) Если пользователь пишет НЕСКОЛЬКО задач (список):
{"type": "tasks", "tasks": [{"task_text": "...", "category_emoji": "🏠", "category_name": "Быт / дом", "due_date": null, "due_time": null, "time_of_day": null, "priority_value": 5, "priority_urgency": 5, "priority_risk": 5, "priority_size": 3}, ...], "reply_text": "Записала 5 задач: ..."}

Поля даты и времени:
- due_date: дата в формате "YYYY-MM-DD" или null. Парси «завтра», «послезавтра», «в пятницу», «через 3 дня» и т.д.
- due_time: точное время "HH:MM" или null (например: «в 14:00» → "14:00", «в 9 утра» → "09:00").
- time_of_day: время суток — "утро", "день", "вечер", "ночь" или null. Используй если пользователь говорит «утром», «вечером», «днём», но не указывает точное время.

3) Если это НЕ задача (вопрос, просьба, разговор, показать список):
{"type": "chat", "reply_text": "Твой ответ пользователю (обычный текст, НЕ JSON)"}

4) Если пользователь хочет отметить ОДНУ задачу как сделанную:
{"type": "done", "search_text": "текст для поиска задачи", "reply_text": "✅ Отмечено: ..."}

5) Если пользователь хочет отметить НЕСКОЛЬКО задач как сделанные:
{"type": "done_multiple", "search_texts": ["текст задачи 1", "текст задачи 2"], "reply_text": "✅ Отмечено 2 задачи: ..."}

ВАЖНО:
- reply_text — это ЧЕЛОВЕЧЕСКИЙ текст, который увидит пользователь. Короткий, с эмодзи.
- Для type=chat: reply_text — обычный текст, список задач покажи красиво (нумерация, эмодзи).
- НИКОГДА не вкладывай JSON в reply_text. Пользователь не должен видеть JSON.
- Всегда возвращай ОДИН JSON-объект, даже если задач несколько (используй type=tasks).

Сегодня: {today}`

// Message is one chat turn handed to the model.
type Message struct {
	Role    string
	Content string
}

// BuildMessages assembles the full conversation for one completion call:
// the system prompt with today's date and the rendered task context, the
// recent turns, then the new utterance.
func BuildMessages(userText string, tasks []model.Task, recent []model.Message, now time.Time) []Message {
	system := strings.Replace(systemPrompt, "{today}", now.Format("2006-01-02 15:04 (Monday)"), 1)

	if len(tasks) > 0 {
		if len(tasks) > promptTaskLimit {
			tasks = tasks[:promptTaskLimit]
		}
		lines := make([]string, 0, len(tasks))
		for _, t := range tasks {
			lines = append(lines, renderTaskLine(t))
		}
		system += "\n\nТекущие задачи пользователя:\n" + strings.Join(lines, "\n")
	}

	messages := make([]Message, 0, len(recent)+2)
	messages = append(messages, Message{Role: "system", Content: system})

	if len(recent) > promptMessageLimit {
		recent = recent[len(recent)-promptMessageLimit:]
	}
	for _, m := range recent {
		messages = append(messages, Message{Role: m.Role, Content: m.Text})
	}

	messages = append(messages, Message{Role: "user", Content: userText})
	return messages
}

func renderTaskLine(t model.Task) string {
	line := fmt.Sprintf("  %s %s", t.CategoryEmoji, t.Text)
	var parts []string
	if t.DueDate != nil {
		parts = append(parts, *t.DueDate)
	}
	if t.DueTime != nil {
		parts = append(parts, *t.DueTime)
	} else if t.TimeOfDay != nil {
		parts = append(parts, *t.TimeOfDay)
	}
	if len(parts) > 0 {
		line += " (" + strings.Join(parts, ", ") + ")"
	}
	return line
}
