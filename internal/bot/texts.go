package bot

import (
	"fmt"
	"strings"

	"taskmate/internal/model"
)

const onboardingText = "Привет! Я твой личный помощник. " +
	"Помогу с задачами, планами и рутиной — без давления и лишнего стресса.\n\n" +
	"Вот что я умею:\n\n" +
	"📝 Записывать задачи — просто напиши или надиктуй, я разберусь.\n" +
	"   Например: «Купить продукты завтра» или «Записать дочку к врачу на пятницу»\n\n" +
	"📋 Показывать список дел — «Что у меня на сегодня?» или «Покажи задачи»\n\n" +
	"✅ Отмечать сделанное — «Готово: купила продукты»\n\n" +
	"📊 Приоритизировать — я сам оценю важность и срочность, но ты всегда можешь поправить.\n\n" +
	"⏰ Напоминать — мягко и вовремя, без давления.\n\n" +
	"🗂 Категории: 🏠 быт · 👨‍👩‍👧 семья · 💇‍♀️ уход · 🌿 для себя · " +
	"🎫 досуг · 📦 дела · 🧠 проекты · 🔁 рутины\n\n" +
	"Для начала — просто напиши мне свою первую задачу!"

const helpText = "Что я умею:\n\n" +
	"📝 Задачи — просто напиши или надиктуй\n" +
	"✅ Готово — «Готово: [задача]»\n" +
	"📋 Список — «Покажи задачи» или /tasks\n" +
	"📊 План — «Что на сегодня?» или /plan\n" +
	"🗂 Категории — /categories\n" +
	"⚙️ Настройки — /settings\n" +
	"🔁 Регулярные — при создании скажи «каждый день» или «каждую неделю»\n\n" +
	"Просто пиши как удобно — я пойму."

const (
	emptyListText      = "У тебя пока нет активных задач. Напиши что-нибудь — я запишу!"
	emptyPlanText      = "На сегодня задач нет. Можно отдохнуть — или записать что-нибудь новое!"
	noTasksToDoneText  = "Нет активных задач для завершения."
	noCategoriesText   = "Категории не найдены."
	voiceFailedText    = "🎤 Не удалось распознать голосовое. Попробуй ещё раз или напиши текстом."
	unknownCommandText = "Такой команды нет. Загляни в /help — там всё, что я умею."
)

var timeOfDayIcons = map[string]string{
	"утро":  "🌅",
	"день":  "☀️",
	"вечер": "🌆",
	"ночь":  "🌙",
}

// formatTaskList renders the active list the way the assistant shows it:
// checkbox, category emoji, text, then date/time/score annotations.
func formatTaskList(tasks []model.Task) string {
	if len(tasks) == 0 {
		return emptyListText
	}
	return formatTasks("📋 Твои задачи:\n", tasks)
}

func formatTodayPlan(tasks []model.Task) string {
	if len(tasks) == 0 {
		return emptyPlanText
	}
	return formatTasks("📅 План на сегодня:\n", tasks)
}

func formatTasks(header string, tasks []model.Task) string {
	lines := []string{header}
	for _, t := range tasks {
		emoji := t.CategoryEmoji
		if emoji == "" {
			emoji = "📝"
		}
		extra := ""
		if t.DueDate != nil {
			extra += fmt.Sprintf(" 📅 %s", *t.DueDate)
		}
		if t.DueTime != nil {
			extra += fmt.Sprintf(" ⏰ %s", *t.DueTime)
		} else if t.TimeOfDay != nil {
			icon, ok := timeOfDayIcons[*t.TimeOfDay]
			if !ok {
				icon = "🕐"
			}
			extra += fmt.Sprintf(" %s %s", icon, *t.TimeOfDay)
		}
		if t.PriorityScore != 0 {
			extra += fmt.Sprintf(" (⚡ %g)", t.PriorityScore)
		}
		lines = append(lines, fmt.Sprintf("☐ %s %s%s", emoji, t.Text, extra))
	}
	return strings.Join(lines, "\n")
}

func formatSettings(user *model.User) string {
	return fmt.Sprintf("⚙️ Настройки:\n\n  🌍 Часовой пояс: %s\n  💡 Создано задач: %d",
		user.Timezone, user.TipsShown)
}

func formatCategories(categories []model.Category) string {
	if len(categories) == 0 {
		return noCategoriesText
	}
	lines := []string{"🗂 Твои категории:\n"}
	for _, c := range categories {
		lines = append(lines, fmt.Sprintf("  %s %s", c.Emoji, c.Name))
	}
	return strings.Join(lines, "\n")
}
