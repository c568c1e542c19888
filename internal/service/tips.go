package service

// tips are surfaced in order, one after every third created task, until the
// list runs out.
var tips = []string{
	"💡 Ты можешь писать задачи голосом — просто отправь голосовое сообщение.",
	"💡 Напиши «Что на сегодня?» — я покажу план дня с приоритетами.",
	"💡 Большую задачу можно разбить на шаги. Напиши «Разбей [задачу] на шаги».",
	"💡 Чтобы отметить дело как сделанное, напиши «Готово: [задача]».",
	"💡 Я умею работать с датами: «завтра», «в пятницу в 14:00», «через неделю».",
	"💡 Напиши «Покажи категории» — можно добавить свои или переименовать.",
	"💡 Если дел накопилось много — попроси: «Выбери 3 самых важных на сегодня».",
}

const tipInterval = 3

// TipFor returns the rotating hint for the given created-task count, or ""
// when it is not time for one: the count must be a positive multiple of the
// interval and the corresponding hint must still exist.
func TipFor(count int) string {
	if count <= 0 || count%tipInterval != 0 {
		return ""
	}
	idx := count/tipInterval - 1
	if idx >= len(tips) {
		return ""
	}
	return tips[idx]
}
