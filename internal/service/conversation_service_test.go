package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"taskmate/internal/ai"
	"taskmate/internal/model"
	"taskmate/internal/repository"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(context.Context, []ai.Message) (string, error) {
	return f.response, f.err
}

type testEnv struct {
	svc      *ConversationService
	users    *repository.UserRepository
	tasks    *repository.TaskRepository
	messages *repository.MessageRepository
	llm      *fakeLLM
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB("", filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		users:    repository.NewUserRepository(db),
		tasks:    repository.NewTaskRepository(db),
		messages: repository.NewMessageRepository(db),
		llm:      &fakeLLM{},
	}
	env.svc = NewConversationService(env.users, env.tasks, env.messages, env.llm, zap.NewNop())
	return env
}

func (e *testEnv) user(t *testing.T, telegramID int64) *model.User {
	t.Helper()
	user, err := e.users.GetOrCreate(context.Background(), telegramID, "Аня")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	return user
}

func TestProcessChat(t *testing.T) {
	env := newTestEnv(t)
	env.llm.response = `{"type": "chat", "reply_text": "Вот твой список 🌿"}`

	reply := env.svc.Process(context.Background(), 1, "Аня", "покажи задачи")
	if reply != "Вот твой список 🌿" {
		t.Errorf("reply = %q", reply)
	}

	user := env.user(t, 1)
	log, err := env.messages.Recent(context.Background(), user.ID, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("log = %d entries, want 2", len(log))
	}
	if log[0].Role != model.RoleUser || log[0].Text != "покажи задачи" {
		t.Errorf("inbound entry = %+v", log[0])
	}
	if log[1].Role != model.RoleAssistant || log[1].Text != reply {
		t.Errorf("outbound entry = %+v", log[1])
	}
}

func TestProcessSingleTask(t *testing.T) {
	env := newTestEnv(t)
	env.llm.response = `{"type": "task", "task_text": "Купить молоко", "category_emoji": "🏠",
		"category_name": "Быт / дом", "priority_value": 6, "priority_urgency": 7,
		"priority_risk": 3, "priority_size": 2, "reply_text": "Записала: купить молоко 🏠"}`

	reply := env.svc.Process(context.Background(), 1, "Аня", "надо купить молоко")
	if reply != "Записала: купить молоко 🏠" {
		t.Errorf("reply = %q", reply)
	}

	user := env.user(t, 1)
	tasks, err := env.tasks.ListActive(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Text != "Купить молоко" {
		t.Fatalf("tasks = %+v", tasks)
	}
	if tasks[0].PriorityScore != 8.0 {
		t.Errorf("score = %v, want 8.0", tasks[0].PriorityScore)
	}
}

func TestProcessTaskWithoutTextFallsBackToUtterance(t *testing.T) {
	env := newTestEnv(t)
	env.llm.response = `{"type": "task", "task_text": "", "reply_text": "Записала!"}`

	env.svc.Process(context.Background(), 1, "Аня", "полить цветы вечером")

	user := env.user(t, 1)
	tasks, err := env.tasks.ListActive(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Text != "полить цветы вечером" {
		t.Fatalf("tasks = %+v, want the raw utterance as text", tasks)
	}
}

func TestProcessTasksIntent(t *testing.T) {
	env := newTestEnv(t)
	env.llm.response = `{"type": "tasks", "tasks": [
		{"task_text": "Записаться к врачу", "category_emoji": "💇‍♀️", "due_date": "2026-09-01"},
		{"task_text": "Оплатить счета", "category_emoji": "📦", "due_date": "2026-09-02"}
	], "reply_text": "Записала 2 задачи ✨"}`

	reply := env.svc.Process(context.Background(), 1, "Аня", "врач и счета")
	if reply != "Записала 2 задачи ✨" {
		t.Errorf("reply = %q", reply)
	}

	user := env.user(t, 1)
	tasks, err := env.tasks.ListActive(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(tasks))
	}
	dates := make(map[string]string, 2)
	for _, task := range tasks {
		if task.DueDate == nil {
			t.Fatalf("task %q lost its due date", task.Text)
		}
		dates[task.Text] = *task.DueDate
	}
	if dates["Записаться к врачу"] != "2026-09-01" || dates["Оплатить счета"] != "2026-09-02" {
		t.Errorf("dates = %v", dates)
	}
}

func TestProcessTasksSkipsInvalidItems(t *testing.T) {
	env := newTestEnv(t)
	env.llm.response = `{"type": "tasks", "tasks": [
		{"task_text": "Купить хлеб"},
		{"task_text": "   "}
	], "reply_text": "Записала 2 задачи"}`

	reply := env.svc.Process(context.Background(), 1, "Аня", "хлеб и ещё что-то")
	if !strings.HasPrefix(reply, "Записала 2 задачи") {
		t.Errorf("reply = %q", reply)
	}

	user := env.user(t, 1)
	tasks, err := env.tasks.ListActive(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Text != "Купить хлеб" {
		t.Fatalf("tasks = %+v, want only the valid one", tasks)
	}
}

func TestProcessTasksAllInvalid(t *testing.T) {
	env := newTestEnv(t)
	env.llm.response = `{"type": "tasks", "tasks": [{"task_text": ""}], "reply_text": "Записала"}`

	reply := env.svc.Process(context.Background(), 1, "Аня", "...")
	if reply != replyCannotSave {
		t.Errorf("reply = %q, want %q", reply, replyCannotSave)
	}
}

func TestProcessDone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t, 1)
	if _, err := env.tasks.Create(ctx, user.ID, repository.TaskInput{Text: "Купить молоко"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	env.llm.response = `{"type": "done", "search_text": "молоко", "reply_text": "✅"}`
	reply := env.svc.Process(ctx, 1, "Аня", "молоко купила")
	if reply != "✅ Отмечено: Купить молоко" {
		t.Errorf("reply = %q", reply)
	}

	tasks, err := env.tasks.ListActive(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("active tasks = %+v, want none", tasks)
	}
}

func TestProcessDoneNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.llm.response = `{"type": "done", "search_text": "чего-то нет", "reply_text": "✅"}`

	reply := env.svc.Process(context.Background(), 1, "Аня", "сделала то, чего нет")
	if reply != replyNotFound {
		t.Errorf("reply = %q, want %q", reply, replyNotFound)
	}
}

func TestProcessDoneMultiple(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t, 1)
	for _, text := range []string{"Купить молоко", "Оплатить счета"} {
		if _, err := env.tasks.Create(ctx, user.ID, repository.TaskInput{Text: text}); err != nil {
			t.Fatalf("Create %q: %v", text, err)
		}
	}

	env.llm.response = `{"type": "done_multiple",
		"search_texts": ["молоко", "счета", "выдуманная задача"], "reply_text": "✅"}`
	reply := env.svc.Process(ctx, 1, "Аня", "молоко и счета готово")

	if !strings.HasPrefix(reply, "✅ Отмечено 2 задач") {
		t.Errorf("reply = %q, want completed-count prefix", reply)
	}
	if !strings.Contains(reply, "Купить молоко") || !strings.Contains(reply, "Оплатить счета") {
		t.Errorf("reply %q misses completed task names", reply)
	}
	if !strings.Contains(reply, "⚠️ Не нашла: выдуманная задача") {
		t.Errorf("reply %q misses unmatched fragment note", reply)
	}

	tasks, err := env.tasks.ListActive(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("active tasks = %+v, want none", tasks)
	}
}

func TestProcessLLMFailure(t *testing.T) {
	env := newTestEnv(t)
	env.llm.err = errors.New("upstream timeout")

	reply := env.svc.Process(context.Background(), 1, "Аня", "привет")
	if reply != replyAIDown {
		t.Errorf("reply = %q, want %q", reply, replyAIDown)
	}

	// The apology still lands in the conversation log.
	user := env.user(t, 1)
	log, err := env.messages.Recent(context.Background(), user.ID, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(log) != 2 || log[1].Text != replyAIDown {
		t.Errorf("log = %+v", log)
	}
}

func TestProcessGarbageLLMOutput(t *testing.T) {
	env := newTestEnv(t)
	env.llm.response = "Извини, я запуталась и отвечаю просто текстом"

	reply := env.svc.Process(context.Background(), 1, "Аня", "привет")
	if reply != env.llm.response {
		t.Errorf("reply = %q, want raw text passthrough", reply)
	}
}

func TestTipAppearsOnEveryThirdTask(t *testing.T) {
	env := newTestEnv(t)
	env.llm.response = `{"type": "task", "task_text": "Очередное дело", "reply_text": "Записала"}`
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if reply := env.svc.Process(ctx, 1, "Аня", "дело"); strings.Contains(reply, tips[0]) {
			t.Fatalf("tip shown too early on task %d", i+1)
		}
	}
	reply := env.svc.Process(ctx, 1, "Аня", "дело")
	if !strings.Contains(reply, tips[0]) {
		t.Errorf("third task reply = %q, want it to carry the first tip", reply)
	}
}
