package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskmate/internal/ai"
	"taskmate/internal/model"
	"taskmate/internal/repository"
)

// Fixed user-facing failure replies. Whatever goes wrong, the user gets a
// short message in the normal channel, never a stack trace or raw JSON.
const (
	replyAIDown      = "Сейчас у меня проблемы с подключением. Попробуй ещё раз через минуту."
	replyStorageDown = "Не получилось сохранить — база данных сейчас недоступна. Попробуй чуть позже."
	replyCannotSave  = "Не получилось сохранить задачу. Попробуй сформулировать её ещё раз."
	replyNotFound    = "Не нашла такую задачу. Покажи список (/tasks) и уточни."
	replyNoneFound   = "Не нашла эти задачи. Покажи список (/tasks) и уточни."
)

// recentMessageLimit bounds how much history is fetched from the store; the
// prompt builder trims further to its own window.
const recentMessageLimit = 20

// LLM is the language-model collaborator. Its own client owns timeouts and
// retries; the pipeline only reacts to it failing or returning garbage.
type LLM interface {
	Complete(ctx context.Context, messages []ai.Message) (string, error)
}

// ConversationService runs one utterance through the full intent pipeline:
// persist inbound, gather context, ask the model, apply the intent against
// the store, persist outbound. Stateless across utterances.
type ConversationService struct {
	users    *repository.UserRepository
	tasks    *repository.TaskRepository
	messages *repository.MessageRepository
	llm      LLM
	logger   *zap.Logger
}

func NewConversationService(
	users *repository.UserRepository,
	tasks *repository.TaskRepository,
	messages *repository.MessageRepository,
	llm LLM,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		users:    users,
		tasks:    tasks,
		messages: messages,
		llm:      llm,
		logger:   logger,
	}
}

// Process handles one inbound utterance end to end and returns the reply to
// deliver. It never fails outward: every error path maps to a short
// natural-language reply and a log line.
func (s *ConversationService) Process(ctx context.Context, telegramID int64, name, text string) string {
	user, err := s.users.GetOrCreate(ctx, telegramID, name)
	if err != nil {
		s.logger.Error("resolve user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return replyStorageDown
	}

	if err := s.messages.Save(ctx, user.ID, model.RoleUser, text); err != nil {
		s.logger.Warn("save inbound message", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	active, err := s.tasks.ListActive(ctx, user.ID)
	if err != nil {
		s.logger.Error("list active tasks", zap.Uint("user_id", user.ID), zap.Error(err))
		return replyStorageDown
	}
	recent, err := s.messages.Recent(ctx, user.ID, recentMessageLimit)
	if err != nil {
		s.logger.Error("recent messages", zap.Uint("user_id", user.ID), zap.Error(err))
		return replyStorageDown
	}

	var intent ai.Intent
	raw, err := s.llm.Complete(ctx, ai.BuildMessages(text, active, recent, time.Now()))
	if err != nil {
		s.logger.Warn("llm request failed", zap.Uint("user_id", user.ID), zap.Error(err))
		intent = ai.Intent{Type: ai.IntentChat, ReplyText: replyAIDown}
	} else {
		intent = ai.Normalize(raw)
	}

	reply := s.apply(ctx, user, intent, text)

	if err := s.messages.Save(ctx, user.ID, model.RoleAssistant, reply); err != nil {
		s.logger.Warn("save outbound message", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return reply
}

// apply mutates the store according to the intent and produces the final
// reply text.
func (s *ConversationService) apply(ctx context.Context, user *model.User, intent ai.Intent, userText string) string {
	switch intent.Type {
	case ai.IntentTask:
		return s.applyTask(ctx, user, intent, userText)
	case ai.IntentTasks:
		return s.applyTasks(ctx, user, intent)
	case ai.IntentDone:
		return s.applyDone(ctx, user, intent)
	case ai.IntentDoneMultiple:
		return s.applyDoneMultiple(ctx, user, intent)
	default:
		return intent.ReplyText
	}
}

func (s *ConversationService) applyTask(ctx context.Context, user *model.User, intent ai.Intent, userText string) string {
	draft := *intent.Task
	if strings.TrimSpace(draft.Text) == "" {
		// The model confirmed a task but lost its text; fall back to the
		// user's own words rather than refuse.
		draft.Text = userText
	}
	if _, err := s.tasks.Create(ctx, user.ID, inputFromDraft(draft)); err != nil {
		return s.failureReply("create task", user, err)
	}
	s.logger.Info("task created", zap.Uint("user_id", user.ID))

	reply := intent.ReplyText
	count, err := s.users.IncrementTips(ctx, user.TelegramID)
	if err != nil {
		s.logger.Warn("increment tips", zap.Uint("user_id", user.ID), zap.Error(err))
		return reply
	}
	if tip := TipFor(count); tip != "" {
		reply += "\n\n" + tip
	}
	return reply
}

func (s *ConversationService) applyTasks(ctx context.Context, user *model.User, intent ai.Intent) string {
	created := 0
	for _, draft := range intent.Tasks {
		if _, err := s.tasks.Create(ctx, user.ID, inputFromDraft(draft)); err != nil {
			if errors.Is(err, repository.ErrStorageUnavailable) {
				return s.failureReply("create tasks", user, err)
			}
			s.logger.Warn("skip invalid task", zap.Uint("user_id", user.ID), zap.Error(err))
			continue
		}
		created++
		if _, err := s.users.IncrementTips(ctx, user.TelegramID); err != nil {
			s.logger.Warn("increment tips", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}
	if created == 0 && len(intent.Tasks) > 0 {
		return replyCannotSave
	}
	s.logger.Info("tasks created", zap.Uint("user_id", user.ID), zap.Int("count", created))

	reply := intent.ReplyText
	count, err := s.users.TipsShown(ctx, user.TelegramID)
	if err != nil {
		s.logger.Warn("read tips", zap.Uint("user_id", user.ID), zap.Error(err))
		return reply
	}
	if tip := TipFor(count); tip != "" {
		reply += "\n\n" + tip
	}
	return reply
}

func (s *ConversationService) applyDone(ctx context.Context, user *model.User, intent ai.Intent) string {
	found, err := s.tasks.FindByFragment(ctx, user.ID, intent.SearchText)
	if err != nil {
		return s.failureReply("find task", user, err)
	}
	if found == nil {
		return replyNotFound
	}
	ok, err := s.tasks.Complete(ctx, found.ID, user.ID)
	if err != nil {
		return s.failureReply("complete task", user, err)
	}
	if !ok {
		return replyNotFound
	}
	s.logger.Info("task completed", zap.Uint("user_id", user.ID), zap.Uint("task_id", found.ID))
	return "✅ Отмечено: " + found.Text
}

func (s *ConversationService) applyDoneMultiple(ctx context.Context, user *model.User, intent ai.Intent) string {
	found, err := s.tasks.FindManyByFragments(ctx, user.ID, intent.SearchTexts)
	if err != nil {
		return s.failureReply("find tasks", user, err)
	}
	if len(found) == 0 {
		return replyNoneFound
	}

	var done []string
	for _, task := range found {
		ok, err := s.tasks.Complete(ctx, task.ID, user.ID)
		if err != nil {
			s.logger.Warn("complete task", zap.Uint("user_id", user.ID), zap.Uint("task_id", task.ID), zap.Error(err))
			continue
		}
		if ok {
			done = append(done, task.Text)
		}
	}
	if len(done) == 0 {
		return replyNoneFound
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Отмечено %d задач:", len(done))
	for _, name := range done {
		fmt.Fprintf(&b, "\n  ✅ %s", name)
	}

	if missed := s.unmatchedFragments(ctx, user.ID, intent.SearchTexts, done); len(missed) > 0 {
		b.WriteString("\n\n⚠️ Не нашла: " + strings.Join(missed, ", "))
	}
	s.logger.Info("tasks completed", zap.Uint("user_id", user.ID), zap.Int("count", len(done)))
	return b.String()
}

// unmatchedFragments reports which fragments still resolve to nothing after
// the matched tasks were closed, excluding ones that pointed at a task just
// completed (those stopped resolving because the task left the active list).
func (s *ConversationService) unmatchedFragments(ctx context.Context, userID uint, fragments, done []string) []string {
	var missed []string
	for _, fragment := range fragments {
		task, err := s.tasks.FindByFragment(ctx, userID, fragment)
		if err != nil || task != nil {
			continue
		}
		needle := strings.ToLower(strings.TrimSpace(fragment))
		matchedDone := false
		for _, name := range done {
			if strings.Contains(strings.ToLower(name), needle) {
				matchedDone = true
				break
			}
		}
		if !matchedDone {
			missed = append(missed, fragment)
		}
	}
	return missed
}

func (s *ConversationService) failureReply(op string, user *model.User, err error) string {
	var vErr *repository.ValidationError
	switch {
	case errors.Is(err, repository.ErrStorageUnavailable):
		s.logger.Error(op, zap.Uint("user_id", user.ID), zap.Error(err))
		return replyStorageDown
	case errors.As(err, &vErr):
		s.logger.Warn(op, zap.Uint("user_id", user.ID), zap.Error(err))
		return replyCannotSave
	default:
		s.logger.Error(op, zap.Uint("user_id", user.ID), zap.Error(err))
		return replyCannotSave
	}
}

func inputFromDraft(d ai.TaskDraft) repository.TaskInput {
	return repository.TaskInput{
		Text:          d.Text,
		CategoryEmoji: d.CategoryEmoji,
		CategoryName:  d.CategoryName,
		DueDate:       d.DueDate,
		DueTime:       d.DueTime,
		TimeOfDay:     d.TimeOfDay,
		Value:         d.Value,
		Urgency:       d.Urgency,
		Risk:          d.Risk,
		Size:          d.Size,
	}
}
