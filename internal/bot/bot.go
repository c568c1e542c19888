package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"taskmate/internal/repository"
	"taskmate/internal/service"
)

const (
	pollTimeout    = 60
	sendRetries    = 3
	requestTimeout = 90 * time.Second
)

// Transcriber recognizes a voice clip into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Bot wires the Telegram transport to the conversation pipeline. It owns
// nothing long-lived besides the API handle: every update re-resolves its
// user from the store.
type Bot struct {
	api        *tgbotapi.BotAPI
	users      *repository.UserRepository
	tasks      *repository.TaskRepository
	categories *repository.CategoryRepository
	conv       *service.ConversationService
	voice      Transcriber
	logger     *zap.Logger
}

func New(
	token string,
	users *repository.UserRepository,
	tasks *repository.TaskRepository,
	categories *repository.CategoryRepository,
	conv *service.ConversationService,
	voice Transcriber,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	logger.Info("bot authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:        api,
		users:      users,
		tasks:      tasks,
		categories: categories,
		conv:       conv,
		voice:      voice,
		logger:     logger,
	}, nil
}

// Start begins polling updates until ctx is cancelled. One update is handled
// to completion before the next; the core assumes at most one in-flight
// utterance per user.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil {
			continue
		}
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.logger.Warn("handle message", zap.Error(err))
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	switch {
	case msg.IsCommand():
		b.logger.Info("command",
			zap.Int64("telegram_id", msg.From.ID),
			zap.String("command", msg.Command()))
		return b.handleCommand(reqCtx, msg)
	case msg.Voice != nil:
		return b.handleVoice(reqCtx, msg)
	default:
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return nil
		}
		return b.handleText(reqCtx, msg, text)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		if _, err := b.users.GetOrCreate(ctx, msg.From.ID, msg.From.FirstName); err != nil {
			b.logger.Error("ensure user", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		}
		return b.send(ctx, msg.Chat.ID, onboardingText)
	case "help":
		return b.send(ctx, msg.Chat.ID, helpText)
	case "tasks":
		return b.sendTaskList(ctx, msg, "")
	case "plan":
		return b.sendTodayPlan(ctx, msg)
	case "done":
		return b.sendTaskList(ctx, msg, "\n\nНапиши номер задачи или «Готово: [текст задачи]», чтобы отметить.")
	case "categories":
		return b.handleCategories(ctx, msg)
	case "settings":
		return b.handleSettings(ctx, msg)
	default:
		return b.send(ctx, msg.Chat.ID, unknownCommandText)
	}
}

func (b *Bot) sendTaskList(ctx context.Context, msg *tgbotapi.Message, suffix string) error {
	user, err := b.users.GetOrCreate(ctx, msg.From.ID, msg.From.FirstName)
	if err != nil {
		b.logger.Error("ensure user", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		return b.send(ctx, msg.Chat.ID, emptyListText)
	}
	tasks, err := b.tasks.ListActive(ctx, user.ID)
	if err != nil {
		b.logger.Error("list tasks", zap.Uint("user_id", user.ID), zap.Error(err))
		return b.send(ctx, msg.Chat.ID, emptyListText)
	}
	if len(tasks) == 0 && suffix != "" {
		return b.send(ctx, msg.Chat.ID, noTasksToDoneText)
	}
	return b.send(ctx, msg.Chat.ID, formatTaskList(tasks)+suffix)
}

func (b *Bot) sendTodayPlan(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.users.GetOrCreate(ctx, msg.From.ID, msg.From.FirstName)
	if err != nil {
		b.logger.Error("ensure user", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		return b.send(ctx, msg.Chat.ID, emptyPlanText)
	}
	tasks, err := b.tasks.ListToday(ctx, user.ID)
	if err != nil {
		b.logger.Error("list today tasks", zap.Uint("user_id", user.ID), zap.Error(err))
		return b.send(ctx, msg.Chat.ID, emptyPlanText)
	}
	return b.send(ctx, msg.Chat.ID, formatTodayPlan(tasks))
}

func (b *Bot) handleSettings(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.users.GetOrCreate(ctx, msg.From.ID, msg.From.FirstName)
	if err != nil {
		b.logger.Error("ensure user", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		return b.send(ctx, msg.Chat.ID, unknownCommandText)
	}
	return b.send(ctx, msg.Chat.ID, formatSettings(user))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.users.GetOrCreate(ctx, msg.From.ID, msg.From.FirstName)
	if err != nil {
		b.logger.Error("ensure user", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		return b.send(ctx, msg.Chat.ID, noCategoriesText)
	}
	categories, err := b.categories.ListByUser(ctx, user.ID)
	if err != nil {
		b.logger.Error("list categories", zap.Uint("user_id", user.ID), zap.Error(err))
		return b.send(ctx, msg.Chat.ID, noCategoriesText)
	}
	return b.send(ctx, msg.Chat.ID, formatCategories(categories))
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message, text string) error {
	reply := b.conv.Process(ctx, msg.From.ID, msg.From.FirstName, text)
	return b.send(ctx, msg.Chat.ID, reply)
}

// handleVoice downloads the clip, transcribes it, echoes the recognized text
// and then runs it through the same pipeline as typed input.
func (b *Bot) handleVoice(ctx context.Context, msg *tgbotapi.Message) error {
	audio, err := b.downloadVoice(ctx, msg.Voice.FileID)
	if err != nil {
		b.logger.Warn("download voice", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		return b.send(ctx, msg.Chat.ID, voiceFailedText)
	}

	text, err := b.voice.Transcribe(ctx, audio)
	if err != nil || text == "" {
		if err != nil {
			b.logger.Warn("transcribe voice", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		}
		return b.send(ctx, msg.Chat.ID, voiceFailedText)
	}

	if err := b.send(ctx, msg.Chat.ID, fmt.Sprintf("🎤 Распознано: «%s»", text)); err != nil {
		return err
	}
	return b.handleText(ctx, msg, text)
}

func (b *Bot) downloadVoice(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// send delivers a reply, retrying transient transport failures with
// exponential backoff (1s, 2s, 4s) before giving up.
func (b *Bot) send(ctx context.Context, chatID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)

	var lastErr error
	for attempt := 0; attempt <= sendRetries; attempt++ {
		if _, lastErr = b.api.Send(msg); lastErr == nil {
			return nil
		}
		if attempt < sendRetries {
			wait := time.Duration(1<<attempt) * time.Second
			b.logger.Info("retry send",
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait),
				zap.Error(lastErr))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	b.logger.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(lastErr))
	return lastErr
}
