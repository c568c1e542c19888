package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	groqBaseURL     = "https://api.groq.com/openai/v1"
	deepseekBaseURL = "https://api.deepseek.com"

	groqDefaultModel     = "llama-3.3-70b-versatile"
	deepseekDefaultModel = "deepseek-chat"
	defaultWhisperModel  = "whisper-large-v3-turbo"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken string
	DatabaseURL   string // PostgreSQL DSN; empty means local SQLite
	SQLitePath    string
	AIAPIKey      string
	AIBaseURL     string
	AIModel       string
	WhisperModel  string
	Port          string // keep-alive HTTP port, empty disables it
}

// Load reads configuration from environment variables with sane defaults.
// The AI endpoint resolves Groq-first, then DeepSeek, then plain OpenAI.
func Load() (Config, error) {
	groqKey := strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	deepseekKey := strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY"))
	openaiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))

	cfg := Config{
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:    strings.TrimSpace(os.Getenv("BOT_DB_PATH")),
		AIAPIKey:      firstNonEmpty(groqKey, deepseekKey, openaiKey),
		AIBaseURL:     strings.TrimSpace(os.Getenv("AI_BASE_URL")),
		AIModel:       strings.TrimSpace(os.Getenv("AI_MODEL")),
		WhisperModel:  strings.TrimSpace(os.Getenv("WHISPER_MODEL")),
		Port:          strings.TrimSpace(os.Getenv("PORT")),
	}

	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "bot_data.db"
	}
	if cfg.AIBaseURL == "" {
		if groqKey != "" {
			cfg.AIBaseURL = groqBaseURL
		} else {
			cfg.AIBaseURL = deepseekBaseURL
		}
	}
	if cfg.AIModel == "" {
		if groqKey != "" {
			cfg.AIModel = groqDefaultModel
		} else {
			cfg.AIModel = deepseekDefaultModel
		}
	}
	if cfg.WhisperModel == "" {
		cfg.WhisperModel = defaultWhisperModel
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.AIAPIKey == "" {
		return cfg, fmt.Errorf("AI API key is required: set GROQ_API_KEY, DEEPSEEK_API_KEY or OPENAI_API_KEY")
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
