package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN", "DATABASE_URL", "BOT_DB_PATH",
		"GROQ_API_KEY", "DEEPSEEK_API_KEY", "OPENAI_API_KEY",
		"AI_BASE_URL", "AI_MODEL", "WHISPER_MODEL", "PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadGroqFirst(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("GROQ_API_KEY", "gk")
	t.Setenv("DEEPSEEK_API_KEY", "dk")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AIAPIKey != "gk" {
		t.Errorf("api key = %q, want the Groq one", cfg.AIAPIKey)
	}
	if cfg.AIBaseURL != groqBaseURL {
		t.Errorf("base url = %q", cfg.AIBaseURL)
	}
	if cfg.AIModel != groqDefaultModel {
		t.Errorf("model = %q", cfg.AIModel)
	}
	if cfg.WhisperModel != defaultWhisperModel {
		t.Errorf("whisper model = %q", cfg.WhisperModel)
	}
	if cfg.SQLitePath != "bot_data.db" {
		t.Errorf("sqlite path = %q", cfg.SQLitePath)
	}
}

func TestLoadDeepseekFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("DEEPSEEK_API_KEY", "dk")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AIAPIKey != "dk" || cfg.AIBaseURL != deepseekBaseURL || cfg.AIModel != deepseekDefaultModel {
		t.Errorf("got %q / %q / %q", cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
	}
}

func TestLoadExplicitOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("GROQ_API_KEY", "gk")
	t.Setenv("AI_BASE_URL", "https://example.com/v1")
	t.Setenv("AI_MODEL", "my-model")
	t.Setenv("BOT_DB_PATH", "/tmp/other.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AIBaseURL != "https://example.com/v1" || cfg.AIModel != "my-model" {
		t.Errorf("overrides ignored: %q / %q", cfg.AIBaseURL, cfg.AIModel)
	}
	if cfg.SQLitePath != "/tmp/other.db" {
		t.Errorf("sqlite path = %q", cfg.SQLitePath)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Error("want error without TELEGRAM_BOT_TOKEN")
	}

	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	if _, err := Load(); err == nil {
		t.Error("want error without any AI API key")
	}
}
