package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Search.Keyword == "" {
		t.Fatalf("default keyword must not be empty")
	}
	if cfg.Search.MaxArticles <= 0 {
		t.Fatalf("default max articles must be positive, got %d", cfg.Search.MaxArticles)
	}
	if cfg.Dedup.MinSimilarity != 0.5 {
		t.Fatalf("unexpected default similarity threshold: %v", cfg.Dedup.MinSimilarity)
	}
	if cfg.HuggingFace.Endpoint == "" {
		t.Fatalf("default huggingface endpoint must not be empty")
	}
	if len(cfg.Feeds) == 0 {
		t.Fatalf("expected at least one default feed")
	}
	if cfg.Scheduler.Location() == nil {
		t.Fatalf("scheduler location must resolve")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://env-host/db")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-bot")
	t.Setenv("TELEGRAM_CHAT_ID", "env-chat")
	t.Setenv("HUGGINGFACE_LLM_TOKEN", "env-llm")
	t.Setenv("HUGGINGFACE_IMAGE_TOKEN", "env-image")
	t.Setenv("SEARCH_KEYWORD", "space exploration")

	cfg := Load()

	if cfg.Database.DSN != "postgres://env-host/db" {
		t.Fatalf("database dsn not overridden: %s", cfg.Database.DSN)
	}
	if cfg.Notifications.Telegram.BotToken != "env-bot" {
		t.Fatalf("bot token not overridden: %s", cfg.Notifications.Telegram.BotToken)
	}
	if cfg.Notifications.Telegram.ChatID != "env-chat" {
		t.Fatalf("chat id not overridden: %s", cfg.Notifications.Telegram.ChatID)
	}
	if cfg.HuggingFace.TextToken != "env-llm" {
		t.Fatalf("text token not overridden: %s", cfg.HuggingFace.TextToken)
	}
	if cfg.HuggingFace.ImageToken != "env-image" {
		t.Fatalf("image token not overridden: %s", cfg.HuggingFace.ImageToken)
	}
	if cfg.Search.Keyword != "space exploration" {
		t.Fatalf("keyword not overridden: %s", cfg.Search.Keyword)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := []byte(`
logging:
  level: debug
scheduler:
  cronExpression: "30 7 * * *"
  timezone: Europe/Copenhagen
search:
  keyword: renewable energy
  countries: [DK, SE]
  maxArticles: 3
dedup:
  minSimilarity: 0.7
feeds:
  - name: google-news
    source: googlenews
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("NEWS_COMMENTER_CONFIG", path)

	cfg := Load()

	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging level not merged: %s", cfg.Logging.Level)
	}
	if cfg.Scheduler.CronExpression != "30 7 * * *" {
		t.Fatalf("cron expression not merged: %s", cfg.Scheduler.CronExpression)
	}
	if cfg.Scheduler.Location().String() != "Europe/Copenhagen" {
		t.Fatalf("timezone not bound: %s", cfg.Scheduler.Location())
	}
	if cfg.Search.Keyword != "renewable energy" {
		t.Fatalf("keyword not merged: %s", cfg.Search.Keyword)
	}
	if cfg.Search.MaxArticles != 3 {
		t.Fatalf("max articles not merged: %d", cfg.Search.MaxArticles)
	}
	if cfg.Dedup.MinSimilarity != 0.7 {
		t.Fatalf("similarity threshold not merged: %v", cfg.Dedup.MinSimilarity)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0].Source != "googlenews" {
		t.Fatalf("feeds not merged: %+v", cfg.Feeds)
	}
	// Untouched sections keep their defaults.
	if cfg.HuggingFace.Endpoint == "" {
		t.Fatalf("huggingface defaults lost in merge")
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.env")

	raw := []byte("TELEGRAM_BOT_TOKEN=dotenv-bot\nHUGGINGFACE_LLM_TOKEN=dotenv-llm\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	t.Setenv("NEWS_COMMENTER_DOTENV", path)
	// godotenv does not override existing env vars, so clear them first.
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	os.Unsetenv("TELEGRAM_BOT_TOKEN")
	t.Setenv("HUGGINGFACE_LLM_TOKEN", "")
	os.Unsetenv("HUGGINGFACE_LLM_TOKEN")

	cfg := Load()

	if cfg.Notifications.Telegram.BotToken != "dotenv-bot" {
		t.Fatalf("bot token not loaded from dotenv: %s", cfg.Notifications.Telegram.BotToken)
	}
	if cfg.HuggingFace.TextToken != "dotenv-llm" {
		t.Fatalf("text token not loaded from dotenv: %s", cfg.HuggingFace.TextToken)
	}
}
