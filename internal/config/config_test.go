package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
bot:
  token: tg-token
database:
  url: postgres://localhost/emailbot
redis:
  url: redis://localhost:6379/0
smtp:
  address: sender@corp.ru
  password: smtp-pass
`

func TestLoadConfig(t *testing.T) {
	t.Run("minimal file gets defaults applied", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, minimalYAML), false)
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}

		if cfg.Bot.Workers != 8 {
			t.Errorf("workers = %d, want 8", cfg.Bot.Workers)
		}
		if cfg.SMTP.Port != 465 {
			t.Errorf("smtp port = %d, want 465", cfg.SMTP.Port)
		}
		if cfg.SMTP.MaxPerMinute != 20 || cfg.SMTP.MaxPerHour != 200 {
			t.Errorf("throttle = %d/%d, want 20/200", cfg.SMTP.MaxPerMinute, cfg.SMTP.MaxPerHour)
		}
		if cfg.Send.CooldownDays != 180 {
			t.Errorf("cooldown = %d, want 180", cfg.Send.CooldownDays)
		}
		if cfg.Send.SleepBetween != 1500*time.Millisecond {
			t.Errorf("sleep_between = %v", cfg.Send.SleepBetween)
		}
		if cfg.Scheduler.RetentionCron == "" || cfg.Scheduler.DigestCron == "" {
			t.Error("cron defaults missing")
		}
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
		t.Setenv("SMTP_HOST", "smtp.corp.ru")
		t.Setenv("SMTP_PORT", "587")
		t.Setenv("SMTP_STARTTLS", "true")
		t.Setenv("COOLDOWN_DAYS", "30")
		t.Setenv("SEND_STATS_PATH", "/data/stats.jsonl")
		t.Setenv("INLINE_LOGO", "1")

		cfg, err := LoadConfig(writeConfig(t, minimalYAML), false)
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}

		if cfg.Bot.Token != "env-token" {
			t.Errorf("token = %q", cfg.Bot.Token)
		}
		if cfg.SMTP.Host != "smtp.corp.ru" || cfg.SMTP.Port != 587 || !cfg.SMTP.StartTLS {
			t.Errorf("smtp = %+v", cfg.SMTP)
		}
		if cfg.Send.CooldownDays != 30 {
			t.Errorf("cooldown = %d", cfg.Send.CooldownDays)
		}
		if cfg.Send.StatsPath != "/data/stats.jsonl" {
			t.Errorf("stats path = %q", cfg.Send.StatsPath)
		}
		if !cfg.Send.InlineLogo {
			t.Error("inline logo should be on")
		}
	})

	t.Run("missing bot token fails validation", func(t *testing.T) {
		yaml := `
database:
  url: postgres://localhost/emailbot
redis:
  url: redis://localhost:6379/0
smtp:
  address: sender@corp.ru
  password: smtp-pass
`
		if _, err := LoadConfig(writeConfig(t, yaml), false); err == nil {
			t.Error("expected an error without a token")
		}
	})

	t.Run("missing smtp credentials fail validation", func(t *testing.T) {
		yaml := `
bot:
  token: tg-token
database:
  url: postgres://localhost/emailbot
redis:
  url: redis://localhost:6379/0
`
		if _, err := LoadConfig(writeConfig(t, yaml), false); err == nil {
			t.Error("expected an error without smtp credentials")
		}
	})

	t.Run("absent file still works with env only", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
		t.Setenv("DATABASE_URL", "postgres://localhost/emailbot")
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("EMAIL_ADDRESS", "sender@corp.ru")
		t.Setenv("EMAIL_PASSWORD", "smtp-pass")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), true)
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if !cfg.Runtime.Dev {
			t.Error("dev flag should propagate")
		}
	})
}
