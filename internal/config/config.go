package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Workers  int     `yaml:"workers"` // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Address  string `yaml:"address"`  // sender address and auth user
	Password string `yaml:"password"` // auth password
	StartTLS bool   `yaml:"starttls"` // force STARTTLS instead of implicit TLS
	FromName string `yaml:"from_name"`

	MaxPerMinute int     `yaml:"max_per_minute"`
	MaxPerHour   int     `yaml:"max_per_hour"`
	JitterMinMs  int     `yaml:"jitter_min_ms"`
	JitterMaxMs  int     `yaml:"jitter_max_ms"`
	TimeoutSec   float64 `yaml:"timeout_sec"`
}

type SendConfig struct {
	CooldownDays    int           `yaml:"cooldown_days"`
	StatsPath       string        `yaml:"stats_path"`
	InlineLogo      bool          `yaml:"inline_logo"`
	LogoPath        string        `yaml:"logo_path"`
	DefaultSubject  string        `yaml:"default_subject"`
	SleepBetween    time.Duration `yaml:"sleep_between"`
	UnsubscribeURL  string        `yaml:"unsubscribe_url"`
	UnsubscribeKey  string        `yaml:"unsubscribe_key"`
	RetentionDays   int           `yaml:"retention_days"`
	MaxZipMembers   int           `yaml:"max_zip_members"`
	MaxFileSizeMB   int           `yaml:"max_file_size_mb"`
	ParseWorkers    int           `yaml:"parse_workers"`
	AllowNumeric    bool          `yaml:"allow_numeric"`
	QuarantineScore int           `yaml:"quarantine_score"`
}

type SchedulerConfig struct {
	RetentionCron string `yaml:"retention_cron"`
	DigestCron    string `yaml:"digest_cron"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Send      SendConfig      `yaml:"send"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file, applies environment overrides and defaults,
// and validates the required settings.
//
// Environment variables take precedence over the file so container deploys
// can ship one image with per-env secrets: TELEGRAM_BOT_TOKEN, EMAIL_ADDRESS,
// EMAIL_PASSWORD, SMTP_HOST, SMTP_PORT, SMTP_STARTTLS, COOLDOWN_DAYS,
// SEND_STATS_PATH, INLINE_LOGO, DATABASE_URL, REDIS_URL.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)

	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 465
	}
	if cfg.SMTP.MaxPerMinute == 0 {
		cfg.SMTP.MaxPerMinute = 20
	}
	if cfg.SMTP.MaxPerHour == 0 {
		cfg.SMTP.MaxPerHour = 200
	}
	if cfg.SMTP.TimeoutSec <= 0 {
		cfg.SMTP.TimeoutSec = 30
	}
	if cfg.Send.CooldownDays == 0 {
		cfg.Send.CooldownDays = 180
	}
	if cfg.Send.StatsPath == "" {
		cfg.Send.StatsPath = "var/send_stats.jsonl"
	}
	if cfg.Send.SleepBetween <= 0 {
		cfg.Send.SleepBetween = 1500 * time.Millisecond
	}
	if cfg.Send.RetentionDays <= 0 {
		cfg.Send.RetentionDays = 730
	}
	if cfg.Send.MaxZipMembers <= 0 {
		cfg.Send.MaxZipMembers = 200
	}
	if cfg.Send.MaxFileSizeMB <= 0 {
		cfg.Send.MaxFileSizeMB = 50
	}
	if cfg.Send.ParseWorkers <= 0 {
		cfg.Send.ParseWorkers = 4
	}
	if cfg.Scheduler.RetentionCron == "" {
		cfg.Scheduler.RetentionCron = "0 4 * * *"
	}
	if cfg.Scheduler.DigestCron == "" {
		cfg.Scheduler.DigestCron = "0 9 * * *"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	// A dev run without a token falls back to the logging messenger.
	if cfg.Bot.Token == "" && !dev {
		return nil, errors.New("bot.token is required (or TELEGRAM_BOT_TOKEN)")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required (or DATABASE_URL)")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required (or REDIS_URL)")
	}
	if cfg.SMTP.Address == "" || cfg.SMTP.Password == "" {
		return nil, errors.New("smtp.address and smtp.password are required (or EMAIL_ADDRESS/EMAIL_PASSWORD)")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("EMAIL_ADDRESS"); v != "" {
		cfg.SMTP.Address = v
	}
	if v := os.Getenv("EMAIL_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if n, ok := envInt("SMTP_PORT"); ok {
		cfg.SMTP.Port = n
	}
	if b, ok := envBool("SMTP_STARTTLS"); ok {
		cfg.SMTP.StartTLS = b
	}
	if n, ok := envInt("COOLDOWN_DAYS"); ok {
		cfg.Send.CooldownDays = n
	}
	if v := os.Getenv("SEND_STATS_PATH"); v != "" {
		cfg.Send.StatsPath = v
	}
	if b, ok := envBool("INLINE_LOGO"); ok {
		cfg.Send.InlineLogo = b
	}
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(name string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch v {
	case "":
		return false, false
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
