package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings that are common for all bots.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// Operators are the chat IDs that receive forwarded requests and
	// may run operator commands. At least one is required.
	Operators []int64 `yaml:"operators" envconfig:"TELEGRAM_OPERATORS"`
	RunMode   string  `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Stacks      string `yaml:"stacks"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	ErrorsFile  string `yaml:"errors_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// RateLimitConfig bounds the inbound message volume per sender within a
// sliding window. Operators are exempt.
type RateLimitConfig struct {
	Messages      int `yaml:"messages" envconfig:"RATE_LIMIT_MESSAGES"`
	PeriodSeconds int `yaml:"period_seconds" envconfig:"RATE_LIMIT_PERIOD_SECONDS"`
}

// IntakeConfig tunes the conversational intake flow.
type IntakeConfig struct {
	// OpenHour..CloseHour (inclusive, local time) is the operating
	// window of the coordinators.
	OpenHour  int `yaml:"open_hour" envconfig:"INTAKE_OPEN_HOUR"`
	CloseHour int `yaml:"close_hour" envconfig:"INTAKE_CLOSE_HOUR"`
	// FormTimeoutSeconds is the inactivity window before the bot asks
	// whether to continue the form.
	FormTimeoutSeconds int `yaml:"form_timeout_seconds" envconfig:"INTAKE_FORM_TIMEOUT_SECONDS"`
	// Pauses between scripted messages, in seconds.
	UrgentPauseSeconds int `yaml:"urgent_pause_seconds" envconfig:"INTAKE_URGENT_PAUSE_SECONDS"`
	IntroPauseSeconds  int `yaml:"intro_pause_seconds" envconfig:"INTAKE_INTRO_PAUSE_SECONDS"`
	StepPauseSeconds   int `yaml:"step_pause_seconds" envconfig:"INTAKE_STEP_PAUSE_SECONDS"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Intake    IntakeConfig    `yaml:"intake"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if len(cfg.Telegram.Operators) == 0 {
		return fmt.Errorf("telegram.operators must list at least one operator chat id")
	}
	for _, id := range cfg.Telegram.Operators {
		if id == 0 {
			return fmt.Errorf("telegram.operators contains a zero chat id")
		}
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.RateLimit.Messages < 0 || cfg.RateLimit.PeriodSeconds < 0 {
		return fmt.Errorf("rate_limit values must be >= 0")
	}
	if cfg.RateLimit.Messages == 0 {
		cfg.RateLimit.Messages = 20
	}
	if cfg.RateLimit.PeriodSeconds == 0 {
		cfg.RateLimit.PeriodSeconds = 60
	}

	if cfg.Intake.OpenHour == 0 && cfg.Intake.CloseHour == 0 {
		cfg.Intake.OpenHour, cfg.Intake.CloseHour = 9, 20
	}
	if cfg.Intake.OpenHour < 0 || cfg.Intake.OpenHour > 23 ||
		cfg.Intake.CloseHour < 0 || cfg.Intake.CloseHour > 23 ||
		cfg.Intake.OpenHour >= cfg.Intake.CloseHour {
		return fmt.Errorf("intake hours must satisfy 0 <= open_hour < close_hour <= 23")
	}
	if cfg.Intake.FormTimeoutSeconds < 0 {
		return fmt.Errorf("intake.form_timeout_seconds must be >= 0")
	}
	if cfg.Intake.FormTimeoutSeconds == 0 {
		cfg.Intake.FormTimeoutSeconds = 180
	}
	if cfg.Intake.UrgentPauseSeconds == 0 {
		cfg.Intake.UrgentPauseSeconds = 15
	}
	if cfg.Intake.IntroPauseSeconds == 0 {
		cfg.Intake.IntroPauseSeconds = 10
	}
	if cfg.Intake.StepPauseSeconds == 0 {
		cfg.Intake.StepPauseSeconds = 3
	}
	return nil
}
