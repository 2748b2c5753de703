package config

import "testing"

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Token:     "token",
			Operators: []int64{1},
		},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.RateLimit.Messages != 20 || cfg.RateLimit.PeriodSeconds != 60 {
		t.Fatalf("rate limit defaults = %+v", cfg.RateLimit)
	}
	if cfg.Intake.OpenHour != 9 || cfg.Intake.CloseHour != 20 {
		t.Fatalf("intake hours = %+v", cfg.Intake)
	}
	if cfg.Intake.FormTimeoutSeconds != 180 {
		t.Fatalf("form timeout = %d", cfg.Intake.FormTimeoutSeconds)
	}
}

func TestNormalizeRequiresOperators(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Operators = nil
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected an error without operators")
	}
}

func TestNormalizeRejectsInvalidHours(t *testing.T) {
	cfg := validConfig()
	cfg.Intake.OpenHour = 21
	cfg.Intake.CloseHour = 9
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected an error for inverted hours")
	}
}

func TestNormalizeWebhookRequiresEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected an error for webhook mode without url")
	}
}
