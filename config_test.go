package otpauth

import (
	"testing"
	"time"
)

func TestNormalizeConfigFillsDefaults(t *testing.T) {
	var cfg Config
	normalizeConfig(&cfg)

	if cfg.OTP.TTL != 10*time.Minute {
		t.Fatalf("otp ttl = %v, want 10m", cfg.OTP.TTL)
	}
	if cfg.OTP.MaxAttempts != 3 {
		t.Fatalf("max attempts = %d, want 3", cfg.OTP.MaxAttempts)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("session ttl = %v, want 24h", cfg.Session.TTL)
	}
	if cfg.Session.RememberMeTTL != 30*24*time.Hour {
		t.Fatalf("remember-me ttl = %v, want 720h", cfg.Session.RememberMeTTL)
	}
	if cfg.Session.RedisPrefix != "ase" {
		t.Fatalf("redis prefix = %q, want ase", cfg.Session.RedisPrefix)
	}
	if cfg.Token.SigningMethod != "hs256" {
		t.Fatalf("signing method = %q, want hs256", cfg.Token.SigningMethod)
	}
}

func TestNormalizeConfigKeepsOverrides(t *testing.T) {
	cfg := Config{
		OTP: OTPConfig{TTL: 5 * time.Minute, MaxAttempts: 5},
	}
	normalizeConfig(&cfg)

	if cfg.OTP.TTL != 5*time.Minute || cfg.OTP.MaxAttempts != 5 {
		t.Fatalf("overrides lost: %+v", cfg.OTP)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := defaultConfig()
	if err := validateConfig(valid); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative otp ttl", func(c *Config) { c.OTP.TTL = -time.Minute }},
		{"zero attempts", func(c *Config) { c.OTP.MaxAttempts = 0 }},
		{"zero session ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"remember-me shorter than plain", func(c *Config) {
			c.Session.RememberMeTTL = c.Session.TTL - time.Hour
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			if err := validateConfig(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
