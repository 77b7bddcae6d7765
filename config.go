package otpauth

import (
	"errors"
	"time"

	"github.com/anpurna-aahar/otpauth/token"
)

// Config groups the engine's policy knobs. Zero values are filled from
// defaultConfig at build time; the OTP constants default to the fixed
// policy (10 minute expiry, 3 attempts) and deployments that override
// them own the consequences.
type Config struct {
	OTP     OTPConfig
	Session SessionConfig
	Token   TokenConfig
	Audit   AuditConfig
}

// OTPConfig controls the challenge lifecycle.
type OTPConfig struct {
	TTL         time.Duration
	MaxAttempts int
}

// SessionConfig controls session lifetimes and entry storage.
type SessionConfig struct {
	TTL           time.Duration // plain login
	RememberMeTTL time.Duration // remember-me login
	RedisPrefix   string
}

// TokenConfig configures credential signing.
type TokenConfig struct {
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

func defaultConfig() Config {
	return Config{
		OTP: OTPConfig{
			TTL:         10 * time.Minute,
			MaxAttempts: 3,
		},
		Session: SessionConfig{
			TTL:           24 * time.Hour,
			RememberMeTTL: 30 * 24 * time.Hour,
			RedisPrefix:   "ase",
		},
		Token: TokenConfig{
			SigningMethod: string(token.MethodHS256),
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func normalizeConfig(cfg *Config) {
	defaults := defaultConfig()

	if cfg.OTP.TTL == 0 {
		cfg.OTP.TTL = defaults.OTP.TTL
	}
	if cfg.OTP.MaxAttempts == 0 {
		cfg.OTP.MaxAttempts = defaults.OTP.MaxAttempts
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = defaults.Session.TTL
	}
	if cfg.Session.RememberMeTTL == 0 {
		cfg.Session.RememberMeTTL = defaults.Session.RememberMeTTL
	}
	if cfg.Session.RedisPrefix == "" {
		cfg.Session.RedisPrefix = defaults.Session.RedisPrefix
	}
	if cfg.Token.SigningMethod == "" {
		cfg.Token.SigningMethod = defaults.Token.SigningMethod
	}
	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = defaults.Audit.BufferSize
	}
}

func validateConfig(cfg Config) error {
	if cfg.OTP.TTL < 0 {
		return errors.New("invalid otp ttl")
	}
	if cfg.OTP.MaxAttempts < 1 {
		return errors.New("invalid otp attempt limit")
	}
	if cfg.Session.TTL <= 0 || cfg.Session.RememberMeTTL <= 0 {
		return errors.New("invalid session ttl")
	}
	if cfg.Session.RememberMeTTL < cfg.Session.TTL {
		return errors.New("remember-me ttl shorter than session ttl")
	}
	return nil
}
