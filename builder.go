package otpauth

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anpurna-aahar/otpauth/directory"
	"github.com/anpurna-aahar/otpauth/session"
	"github.com/anpurna-aahar/otpauth/store"
	"github.com/anpurna-aahar/otpauth/token"
)

// Builder assembles an Engine. Redis and a Directory are required; the
// durable challenge store, notifier, and audit sink are optional.
type Builder struct {
	config       Config
	configSet    bool
	redis        redis.UniversalClient
	durableStore store.ChallengeStore
	dir          directory.Directory
	notifier     Notifier
	auditSink    AuditSink
}

// New starts an engine build with default configuration.
func New() *Builder {
	return &Builder{}
}

// WithConfig replaces the default configuration. Zero-valued fields are
// filled back in from the defaults at build time.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	b.configSet = true
	return b
}

// WithRedis sets the Redis client backing the session entry store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDurableStore sets the durable challenge backend. Without one,
// every challenge lives in the in-process ephemeral store.
func (b *Builder) WithDurableStore(s store.ChallengeStore) *Builder {
	b.durableStore = s
	return b
}

// WithDirectory sets the user directory collaborator.
func (b *Builder) WithDirectory(dir directory.Directory) *Builder {
	b.dir = dir
	return b
}

// WithNotifier sets the code delivery hook. Without one, codes are
// issued but not delivered anywhere.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink sets the audit destination. Ignored when auditing is
// disabled in the config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	cfg := b.config
	if !b.configSet {
		cfg = defaultConfig()
	}
	normalizeConfig(&cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client required", ErrEngineNotReady)
	}
	if b.dir == nil {
		return nil, fmt.Errorf("%w: user directory required", ErrEngineNotReady)
	}

	tokens, err := token.NewManager(token.Config{
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cfg.Token.PrivateKey,
		PublicKey:     cfg.Token.PublicKey,
		Issuer:        cfg.Token.Issuer,
		Audience:      cfg.Token.Audience,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	entries := session.NewStore(b.redis, cfg.Session.RedisPrefix)
	sessions := session.NewManager(entries, tokens, cfg.Session.TTL, cfg.Session.RememberMeTTL)

	engine := &Engine{
		config:   cfg,
		selector: store.NewSelector(b.durableStore, store.NewMemory()),
		dir:      b.dir,
		sessions: sessions,
		notifier: b.notifier,
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  newMetrics(),
		now:      time.Now,
	}

	return engine, nil
}
