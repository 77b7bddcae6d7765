package otpauth

import (
	"context"
	"errors"
	"time"

	"github.com/anpurna-aahar/otpauth/directory"
	"github.com/anpurna-aahar/otpauth/session"
	"github.com/anpurna-aahar/otpauth/store"
	"github.com/anpurna-aahar/otpauth/token"
)

// Engine is the OTP verification and session issuance engine. Build one
// through the Builder and treat it as immutable afterwards.
type Engine struct {
	config   Config
	selector *store.Selector
	dir      directory.Directory
	sessions *session.Manager
	notifier Notifier
	audit    *auditDispatcher
	metrics  *Metrics

	now func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// MetricsSnapshot returns a copy of all engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped under load.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// RegisterWithOTP completes a registration flow: it verifies the code
// against the challenge, creates the user record, and issues a session.
func (e *Engine) RegisterWithOTP(
	ctx context.Context,
	handle ChallengeHandle,
	code string,
	profile RegistrationProfile,
	rememberMe bool,
	client ClientInfo,
) (*AuthResult, error) {
	if e == nil || e.dir == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	if handle.Purpose != PurposeRegistration {
		return nil, ErrPurposeMismatch
	}

	verified, err := e.VerifyOTP(ctx, handle, code)
	if err != nil {
		return nil, err
	}

	user, err := e.resolveRegistration(ctx, verified.Identifier, profile)
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			e.metrics.Inc(MetricRegisterDuplicate)
		}
		e.emitAudit(ctx, EventRegister, false, "", handle.ChallengeID, "", client.IP, err, nil)
		return nil, err
	}

	result, err := e.issueSession(ctx, user, rememberMe, client)
	if err != nil {
		e.emitAudit(ctx, EventRegister, false, user.ID, handle.ChallengeID, "", client.IP, err, nil)
		return nil, err
	}

	e.metrics.Inc(MetricRegisterSuccess)
	e.emitAudit(ctx, EventRegister, true, user.ID, handle.ChallengeID, result.SessionID, client.IP, nil, nil)
	return result, nil
}

// LoginWithOTP completes a login flow: it verifies the code, resolves
// the existing user, stamps the last login, and issues a session.
func (e *Engine) LoginWithOTP(
	ctx context.Context,
	handle ChallengeHandle,
	code string,
	rememberMe bool,
	client ClientInfo,
) (*AuthResult, error) {
	if e == nil || e.dir == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	if handle.Purpose != PurposeLogin {
		return nil, ErrPurposeMismatch
	}

	verified, err := e.VerifyOTP(ctx, handle, code)
	if err != nil {
		return nil, err
	}

	user, err := e.resolveLogin(ctx, verified.Identifier)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		e.emitAudit(ctx, EventLogin, false, "", handle.ChallengeID, "", client.IP, err, nil)
		return nil, err
	}

	result, err := e.issueSession(ctx, user, rememberMe, client)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		e.emitAudit(ctx, EventLogin, false, user.ID, handle.ChallengeID, "", client.IP, err, nil)
		return nil, err
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.emitAudit(ctx, EventLogin, true, user.ID, handle.ChallengeID, result.SessionID, client.IP, nil, nil)
	return result, nil
}

// ValidateSession verifies a credential's signature and expiry and then
// checks the session entry, so revocation takes effect immediately.
func (e *Engine) ValidateSession(ctx context.Context, rawToken string) (*token.Claims, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.sessions.Validate(ctx, rawToken)
	if err != nil {
		e.metrics.Inc(MetricSessionRejected)
		mapped := e.mapSessionError(err)
		e.emitAudit(ctx, EventSessionCheck, false, "", "", "", "", mapped, nil)
		return nil, mapped
	}

	return claims, nil
}

// Logout revokes a single session. The credential stays
// cryptographically valid; only the entry is marked inactive.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}

	if err := e.sessions.Revoke(ctx, sessionID); err != nil {
		mapped := e.mapSessionError(err)
		e.emitAudit(ctx, EventLogout, false, "", "", sessionID, "", mapped, nil)
		return mapped
	}

	e.metrics.Inc(MetricSessionRevoked)
	e.emitAudit(ctx, EventLogout, true, "", "", sessionID, "", nil, nil)
	return nil
}

// LogoutAll revokes every session of a user.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}

	if err := e.sessions.RevokeAllForUser(ctx, userID); err != nil {
		mapped := e.mapSessionError(err)
		e.emitAudit(ctx, EventLogoutAll, false, userID, "", "", "", mapped, nil)
		return mapped
	}

	e.metrics.Inc(MetricSessionRevoked)
	e.emitAudit(ctx, EventLogoutAll, true, userID, "", "", "", nil, nil)
	return nil
}

func (e *Engine) issueSession(ctx context.Context, user *directory.UserRecord, rememberMe bool, client ClientInfo) (*AuthResult, error) {
	cred, err := e.sessions.Issue(ctx, user, rememberMe, session.Client{
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})
	if err != nil {
		return nil, e.mapSessionError(err)
	}

	e.metrics.Inc(MetricSessionIssued)
	return &AuthResult{
		User:      user,
		Token:     cred.Token,
		SessionID: cred.SessionID,
		ExpiresAt: cred.ExpiresAt,
	}, nil
}

func (e *Engine) mapSessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return ErrSessionNotFound
	case errors.Is(err, session.ErrRevoked):
		return ErrSessionRevoked
	case errors.Is(err, token.ErrTokenInvalid):
		return ErrTokenInvalid
	case errors.Is(err, session.ErrRedisUnavailable):
		return errStoreUnavailable(err)
	default:
		return err
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID, challengeID, sessionID, ip string,
	opErr error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp:   e.now(),
		EventType:   eventType,
		UserID:      userID,
		ChallengeID: challengeID,
		SessionID:   sessionID,
		IP:          ip,
		Success:     success,
		Metadata:    metadata,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}

	e.audit.Emit(ctx, event)
}
