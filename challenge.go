package otpauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/anpurna-aahar/otpauth/internal"
	"github.com/anpurna-aahar/otpauth/store"
)

// RequestOTP issues a fresh challenge for the identifier and purpose,
// persists it on whichever backend is currently reachable, and hands
// the code to the configured Notifier. Any earlier unconsumed challenge
// for the same identifier and purpose is superseded: verification
// always resolves against the newest one.
func (e *Engine) RequestOTP(ctx context.Context, identifier Identifier, purpose Purpose) (ChallengeHandle, error) {
	if e == nil || e.selector == nil {
		return ChallengeHandle{}, ErrEngineNotReady
	}
	if err := identifier.validate(); err != nil {
		return ChallengeHandle{}, err
	}
	if !purpose.valid() {
		return ChallengeHandle{}, fmt.Errorf("%w: unknown purpose %q", ErrPurposeMismatch, purpose)
	}

	code, err := internal.NewCode()
	if err != nil {
		return ChallengeHandle{}, fmt.Errorf("generate code: %w", err)
	}

	backend := e.selector.Pick(ctx)
	now := e.now()
	expiresAt := now.Add(e.config.OTP.TTL)

	challenge := &store.Challenge{
		ID:        uuid.NewString(),
		Code:      code,
		Email:     identifier.Email,
		Phone:     identifier.Phone,
		Purpose:   string(purpose),
		ExpiresAt: expiresAt.UnixMilli(),
	}

	if err := backend.Put(ctx, challenge); err != nil {
		e.metrics.Inc(MetricOTPIssueFailure)
		mapped := errStoreUnavailable(err)
		e.emitAudit(ctx, EventOTPIssue, false, "", challenge.ID, "", "", mapped, nil)
		return ChallengeHandle{}, mapped
	}

	e.metrics.Inc(MetricOTPIssued)
	e.emitAudit(ctx, EventOTPIssue, true, "", challenge.ID, "", "", nil, map[string]string{
		"purpose": string(purpose),
		"backend": backend.Kind.String(),
	})

	e.deliver(ctx, identifier, challenge.ID, code)

	return ChallengeHandle{
		ChallengeID: challenge.ID,
		Identifier:  identifier,
		Purpose:     purpose,
		Backend:     backend.Kind,
		ExpiresAt:   expiresAt,
	}, nil
}

// VerifyOTP checks a submitted code against the newest active challenge
// for the handle's identifier and purpose. Expiry is checked before the
// attempt cap, and both checks come before the code comparison, so an
// expired or exhausted challenge fails the same way whether or not the
// submitted code happens to be right. Success, expiry, and exhaustion
// all consume the challenge; a plain mismatch only burns an attempt.
func (e *Engine) VerifyOTP(ctx context.Context, handle ChallengeHandle, code string) (*VerificationResult, error) {
	if e == nil || e.selector == nil {
		return nil, ErrEngineNotReady
	}
	if err := handle.Identifier.validate(); err != nil {
		return nil, err
	}
	if !handle.Purpose.valid() {
		return nil, fmt.Errorf("%w: unknown purpose %q", ErrPurposeMismatch, handle.Purpose)
	}

	// Verification is pinned to the backend the challenge was issued on.
	// If that backend dropped out mid-flow the verify fails rather than
	// silently probing the other store and reporting a bogus not-found.
	backend, err := e.selector.Resolve(handle.Backend)
	if err != nil {
		mapped := errStoreUnavailable(err)
		e.emitAudit(ctx, EventOTPVerify, false, "", handle.ChallengeID, "", "", mapped, nil)
		return nil, mapped
	}

	challenge, err := backend.GetActive(ctx, handle.Identifier.Email, handle.Identifier.Phone, string(handle.Purpose))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.metrics.Inc(MetricOTPVerifyNotFound)
			e.emitAudit(ctx, EventOTPVerify, false, "", handle.ChallengeID, "", "", ErrChallengeNotFound, nil)
			return nil, ErrChallengeNotFound
		}
		mapped := errStoreUnavailable(err)
		e.emitAudit(ctx, EventOTPVerify, false, "", handle.ChallengeID, "", "", mapped, nil)
		return nil, mapped
	}

	now := e.now()
	if now.UnixMilli() > challenge.ExpiresAt {
		e.consume(ctx, backend, challenge.ID)
		e.metrics.Inc(MetricOTPVerifyExpired)
		e.emitAudit(ctx, EventOTPVerify, false, "", challenge.ID, "", "", ErrChallengeExpired, nil)
		return nil, ErrChallengeExpired
	}

	maxAttempts := e.config.OTP.MaxAttempts
	if challenge.Attempts >= maxAttempts {
		e.consume(ctx, backend, challenge.ID)
		e.metrics.Inc(MetricOTPVerifyExhausted)
		e.emitAudit(ctx, EventOTPVerify, false, "", challenge.ID, "", "", ErrAttemptsExhausted, nil)
		return nil, ErrAttemptsExhausted
	}

	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) != 1 {
		attempts, incErr := backend.IncrementAttempts(ctx, challenge.ID)
		if incErr != nil {
			if errors.Is(incErr, store.ErrNotFound) {
				// Consumed by a concurrent verify between our read and
				// the increment.
				e.metrics.Inc(MetricOTPVerifyNotFound)
				return nil, ErrChallengeNotFound
			}
			return nil, errStoreUnavailable(incErr)
		}

		remaining := maxAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}

		e.metrics.Inc(MetricOTPVerifyMismatch)
		mismatch := fmt.Errorf("%w. %s", ErrCodeMismatch, remainingPhrase(remaining))
		e.emitAudit(ctx, EventOTPVerify, false, "", challenge.ID, "", "", mismatch, map[string]string{
			"attempts": fmt.Sprintf("%d", attempts),
		})
		return nil, mismatch
	}

	e.consume(ctx, backend, challenge.ID)
	e.metrics.Inc(MetricOTPVerifySuccess)
	e.emitAudit(ctx, EventOTPVerify, true, "", challenge.ID, "", "", nil, nil)

	identifier := Identifier{Email: challenge.Email, Phone: challenge.Phone}
	return &VerificationResult{
		Identifier:        identifier,
		Purpose:           Purpose(challenge.Purpose),
		Attempts:          challenge.Attempts,
		RemainingAttempts: maxAttempts - challenge.Attempts,
	}, nil
}

// deliver hands the code to the notifier. Delivery failure never fails
// issuance; the caller already holds a valid handle.
func (e *Engine) deliver(ctx context.Context, identifier Identifier, challengeID, code string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, identifier, code); err != nil {
		e.metrics.Inc(MetricNotifyFailure)
		e.emitAudit(ctx, EventOTPNotify, false, "", challengeID, "", "", err, nil)
		return
	}
	e.emitAudit(ctx, EventOTPNotify, true, "", challengeID, "", "", nil, nil)
}

// consume marks a challenge terminal. MarkConsumed is idempotent, so a
// lost race with a concurrent verify is harmless.
func (e *Engine) consume(ctx context.Context, backend store.Backend, challengeID string) {
	_ = backend.MarkConsumed(ctx, challengeID)
}

func remainingPhrase(remaining int) string {
	if remaining == 1 {
		return "1 attempt remaining"
	}
	return fmt.Sprintf("%d attempts remaining", remaining)
}

func errStoreUnavailable(cause error) error {
	if cause == nil {
		return ErrStoreUnavailable
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, cause)
}
