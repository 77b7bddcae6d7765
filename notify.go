package otpauth

import (
	"context"
	"log"
)

// Notifier is the out-of-band delivery hook for issued codes. Delivery
// is fire-and-forget: a failing Notifier never aborts issuance, the
// engine only audits the failure.
type Notifier interface {
	Notify(ctx context.Context, identifier Identifier, code string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, identifier Identifier, code string) error

// Notify calls the wrapped function.
func (f NotifierFunc) Notify(ctx context.Context, identifier Identifier, code string) error {
	return f(ctx, identifier, code)
}

// LogNotifier writes codes to a standard logger. This is the simulated
// delivery channel; real SMS/email integration replaces it.
type LogNotifier struct {
	Logger *log.Logger
}

// Notify logs the code for the identifier.
func (n LogNotifier) Notify(_ context.Context, identifier Identifier, code string) error {
	logger := n.Logger
	if logger == nil {
		logger = log.Default()
	}
	channel := "phone"
	if identifier.Email != "" {
		channel = "email"
	}
	logger.Printf("otp for %s (%s): %s", identifier.String(), channel, code)
	return nil
}

// NoopNotifier drops codes silently.
type NoopNotifier struct{}

// Notify does nothing.
func (NoopNotifier) Notify(context.Context, Identifier, string) error {
	return nil
}
