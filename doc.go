// Package otpauth implements one-time-password identity verification
// and session issuance for the storefront's passwordless auth flows.
//
// A flow has two halves. RequestOTP generates a 6 digit code, persists
// a challenge on the durable store (or the in-process fallback when the
// durable store is unreachable), and hands the code to the configured
// Notifier for out-of-band delivery. The returned ChallengeHandle pins
// the flow to the backend that holds the challenge. VerifyOTP then
// checks a submitted code against the newest active challenge for the
// same identifier and purpose: a challenge expires 10 minutes after
// issue, allows 3 attempts, and is consumed by success, expiry, or
// exhaustion.
//
// On top of the verification core sit the composite flows.
// RegisterWithOTP creates the user record after a successful
// registration verification; LoginWithOTP resolves the existing record
// and stamps its last login. Both issue a signed session credential
// whose lifetime is 24 hours, or 30 days with rememberMe, and record a
// session entry in Redis. Entries are never deleted: Logout and
// LogoutAll flip them inactive, and ValidateSession consults the entry
// after checking the signature so revocation bites immediately even
// while the credential itself is still cryptographically valid.
//
// Engines are assembled through the Builder:
//
//	engine, err := otpauth.New().
//		WithConfig(cfg).
//		WithRedis(redisClient).
//		WithDurableStore(mongoStore).
//		WithDirectory(users).
//		WithNotifier(sender).
//		Build()
package otpauth
