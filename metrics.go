package otpauth

import "sync/atomic"

// MetricID names one engine counter.
type MetricID uint16

const (
	// MetricOTPIssued counts successfully persisted challenges.
	MetricOTPIssued MetricID = iota
	// MetricOTPIssueFailure counts challenge writes that failed.
	MetricOTPIssueFailure
	// MetricOTPVerifySuccess counts successful verifications.
	MetricOTPVerifySuccess
	// MetricOTPVerifyMismatch counts wrong-code attempts.
	MetricOTPVerifyMismatch
	// MetricOTPVerifyExpired counts verifications against expired challenges.
	MetricOTPVerifyExpired
	// MetricOTPVerifyExhausted counts verifications after the attempt cap.
	MetricOTPVerifyExhausted
	// MetricOTPVerifyNotFound counts verifications with no active challenge.
	MetricOTPVerifyNotFound
	// MetricNotifyFailure counts delivery-hook failures (non-fatal).
	MetricNotifyFailure
	// MetricRegisterSuccess counts completed registrations.
	MetricRegisterSuccess
	// MetricRegisterDuplicate counts registrations refused as duplicates.
	MetricRegisterDuplicate
	// MetricLoginSuccess counts completed logins.
	MetricLoginSuccess
	// MetricLoginFailure counts logins that failed after verification.
	MetricLoginFailure
	// MetricSessionIssued counts minted session credentials.
	MetricSessionIssued
	// MetricSessionRevoked counts revoked sessions.
	MetricSessionRevoked
	// MetricSessionRejected counts credentials rejected at validation.
	MetricSessionRejected

	metricCount
)

// Metrics is a fixed-size set of atomic counters.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

// Inc bumps one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Get reads one counter.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || id >= metricCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricCount),
	}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
