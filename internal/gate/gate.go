// Package gate enforces the free-tier daily quotas on AI-backed features.
package gate

import (
	"time"

	"github.com/truthshield/callguard/internal/domain"
)

// Feature identifies a quota-limited action. The enum is exhaustive by
// construction: anything outside it is rejected, never silently allowed.
type Feature string

const (
	FeatureDeepfake Feature = "deepfake"
	FeatureMessage  Feature = "message"
	FeatureLookup   Feature = "lookup"
)

// Limits holds the per-day free-tier quotas.
type Limits struct {
	DeepfakeScans int
	MessageScans  int
	CallLookups   int
}

// DefaultLimits returns the stock free-tier quotas.
func DefaultLimits() Limits {
	return Limits{
		DeepfakeScans: 3,
		MessageScans:  2,
		CallLookups:   5,
	}
}

// Gate decides whether a user may perform a quota-limited action and
// records consumption. Check and increment are two separate calls and are
// not atomic as a pair; a single writer per session token is assumed.
type Gate struct {
	limits Limits
}

// New creates a gate with the given quotas. Zero or negative quotas block
// the feature entirely for free users.
func New(limits Limits) *Gate {
	return &Gate{limits: limits}
}

// CheckLimit reports whether the user may perform the feature right now.
// Paid plans are unlimited. A false return means the caller must present an
// upgrade prompt and must not perform the gated action. Never panics.
func (g *Gate) CheckLimit(u *domain.User, feature Feature) bool {
	if u == nil {
		return false
	}
	if u.Plan.Paid() {
		return true
	}

	switch feature {
	case FeatureDeepfake:
		return u.Usage.DeepfakeScans < g.limits.DeepfakeScans
	case FeatureMessage:
		return u.Usage.MessageScans < g.limits.MessageScans
	case FeatureLookup:
		return u.Usage.CallLookups < g.limits.CallLookups
	}
	return false
}

// IncrementUsage bumps the matching counter by one. No-op for paid plans.
// It must be called only after the gated operation succeeded, never
// speculatively. The return value tells the caller whether the aggregate
// changed and needs persisting.
func (g *Gate) IncrementUsage(u *domain.User, feature Feature) bool {
	if u == nil || u.Plan.Paid() {
		return false
	}

	switch feature {
	case FeatureDeepfake:
		u.Usage.DeepfakeScans++
	case FeatureMessage:
		u.Usage.MessageScans++
	case FeatureLookup:
		u.Usage.CallLookups++
	default:
		return false
	}
	return true
}

// ApplyDailyReset zeroes the usage counters once per new local calendar
// day. It must run on every load of the persisted user record, before any
// CheckLimit or IncrementUsage call. Idempotent: a second call on the same
// date changes nothing. Returns whether the aggregate changed.
func ApplyDailyReset(u *domain.User, now time.Time) bool {
	if u == nil {
		return false
	}
	today := now.Format("2006-01-02")
	if u.Usage.LastResetDate == today {
		return false
	}
	u.Usage = domain.UsageStats{LastResetDate: today}
	return true
}
