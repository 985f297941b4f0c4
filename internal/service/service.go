package service

import (
	"context"
	"errors"

	"github.com/truthshield/callguard/internal/domain"
)

// Sentinel errors surfaced to the transport layer. Everything else coming
// out of the service is an internal failure.
var (
	ErrInvalidPhoneFormat = errors.New("invalid phone format: ensure it includes country code (e.g. +84...)")
	ErrInvalidPhoneNumber = errors.New("invalid phone number: number does not exist")
	ErrUnknownCountry     = errors.New("could not detect country from phone number")
	ErrInvalidReportKind  = errors.New("invalid report kind")

	// ErrQuotaExceeded is not a failure: it is the normal gate outcome that
	// must route the caller to an upgrade prompt instead of the action.
	ErrQuotaExceeded = errors.New("daily quota exceeded")
)

type Service interface {
	// LookupNumber returns community reputation for a number, or nil when
	// the registry has never seen it. A non-nil user is charged one lookup
	// against the free-tier quota; pass nil for internal/system lookups.
	LookupNumber(ctx context.Context, u *domain.User, phone string) (*domain.PhoneLookupResult, error)

	// IngestReport validates and stores a community report, then overwrites
	// the number's reputation record.
	IngestReport(ctx context.Context, rawPhone, rawReporter string, kind domain.ReportKind, label string) error

	// RecalculateReputation rebuilds a number's reputation from its raw
	// reports (worker path).
	RecalculateReputation(ctx context.Context, phone string) error

	// AnalyzeMessage classifies a text message, falling back to the offline
	// keyword classifier when the AI collaborator is unavailable.
	AnalyzeMessage(ctx context.Context, u *domain.User, text string) (domain.MessageVerdict, error)

	// AnalyzeCall scores a finished call with the local duration heuristic.
	// Calling it again is an explicit re-analysis request.
	AnalyzeCall(ctx context.Context, u *domain.User, item *domain.CallLogItem) (domain.AIAnalysis, error)

	// AnalyzeMedia runs forensic deepfake analysis, degrading to a neutral
	// "could not verify" verdict when the AI collaborator is unavailable.
	AnalyzeMedia(ctx context.Context, u *domain.User, data []byte, mimeType string, kind domain.MediaType) (domain.DeepfakeResult, error)
}

// Analyzer is the external AI collaborator. A nil Analyzer means offline
// mode: every analysis uses the deterministic fallbacks.
type Analyzer interface {
	AnalyzeMessage(ctx context.Context, text string) (domain.MessageVerdict, error)
	AnalyzeMedia(ctx context.Context, data []byte, mimeType string, kind domain.MediaType) (domain.DeepfakeResult, error)
}

// ProfileSaver persists the mutated user aggregate after quota consumption.
// A nil ProfileSaver means the caller owns persistence.
type ProfileSaver interface {
	Save(ctx context.Context, u *domain.User) error
}
