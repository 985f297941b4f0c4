package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReportKind is the label a user attaches when reporting a number.
// Using a custom type prevents string typos in the business logic.
type ReportKind string

const (
	ReportScam ReportKind = "scam"
	ReportSpam ReportKind = "spam"
	ReportSafe ReportKind = "safe"
)

// Valid reports whether the kind is one of the accepted report labels.
func (k ReportKind) Valid() bool {
	switch k {
	case ReportScam, ReportSpam, ReportSafe:
		return true
	}
	return false
}

// Report is the raw evidence input entity.
// This struct maps to the 'reports' table in ScyllaDB.
type Report struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"` // E.164 format
	CountryCode string    `json:"country_code" db:"country_code"` // ISO 3166-1 alpha-2

	// ReporterHash is the HMAC-SHA256 of the reporter's phone number.
	// We NEVER store the raw reporter phone number for privacy reasons.
	ReporterHash string `json:"reporter_hash" db:"reporter_hash"`

	Kind      ReportKind `json:"kind" db:"kind"`
	Label     string     `json:"label,omitempty" db:"label"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// NewReport is a factory to create a clean report instance.
// Note: It expects the ReporterHash to be already calculated by the caller (Service layer).
func NewReport(phone, country, reporterHash string, kind ReportKind, label string) *Report {
	return &Report{
		ID:           uuid.New(),
		PhoneNumber:  phone,
		CountryCode:  country,
		ReporterHash: reporterHash,
		Kind:         kind,
		Label:        label,
		CreatedAt:    time.Now().UTC(),
	}
}
