package service

import (
	"context"

	"github.com/truthshield/callguard/internal/domain"
)

// Repository is the reputation store behind the registry. GetLookup
// returns (nil, nil) for numbers the community has never reported.
type Repository interface {
	GetLookup(ctx context.Context, phoneNumber string) (*domain.PhoneLookupResult, error)

	UpsertLookup(ctx context.Context, r *domain.PhoneLookupResult) error

	SaveReport(ctx context.Context, r *domain.Report) error

	GetReports(ctx context.Context, phoneNumber string) ([]*domain.Report, error)
}
