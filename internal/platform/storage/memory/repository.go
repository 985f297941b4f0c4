// Package memory is a self-contained registry backend for demos and local
// development, pre-seeded with a handful of known numbers.
package memory

import (
	"context"
	"sync"

	"github.com/truthshield/callguard/internal/domain"
	"github.com/truthshield/callguard/internal/service"
)

type memoryRepository struct {
	mu      sync.RWMutex
	lookups map[string]*domain.PhoneLookupResult
	reports map[string][]*domain.Report
}

// NewRepository returns an empty in-memory registry.
func NewRepository() service.Repository {
	return &memoryRepository{
		lookups: make(map[string]*domain.PhoneLookupResult),
		reports: make(map[string][]*domain.Report),
	}
}

// NewSeededRepository returns a registry pre-loaded with well-known demo
// numbers covering every reputation shade.
func NewSeededRepository() service.Repository {
	repo := &memoryRepository{
		lookups: make(map[string]*domain.PhoneLookupResult),
		reports: make(map[string][]*domain.Report),
	}
	for _, entry := range seedData() {
		repo.lookups[entry.PhoneNumber] = entry
	}
	return repo
}

func seedData() []*domain.PhoneLookupResult {
	return []*domain.PhoneLookupResult{
		{
			PhoneNumber:     "+84888999000",
			Carrier:         "Vinaphone",
			Tags:            []domain.Tag{domain.TagScam},
			ReportCount:     1542,
			ReputationScore: 2,
			CommunityLabel:  "Giả danh công an, yêu cầu chuyển tiền",
		},
		{
			PhoneNumber:     "+84909112233",
			Carrier:         "Mobifone",
			Tags:            []domain.Tag{domain.TagSafe, domain.TagDelivery},
			ReportCount:     12,
			ReputationScore: 95,
			CommunityLabel:  "Shipper giao hàng",
		},
		{
			PhoneNumber:     "+84912345678",
			Carrier:         "Viettel",
			Tags:            []domain.Tag{domain.TagSpam},
			ReportCount:     89,
			ReputationScore: 35,
			CommunityLabel:  "Chào mời bất động sản",
		},
		{
			PhoneNumber:     "+84283822188",
			Carrier:         "VNPT",
			Tags:            []domain.Tag{domain.TagSafe, domain.TagBusiness},
			ReportCount:     3,
			ReputationScore: 90,
			CommunityLabel:  "Tổng đài chăm sóc khách hàng",
		},
	}
}

func (m *memoryRepository) GetLookup(_ context.Context, phoneNumber string) (*domain.PhoneLookupResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result, exists := m.lookups[phoneNumber]
	if !exists {
		return nil, nil
	}
	clone := *result
	clone.Tags = append([]domain.Tag(nil), result.Tags...)
	return &clone, nil
}

func (m *memoryRepository) UpsertLookup(_ context.Context, result *domain.PhoneLookupResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *result
	clone.Tags = append([]domain.Tag(nil), result.Tags...)
	m.lookups[result.PhoneNumber] = &clone
	return nil
}

func (m *memoryRepository) SaveReport(_ context.Context, report *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reports[report.PhoneNumber] = append(m.reports[report.PhoneNumber], report)
	return nil
}

func (m *memoryRepository) GetReports(_ context.Context, phoneNumber string) ([]*domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]*domain.Report(nil), m.reports[phoneNumber]...), nil
}
