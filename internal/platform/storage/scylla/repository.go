package scylla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/truthshield/callguard/internal/domain"
	"github.com/truthshield/callguard/internal/service"
)

// Raw reports expire after ~18 months; the aggregated lookup row is
// permanent and rebuilt by the worker.
const reportTTLSeconds = 47304000

type scyllaRepository struct {
	session *gocql.Session
}

func NewRepository(session *gocql.Session) service.Repository {
	return &scyllaRepository{
		session: session,
	}
}

func Connect(keyspace string, hosts ...string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.ProtoVersion = 4
	cluster.Timeout = 5 * time.Second
	cluster.ConnectTimeout = 5 * time.Second

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to scylla: %w", err)
	}
	return session, nil
}

func (r *scyllaRepository) SaveReport(ctx context.Context, report *domain.Report) error {
	query := `
        INSERT INTO reports (id, phone_number, country_code, reporter_hash, kind, label, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?) USING TTL ?`

	err := r.session.Query(query,
		report.ID.String(),
		report.PhoneNumber,
		report.CountryCode,
		report.ReporterHash,
		string(report.Kind),
		report.Label,
		report.CreatedAt,
		reportTTLSeconds,
	).WithContext(ctx).Exec()

	if err != nil {
		return fmt.Errorf("scylla: failed to save report: %w", err)
	}

	return nil
}

func (r *scyllaRepository) GetReports(ctx context.Context, phoneNumber string) ([]*domain.Report, error) {
	query := `SELECT id, phone_number, country_code, reporter_hash, kind, label, created_at
	          FROM reports WHERE phone_number = ?`

	iter := r.session.Query(query, phoneNumber).WithContext(ctx).Iter()

	var reports []*domain.Report
	var id gocql.UUID
	var phone, country, hash, kindStr, label string
	var createdAt time.Time

	for iter.Scan(&id, &phone, &country, &hash, &kindStr, &label, &createdAt) {
		parsedID, _ := uuid.Parse(id.String())
		reports = append(reports, &domain.Report{
			ID:           parsedID,
			PhoneNumber:  phone,
			CountryCode:  country,
			ReporterHash: hash,
			Kind:         domain.ReportKind(kindStr),
			Label:        label,
			CreatedAt:    createdAt,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("scylla: failed to iterate reports: %w", err)
	}

	return reports, nil
}

func (r *scyllaRepository) GetLookup(ctx context.Context, phoneNumber string) (*domain.PhoneLookupResult, error) {
	query := `
        SELECT phone_number, carrier, tags, report_count, reputation_score, community_label
        FROM lookups WHERE phone_number = ?`

	var result domain.PhoneLookupResult
	var tags []string

	err := r.session.Query(query, phoneNumber).WithContext(ctx).Scan(
		&result.PhoneNumber,
		&result.Carrier,
		&tags,
		&result.ReportCount,
		&result.ReputationScore,
		&result.CommunityLabel,
	)

	// Unknown numbers are a normal outcome, not an error.
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scylla: failed to get lookup: %w", err)
	}

	for _, tag := range tags {
		result.Tags = append(result.Tags, domain.Tag(tag))
	}
	return &result, nil
}

func (r *scyllaRepository) UpsertLookup(ctx context.Context, result *domain.PhoneLookupResult) error {
	query := `
        UPDATE lookups
        SET carrier = ?,
            tags = ?,
            report_count = ?,
            reputation_score = ?,
            community_label = ?
        WHERE phone_number = ?`

	tags := make([]string, 0, len(result.Tags))
	for _, tag := range result.Tags {
		tags = append(tags, string(tag))
	}

	return r.session.Query(query,
		result.Carrier,
		tags,
		result.ReportCount,
		result.ReputationScore,
		result.CommunityLabel,
		result.PhoneNumber,
	).WithContext(ctx).Exec()
}
