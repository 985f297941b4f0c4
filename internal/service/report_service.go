package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	"github.com/truthshield/callguard/internal/domain"
	"github.com/truthshield/callguard/internal/gate"
)

// defaultRegion is assumed for numbers submitted without a country code.
const defaultRegion = "VN"

// Reputation score bands derived from aggregated risk.
const (
	riskWarning  = 21
	riskCritical = 61
)

type guardService struct {
	repo     Repository
	analyzer Analyzer
	profiles ProfileSaver
	gate     *gate.Gate
	salt     string
	logger   *zap.Logger
}

// New wires the registry service. analyzer and profiles may be nil: a nil
// analyzer forces offline fallbacks, a nil profiles skips persistence.
func New(repo Repository, analyzer Analyzer, profiles ProfileSaver, g *gate.Gate, saltSecret string, logger *zap.Logger) Service {
	return &guardService{
		repo:     repo,
		analyzer: analyzer,
		profiles: profiles,
		gate:     g,
		salt:     saltSecret,
		logger:   logger,
	}
}

// normalizePhone parses a raw number into canonical E.164 plus its ISO
// country code. Numbers without a leading + are assumed to be local.
func (s *guardService) normalizePhone(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)

	region := ""
	if !strings.HasPrefix(raw, "+") {
		region = defaultRegion
	}
	parsed, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", "", ErrInvalidPhoneFormat
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", "", ErrInvalidPhoneNumber
	}
	country := phonenumbers.GetRegionCodeForNumber(parsed)
	if country == "" || country == "ZZ" {
		return "", "", ErrUnknownCountry
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), country, nil
}

// hashReporter anonymizes the reporter identity. The raw number never
// reaches the repository.
func (s *guardService) hashReporter(rawReporter string) string {
	if rawReporter == "" {
		rawReporter = "anonymous"
	}
	mac := hmac.New(sha256.New, []byte(s.salt))
	mac.Write([]byte(rawReporter))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *guardService) IngestReport(ctx context.Context, rawPhone, rawReporter string, kind domain.ReportKind, label string) error {
	if !kind.Valid() {
		return ErrInvalidReportKind
	}

	phone, country, err := s.normalizePhone(rawPhone)
	if err != nil {
		return err
	}

	report := domain.NewReport(phone, country, s.hashReporter(rawReporter), kind, label)
	if err := s.repo.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}

	prev, err := s.repo.GetLookup(ctx, phone)
	if err != nil {
		return fmt.Errorf("loading lookup: %w", err)
	}

	// The newest report overwrites the community verdict outright. The raw
	// report history keeps the evidence for the worker to re-weigh later.
	next := &domain.PhoneLookupResult{
		PhoneNumber:     phone,
		Carrier:         "Unknown",
		Tags:            []domain.Tag{domain.Tag(kind)},
		ReportCount:     1,
		ReputationScore: 10,
		CommunityLabel:  label,
	}
	if prev != nil {
		next.Carrier = prev.Carrier
		next.ReportCount = prev.ReportCount + 1
	}
	if kind == domain.ReportSafe {
		next.ReputationScore = 100
	}

	if err := s.repo.UpsertLookup(ctx, next); err != nil {
		return fmt.Errorf("updating lookup: %w", err)
	}

	s.logger.Info("report ingested",
		zap.String("phone", phone),
		zap.String("country", country),
		zap.String("kind", string(kind)),
		zap.Int("report_count", next.ReportCount),
	)
	return nil
}

func (s *guardService) LookupNumber(ctx context.Context, u *domain.User, phone string) (*domain.PhoneLookupResult, error) {
	if u != nil {
		s.applyDailyReset(ctx, u)
		if !s.gate.CheckLimit(u, gate.FeatureLookup) {
			return nil, ErrQuotaExceeded
		}
	}

	key, _, err := s.normalizePhone(phone)
	if err != nil {
		// Local-format numbers from the dialer that fail strict validation
		// still get a best-effort lookup on the stripped raw string.
		key = strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	}

	result, err := s.repo.GetLookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("looking up number: %w", err)
	}

	// An unknown number still consumed a lookup.
	if u != nil && s.gate.IncrementUsage(u, gate.FeatureLookup) {
		s.saveProfile(ctx, u)
	}
	return result, nil
}

func (s *guardService) RecalculateReputation(ctx context.Context, phone string) error {
	key, _, err := s.normalizePhone(phone)
	if err != nil {
		return err
	}

	reports, err := s.repo.GetReports(ctx, key)
	if err != nil {
		return fmt.Errorf("loading reports: %w", err)
	}

	risk := 0
	label := ""
	now := time.Now().UTC()
	for _, r := range reports {
		weight := reportWeight(r.Kind)
		age := now.Sub(r.CreatedAt)
		switch {
		case age > 365*24*time.Hour:
			weight /= 4
		case age > 180*24*time.Hour:
			weight /= 2
		}
		risk += weight
		if label == "" && r.Label != "" {
			label = r.Label
		}
	}
	if risk < 0 {
		risk = 0
	}
	if risk > 100 {
		risk = 100
	}

	next := &domain.PhoneLookupResult{
		PhoneNumber:     key,
		Carrier:         "Unknown",
		ReportCount:     len(reports),
		ReputationScore: 100 - risk,
		CommunityLabel:  label,
	}
	if prev, err := s.repo.GetLookup(ctx, key); err == nil && prev != nil {
		next.Carrier = prev.Carrier
	}
	switch {
	case risk >= riskCritical:
		next.Tags = []domain.Tag{domain.TagScam}
		if next.CommunityLabel == "" {
			next.CommunityLabel = "Cảnh báo lừa đảo từ cộng đồng"
		}
	case risk >= riskWarning:
		next.Tags = []domain.Tag{domain.TagSpam}
		if next.CommunityLabel == "" {
			next.CommunityLabel = "Có báo cáo làm phiền từ cộng đồng"
		}
	default:
		next.Tags = []domain.Tag{domain.TagSafe}
		if next.CommunityLabel == "" {
			next.CommunityLabel = "Chưa có báo cáo đáng kể"
		}
	}

	if err := s.repo.UpsertLookup(ctx, next); err != nil {
		return fmt.Errorf("updating lookup: %w", err)
	}

	s.logger.Info("reputation recalculated",
		zap.String("phone", key),
		zap.Int("reports", len(reports)),
		zap.Int("score", next.ReputationScore),
	)
	return nil
}

func reportWeight(kind domain.ReportKind) int {
	switch kind {
	case domain.ReportScam:
		return 25
	case domain.ReportSpam:
		return 10
	case domain.ReportSafe:
		return -20
	}
	return 0
}

// applyDailyReset rolls the free-tier counters over at local midnight and
// persists the zeroed aggregate right away.
func (s *guardService) applyDailyReset(ctx context.Context, u *domain.User) {
	if gate.ApplyDailyReset(u, time.Now()) {
		s.saveProfile(ctx, u)
	}
}

// saveProfile persists quota mutations best-effort. The gated operation
// already happened; a storage hiccup must not undo it.
func (s *guardService) saveProfile(ctx context.Context, u *domain.User) {
	if s.profiles == nil {
		return
	}
	if err := s.profiles.Save(ctx, u); err != nil {
		s.logger.Warn("profile save failed", zap.String("user", u.ID), zap.Error(err))
	}
}
