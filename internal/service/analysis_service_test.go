package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/truthshield/callguard/internal/domain"
	"github.com/truthshield/callguard/internal/gate"
	"github.com/truthshield/callguard/internal/service"
)

type fakeAnalyzer struct {
	messageVerdict domain.MessageVerdict
	mediaResult    domain.DeepfakeResult
	err            error
	calls          int
}

func (f *fakeAnalyzer) AnalyzeMessage(ctx context.Context, text string) (domain.MessageVerdict, error) {
	f.calls++
	return f.messageVerdict, f.err
}

func (f *fakeAnalyzer) AnalyzeMedia(ctx context.Context, data []byte, mimeType string, kind domain.MediaType) (domain.DeepfakeResult, error) {
	f.calls++
	return f.mediaResult, f.err
}

type fakeProfileStore struct {
	saves int
}

func (f *fakeProfileStore) Save(ctx context.Context, u *domain.User) error {
	f.saves++
	return nil
}

func freeUser(usage domain.UsageStats) *domain.User {
	if usage.LastResetDate == "" {
		usage.LastResetDate = time.Now().Format("2006-01-02")
	}
	return &domain.User{ID: "u1", Plan: domain.PlanFree, Usage: usage}
}

func TestAnalyzeMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy analyzer verdict passes through", func(t *testing.T) {
		analyzer := &fakeAnalyzer{messageVerdict: domain.MessageVerdict{Result: domain.RiskScam, Explanation: "Giả danh ngân hàng."}}
		profiles := &fakeProfileStore{}
		svc := service.New(NewMockRepo(), analyzer, profiles, gate.New(gate.DefaultLimits()), "salt", zap.NewNop())

		u := freeUser(domain.UsageStats{})
		verdict, err := svc.AnalyzeMessage(ctx, u, "Tài khoản của bạn sắp bị khóa")
		require.NoError(t, err)
		assert.Equal(t, domain.RiskScam, verdict.Result)
		assert.Equal(t, 1, u.Usage.MessageScans)
		assert.Equal(t, 1, profiles.saves)
	})

	t.Run("analyzer failure degrades to keyword rules", func(t *testing.T) {
		analyzer := &fakeAnalyzer{err: errors.New("deadline exceeded")}
		svc := service.New(NewMockRepo(), analyzer, nil, gate.New(gate.DefaultLimits()), "salt", zap.NewNop())

		u := freeUser(domain.UsageStats{})
		verdict, err := svc.AnalyzeMessage(ctx, u, "Yêu cầu chuyển khoản gấp trong hôm nay")
		require.NoError(t, err)
		assert.Equal(t, domain.RiskSuspicious, verdict.Result)
		assert.Contains(t, verdict.Explanation, "chuyển khoản")
		assert.Equal(t, 1, u.Usage.MessageScans, "a degraded scan still counts")
	})

	t.Run("offline mode never claims scam", func(t *testing.T) {
		svc := service.New(NewMockRepo(), nil, nil, gate.New(gate.DefaultLimits()), "salt", zap.NewNop())

		verdict, err := svc.AnalyzeMessage(ctx, freeUser(domain.UsageStats{}), "mã otp của bạn là 123456, công an yêu cầu cung cấp")
		require.NoError(t, err)
		assert.Equal(t, domain.RiskSuspicious, verdict.Result)
	})

	t.Run("exhausted quota blocks before any analysis", func(t *testing.T) {
		analyzer := &fakeAnalyzer{}
		svc := service.New(NewMockRepo(), analyzer, nil, gate.New(gate.DefaultLimits()), "salt", zap.NewNop())

		u := freeUser(domain.UsageStats{MessageScans: 2})
		_, err := svc.AnalyzeMessage(ctx, u, "hello")
		assert.ErrorIs(t, err, service.ErrQuotaExceeded)
		assert.Zero(t, analyzer.calls)
		assert.Equal(t, 2, u.Usage.MessageScans)
	})

	t.Run("stale counters reset on the next day", func(t *testing.T) {
		svc := service.New(NewMockRepo(), nil, nil, gate.New(gate.DefaultLimits()), "salt", zap.NewNop())

		yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
		u := freeUser(domain.UsageStats{MessageScans: 2, LastResetDate: yesterday})
		_, err := svc.AnalyzeMessage(ctx, u, "hello")
		require.NoError(t, err)
		assert.Equal(t, 1, u.Usage.MessageScans)
		assert.Equal(t, time.Now().Format("2006-01-02"), u.Usage.LastResetDate)
	})

	t.Run("paid plan never decrements", func(t *testing.T) {
		svc := service.New(NewMockRepo(), nil, nil, gate.New(gate.DefaultLimits()), "salt", zap.NewNop())

		u := freeUser(domain.UsageStats{MessageScans: 99})
		u.Plan = domain.PlanYearly
		_, err := svc.AnalyzeMessage(ctx, u, "hello")
		require.NoError(t, err)
		assert.Equal(t, 99, u.Usage.MessageScans)
	})
}

func TestAnalyzeCall(t *testing.T) {
	svc := service.New(NewMockRepo(), nil, nil, gate.New(gate.DefaultLimits()), "salt", zap.NewNop())
	ctx := context.Background()

	u := freeUser(domain.UsageStats{})
	u.Contacts = []domain.ContactItem{{ID: "c1", Name: "Mẹ", Phone: "0909111222"}}

	t.Run("saved contact scores low regardless of duration", func(t *testing.T) {
		item := &domain.CallLogItem{PhoneNumber: "0909111222", Duration: 3}
		analysis, err := svc.AnalyzeCall(ctx, u, item)
		require.NoError(t, err)
		assert.Equal(t, 5, analysis.RiskScore)
	})

	t.Run("short unknown call flags as ping", func(t *testing.T) {
		item := &domain.CallLogItem{PhoneNumber: "0355555555", Duration: 4}
		analysis, err := svc.AnalyzeCall(ctx, u, item)
		require.NoError(t, err)
		assert.Equal(t, 75, analysis.RiskScore)
	})

	t.Run("analysis is quota-free", func(t *testing.T) {
		assert.Zero(t, u.Usage.CallLookups)
		assert.Zero(t, u.Usage.DeepfakeScans)
	})
}

func TestAnalyzeMedia(t *testing.T) {
	ctx := context.Background()
	payload := []byte{0xFF, 0xD8}

	t.Run("analyzer failure yields the neutral verdict", func(t *testing.T) {
		analyzer := &fakeAnalyzer{err: errors.New("503")}
		svc := service.New(NewMockRepo(), analyzer, nil, gate.New(gate.DefaultLimits()), "salt", zap.NewNop())

		u := freeUser(domain.UsageStats{})
		result, err := svc.AnalyzeMedia(ctx, u, payload, "image/jpeg", domain.MediaImage)
		require.NoError(t, err)
		assert.False(t, result.IsDeepfake)
		assert.Zero(t, result.ConfidenceScore)
		assert.Equal(t, 50, result.Details.BiologicalScore)
		assert.Equal(t, 1, u.Usage.DeepfakeScans)
	})

	t.Run("third scan is the last free one", func(t *testing.T) {
		svc := service.New(NewMockRepo(), nil, nil, gate.New(gate.DefaultLimits()), "salt", zap.NewNop())

		u := freeUser(domain.UsageStats{DeepfakeScans: 2})
		_, err := svc.AnalyzeMedia(ctx, u, payload, "image/jpeg", domain.MediaImage)
		require.NoError(t, err)

		_, err = svc.AnalyzeMedia(ctx, u, payload, "image/jpeg", domain.MediaImage)
		assert.ErrorIs(t, err, service.ErrQuotaExceeded)
		assert.Equal(t, 3, u.Usage.DeepfakeScans)
	})
}
