package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/truthshield/callguard/internal/classifier"
	"github.com/truthshield/callguard/internal/domain"
	"github.com/truthshield/callguard/internal/gate"
)

var errNoUser = errors.New("analysis requires a user profile")

func (s *guardService) AnalyzeMessage(ctx context.Context, u *domain.User, text string) (domain.MessageVerdict, error) {
	if u == nil {
		return domain.MessageVerdict{}, errNoUser
	}
	s.applyDailyReset(ctx, u)
	if !s.gate.CheckLimit(u, gate.FeatureMessage) {
		return domain.MessageVerdict{}, ErrQuotaExceeded
	}

	verdict, ok := s.aiMessageVerdict(ctx, text)
	if !ok {
		verdict = classifier.FallbackMessage(text)
	}

	if s.gate.IncrementUsage(u, gate.FeatureMessage) {
		s.saveProfile(ctx, u)
	}
	return verdict, nil
}

func (s *guardService) aiMessageVerdict(ctx context.Context, text string) (domain.MessageVerdict, bool) {
	if s.analyzer == nil {
		return domain.MessageVerdict{}, false
	}
	verdict, err := s.analyzer.AnalyzeMessage(ctx, text)
	if err != nil {
		s.logger.Warn("message analysis degraded to offline mode", zap.Error(err))
		return domain.MessageVerdict{}, false
	}
	return verdict, true
}

// AnalyzeCall is quota-free: the duration heuristic runs locally.
func (s *guardService) AnalyzeCall(_ context.Context, u *domain.User, item *domain.CallLogItem) (domain.AIAnalysis, error) {
	if item == nil {
		return domain.AIAnalysis{}, errors.New("nothing to analyze")
	}
	contactName := u.ContactName(item.PhoneNumber)
	if contactName == "" {
		contactName = item.ContactName
	}
	return classifier.FallbackCall(contactName, item.Duration), nil
}

func (s *guardService) AnalyzeMedia(ctx context.Context, u *domain.User, data []byte, mimeType string, kind domain.MediaType) (domain.DeepfakeResult, error) {
	if u == nil {
		return domain.DeepfakeResult{}, errNoUser
	}
	s.applyDailyReset(ctx, u)
	if !s.gate.CheckLimit(u, gate.FeatureDeepfake) {
		return domain.DeepfakeResult{}, ErrQuotaExceeded
	}

	result, ok := s.aiMediaVerdict(ctx, data, mimeType, kind)
	if !ok {
		result = domain.FallbackDeepfakeResult()
	}

	if s.gate.IncrementUsage(u, gate.FeatureDeepfake) {
		s.saveProfile(ctx, u)
	}
	return result, nil
}

func (s *guardService) aiMediaVerdict(ctx context.Context, data []byte, mimeType string, kind domain.MediaType) (domain.DeepfakeResult, bool) {
	if s.analyzer == nil {
		return domain.DeepfakeResult{}, false
	}
	result, err := s.analyzer.AnalyzeMedia(ctx, data, mimeType, kind)
	if err != nil {
		s.logger.Warn("media analysis degraded to neutral verdict", zap.Error(err))
		return domain.DeepfakeResult{}, false
	}
	return result, true
}
