// Package redis persists user profiles so quota counters survive restarts
// and fan out to other devices of the same user.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/truthshield/callguard/internal/domain"
	"github.com/truthshield/callguard/internal/gate"
)

const (
	profileKeyPrefix = "profile:"
	updatesChannel   = "profile-updates"
)

// ProfileStore keeps the user aggregate as a single JSON value per user.
// Every write publishes the user ID so other sessions can reload.
type ProfileStore struct {
	client rueidis.Client
	logger *zap.Logger
}

func NewProfileStore(client rueidis.Client, logger *zap.Logger) *ProfileStore {
	return &ProfileStore{client: client, logger: logger}
}

// Load fetches a profile, rolling the daily quota counters over if the
// stored record is from a previous day. Returns (nil, nil) for unknown IDs.
func (s *ProfileStore) Load(ctx context.Context, userID string) (*domain.User, error) {
	resp := s.client.Do(ctx, s.client.B().Get().Key(profileKeyPrefix+userID).Build())
	raw, err := resp.ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading profile %s: %w", userID, err)
	}

	var user domain.User
	if err := sonic.UnmarshalString(raw, &user); err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", userID, err)
	}

	if gate.ApplyDailyReset(&user, time.Now()) {
		if err := s.Save(ctx, &user); err != nil {
			s.logger.Warn("persisting daily reset failed", zap.String("user", userID), zap.Error(err))
		}
	}
	return &user, nil
}

// Save writes the full aggregate and notifies subscribers. Last writer wins.
func (s *ProfileStore) Save(ctx context.Context, u *domain.User) error {
	raw, err := sonic.MarshalString(u)
	if err != nil {
		return fmt.Errorf("encoding profile %s: %w", u.ID, err)
	}

	if err := s.client.Do(ctx, s.client.B().Set().Key(profileKeyPrefix+u.ID).Value(raw).Build()).Error(); err != nil {
		return fmt.Errorf("saving profile %s: %w", u.ID, err)
	}

	if err := s.client.Do(ctx, s.client.B().Publish().Channel(updatesChannel).Message(u.ID).Build()).Error(); err != nil {
		s.logger.Warn("profile update publish failed", zap.String("user", u.ID), zap.Error(err))
	}
	return nil
}

// Watch blocks delivering the ID of every updated profile until ctx ends.
func (s *ProfileStore) Watch(ctx context.Context, onUpdate func(userID string)) error {
	err := s.client.Receive(ctx, s.client.B().Subscribe().Channel(updatesChannel).Build(), func(msg rueidis.PubSubMessage) {
		onUpdate(msg.Message)
	})
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
