package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/truthshield/callguard/internal/domain"
	redisstore "github.com/truthshield/callguard/internal/platform/storage/redis"
)

func newTestStore(t *testing.T) (*redisstore.ProfileStore, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{srv.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return redisstore.NewProfileStore(client, zap.NewNop()), srv
}

func TestProfileRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	saved := &domain.User{
		ID:                 "u1",
		Name:               "Bà Lan",
		Phone:              "+84909111222",
		AutoHangupHighRisk: true,
		Plan:               domain.PlanFree,
		Usage: domain.UsageStats{
			MessageScans:  1,
			LastResetDate: time.Now().Format("2006-01-02"),
		},
		BlockedNumbers: []string{"+84888999000"},
	}
	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Bà Lan", loaded.Name)
	assert.Equal(t, 1, loaded.Usage.MessageScans)
	assert.True(t, loaded.IsBlocked("+84888999000"))
}

func TestLoadUnknownProfile(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.Load(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadRollsOverStaleCounters(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	require.NoError(t, store.Save(ctx, &domain.User{
		ID:   "u2",
		Plan: domain.PlanFree,
		Usage: domain.UsageStats{
			DeepfakeScans: 3,
			MessageScans:  2,
			CallLookups:   5,
			LastResetDate: yesterday,
		},
	}))

	loaded, err := store.Load(ctx, "u2")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Zero(t, loaded.Usage.DeepfakeScans)
	assert.Zero(t, loaded.Usage.MessageScans)
	assert.Zero(t, loaded.Usage.CallLookups)
	assert.Equal(t, time.Now().Format("2006-01-02"), loaded.Usage.LastResetDate)

	// The rollover was persisted, not just applied in memory.
	again, err := store.Load(ctx, "u2")
	require.NoError(t, err)
	assert.Zero(t, again.Usage.CallLookups)
}
