package call_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/truthshield/callguard/internal/call"
	"github.com/truthshield/callguard/internal/domain"
)

// fakeScheduler drives session timers by hand instead of sleeping.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at        time.Duration
	fn        func()
	fired     bool
	cancelled bool
}

func (f *fakeScheduler) After(d time.Duration, fn func()) call.CancelFunc {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{at: f.now + d, fn: fn}
	f.timers = append(f.timers, t)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		t.cancelled = true
	}
}

// Advance moves fake time forward, firing due timers in deadline order.
// Callbacks run outside the scheduler lock so they may arm new timers.
func (f *fakeScheduler) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now + d
	f.mu.Unlock()

	for {
		f.mu.Lock()
		var next *fakeTimer
		for _, t := range f.timers {
			if !t.fired && !t.cancelled && t.at <= target {
				if next == nil || t.at < next.at {
					next = t
				}
			}
		}
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		next.fired = true
		if next.at > f.now {
			f.now = next.at
		}
		f.mu.Unlock()
		next.fn()
	}
}

// fakePlayer records tone activity. When block is set, Play hangs until
// the channel closes, simulating a slow asynchronous playback start.
type fakePlayer struct {
	mu    sync.Mutex
	plays int
	stops int
	block chan struct{}
}

func (p *fakePlayer) Play(context.Context) error {
	p.mu.Lock()
	p.plays++
	block := p.block
	p.mu.Unlock()
	if block != nil {
		<-block
	}
	return nil
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *fakePlayer) counts() (plays, stops int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays, p.stops
}

// recorder collects hook invocations.
type recorder struct {
	mu        sync.Mutex
	history   []*domain.CallLogItem
	blocked   []string
	dismissed bool
}

func (r *recorder) hooks() call.Hooks {
	return call.Hooks{
		SaveHistory: func(item *domain.CallLogItem) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.history = append(r.history, item)
		},
		BlockNumber: func(phone string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.blocked = append(r.blocked, phone)
		},
		Dismiss: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.dismissed = true
		},
	}
}

func (r *recorder) historyLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}

func (r *recorder) isDismissed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dismissed
}

func ringingCall(phone string, risk domain.RiskStatus) *domain.CallLogItem {
	item := domain.NewIncomingCall(phone)
	item.RiskStatus = risk
	return item
}

func TestAcceptConnectsAndTicksDuration(t *testing.T) {
	t.Parallel()
	sched := &fakeScheduler{}
	player := &fakePlayer{}
	rec := &recorder{}
	user := &domain.User{
		Contacts: []domain.ContactItem{{ID: "1", Name: "Mẹ Yêu", Phone: "0901234567"}},
	}

	s := call.NewSession(ringingCall("0901234567", ""), user, sched, player,
		rec.hooks(), call.DefaultConfig(), nil)
	s.Start(context.Background())

	assert.Equal(t, domain.TierSafe, s.Tier())
	require.True(t, s.Accept())
	assert.Equal(t, domain.CallConnected, s.Status())

	sched.Advance(5 * time.Second)
	assert.Equal(t, 5, s.Duration())

	require.True(t, s.Hangup())
	require.Equal(t, 1, rec.historyLen())
	saved := rec.history[0]
	assert.Equal(t, 5, saved.Duration)
	assert.Equal(t, "Mẹ Yêu", saved.ContactName)

	plays, _ := player.counts()
	assert.Zero(t, plays, "safe call must not play the warning tone")

	sched.Advance(time.Second)
	assert.True(t, rec.isDismissed())
}

func TestSingleTerminalTransition(t *testing.T) {
	t.Parallel()
	sched := &fakeScheduler{}
	rec := &recorder{}

	s := call.NewSession(ringingCall("0288889999", ""), &domain.User{}, sched,
		&fakePlayer{}, rec.hooks(), call.DefaultConfig(), nil)
	s.Start(context.Background())

	// Accept wins; the immediately following decline is dropped.
	require.True(t, s.Accept())
	assert.False(t, s.Decline())
	assert.Equal(t, domain.CallConnected, s.Status())
	assert.Zero(t, rec.historyLen())
}

func TestDoubleDeclineWritesHistoryOnce(t *testing.T) {
	t.Parallel()
	sched := &fakeScheduler{}
	rec := &recorder{}

	s := call.NewSession(ringingCall("0288889999", ""), &domain.User{}, sched,
		&fakePlayer{}, rec.hooks(), call.DefaultConfig(), nil)
	s.Start(context.Background())

	require.True(t, s.Decline())
	assert.False(t, s.Decline())
	assert.False(t, s.Accept())

	assert.Equal(t, domain.CallEnded, s.Status())
	require.Equal(t, 1, rec.historyLen())
	assert.Equal(t, 0, rec.history[0].Duration, "ring time is not counted")
}

func TestAutoHangupRequiresConsent(t *testing.T) {
	t.Parallel()
	sched := &fakeScheduler{}
	player := &fakePlayer{}
	rec := &recorder{}
	user := &domain.User{AutoHangupHighRisk: false}

	s := call.NewSession(ringingCall("0888999000", domain.RiskScam), user, sched,
		player, rec.hooks(), call.DefaultConfig(), nil)
	s.Start(context.Background())

	require.Equal(t, domain.TierDangerous, s.Tier())
	sched.Advance(30 * time.Second)

	assert.Equal(t, domain.CallRinging, s.Status(),
		"no auto_ended without consent, regardless of elapsed ring time")
	require.Eventually(t, func() bool {
		plays, _ := player.counts()
		return plays == 1
	}, time.Second, 5*time.Millisecond, "warning tone still plays for dangerous calls")
}

func TestAutoHangupAfterCountdown(t *testing.T) {
	t.Parallel()
	sched := &fakeScheduler{}
	player := &fakePlayer{}
	rec := &recorder{}
	user := &domain.User{AutoHangupHighRisk: true}

	s := call.NewSession(ringingCall("0888999000", domain.RiskScam), user, sched,
		player, rec.hooks(), call.DefaultConfig(), nil)
	s.Start(context.Background())

	sched.Advance(2 * time.Second)
	assert.Equal(t, domain.CallRinging, s.Status())

	sched.Advance(time.Second)
	assert.Equal(t, domain.CallAutoEnded, s.Status())

	require.Equal(t, 1, rec.historyLen())
	saved := rec.history[0]
	assert.Equal(t, domain.RiskScam, saved.RiskStatus)
	assert.Equal(t, 0, saved.Duration)

	plays, stops := player.counts()
	assert.Equal(t, 1, plays)
	assert.GreaterOrEqual(t, stops, 1)

	// auto_ended lingers 2s before dismissing so the user can read the
	// confirmation.
	sched.Advance(time.Second)
	assert.False(t, rec.isDismissed())
	sched.Advance(time.Second)
	assert.True(t, rec.isDismissed())
}

func TestAcceptCancelsAutoHangup(t *testing.T) {
	t.Parallel()
	sched := &fakeScheduler{}
	rec := &recorder{}
	user := &domain.User{AutoHangupHighRisk: true}

	s := call.NewSession(ringingCall("0888999000", domain.RiskScam), user, sched,
		&fakePlayer{}, rec.hooks(), call.DefaultConfig(), nil)
	s.Start(context.Background())

	require.True(t, s.Accept())
	sched.Advance(10 * time.Second)

	assert.Equal(t, domain.CallConnected, s.Status())
	assert.Zero(t, rec.historyLen())
}

func TestDeclineAndBlock(t *testing.T) {
	t.Parallel()
	sched := &fakeScheduler{}
	rec := &recorder{}

	s := call.NewSession(ringingCall("0888999000", domain.RiskScam), &domain.User{},
		sched, &fakePlayer{}, rec.hooks(), call.DefaultConfig(), nil)
	s.Start(context.Background())

	require.True(t, s.DeclineAndBlock())
	assert.Equal(t, domain.CallBlocked, s.Status())
	assert.Equal(t, []string{"0888999000"}, rec.blocked)
	require.Equal(t, 1, rec.historyLen())

	sched.Advance(time.Second)
	assert.True(t, rec.isDismissed())
}

func TestLookupUpgradesTierAndWarnsOnce(t *testing.T) {
	t.Parallel()
	sched := &fakeScheduler{}
	player := &fakePlayer{}
	rec := &recorder{}

	hooks := rec.hooks()
	hooks.Lookup = func(_ context.Context, phone string) (*domain.PhoneLookupResult, error) {
		return &domain.PhoneLookupResult{
			PhoneNumber: phone,
			Tags:        []domain.Tag{domain.TagScam},
			ReportCount: 1542,
		}, nil
	}

	s := call.NewSession(ringingCall("0888999000", ""), &domain.User{}, sched,
		player, hooks, call.DefaultConfig(), nil)
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		return s.Tier() == domain.TierDangerous
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		plays, _ := player.counts()
		return plays == 1
	}, time.Second, 5*time.Millisecond)

	require.NotNil(t, s.Community())
}

func TestLookupDiscardedAfterTerminalState(t *testing.T) {
	t.Parallel()
	sched := &fakeScheduler{}
	player := &fakePlayer{}
	rec := &recorder{}

	release := make(chan struct{})
	done := make(chan struct{})
	hooks := rec.hooks()
	hooks.Lookup = func(_ context.Context, phone string) (*domain.PhoneLookupResult, error) {
		defer close(done)
		<-release
		return &domain.PhoneLookupResult{
			PhoneNumber: phone,
			Tags:        []domain.Tag{domain.TagScam},
			ReportCount: 99,
		}, nil
	}

	s := call.NewSession(ringingCall("0888999000", ""), &domain.User{}, sched,
		player, hooks, call.DefaultConfig(), nil)
	s.Start(context.Background())

	require.True(t, s.Decline())
	close(release)
	<-done

	// The late result must not mutate the finished call.
	assert.Eventually(t, func() bool { return s.Community() == nil }, time.Second, 5*time.Millisecond)
	plays, _ := player.counts()
	assert.Zero(t, plays)
}

func TestStopWaitsForInflightPlay(t *testing.T) {
	t.Parallel()
	sched := &fakeScheduler{}
	rec := &recorder{}
	player := &fakePlayer{block: make(chan struct{})}

	s := call.NewSession(ringingCall("0888999000", domain.RiskScam), &domain.User{},
		sched, player, rec.hooks(), call.DefaultConfig(), nil)
	s.Start(context.Background())

	declined := make(chan struct{})
	go func() {
		defer close(declined)
		s.Decline()
	}()

	// The decline transition happens immediately, but the tone stop must
	// wait for the in-flight play to resolve.
	require.Eventually(t, func() bool {
		return s.Status() == domain.CallEnded
	}, time.Second, 5*time.Millisecond)
	_, stops := player.counts()
	assert.Zero(t, stops, "stop must not be issued before play resolves")

	close(player.block)
	<-declined

	_, stops = player.counts()
	assert.Equal(t, 1, stops)
}

func TestExplicitDismissCancelsLinger(t *testing.T) {
	t.Parallel()
	sched := &fakeScheduler{}
	rec := &recorder{}
	user := &domain.User{AutoHangupHighRisk: true}

	s := call.NewSession(ringingCall("0888999000", domain.RiskScam), user, sched,
		&fakePlayer{}, rec.hooks(), call.DefaultConfig(), nil)
	s.Start(context.Background())

	sched.Advance(3 * time.Second)
	require.Equal(t, domain.CallAutoEnded, s.Status())

	s.Dismiss()
	assert.True(t, rec.isDismissed())

	// The linger timer was cancelled; advancing further changes nothing.
	rec.mu.Lock()
	rec.dismissed = false
	rec.mu.Unlock()
	sched.Advance(5 * time.Second)
	assert.False(t, rec.isDismissed())
}

func TestSuspiciousOverrideNeverAutoHangs(t *testing.T) {
	t.Parallel()
	sched := &fakeScheduler{}
	rec := &recorder{}
	user := &domain.User{AutoHangupHighRisk: true}

	hooks := rec.hooks()
	hooks.Lookup = func(_ context.Context, phone string) (*domain.PhoneLookupResult, error) {
		return &domain.PhoneLookupResult{
			PhoneNumber: phone,
			Tags:        []domain.Tag{domain.TagScam},
			ReportCount: 800,
		}, nil
	}

	s := call.NewSession(ringingCall("0288889999", domain.RiskSuspicious), user,
		sched, &fakePlayer{}, hooks, call.DefaultConfig(), nil)
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		return s.Community() != nil
	}, time.Second, 5*time.Millisecond)

	// The suspicious override caps database escalation, so the countdown
	// never arms.
	assert.Equal(t, domain.TierSuspicious, s.Tier())
	sched.Advance(10 * time.Second)
	assert.Equal(t, domain.CallRinging, s.Status())
}
