// Package call implements the lifecycle state machine for a single
// incoming call: ringing -> connected | ended | auto_ended | blocked,
// connected -> ended. A session owns the ring-time classification, the
// audio warning, the auto-hangup countdown and the history persistence of
// exactly one call instance; the next call gets a fresh session.
package call

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/truthshield/callguard/internal/classifier"
	"github.com/truthshield/callguard/internal/domain"
)

// Hooks are the collaborators a session drives. Nil hooks are skipped.
// They are invoked outside the session lock.
type Hooks struct {
	// Lookup fetches community reputation for the caller. It must not be
	// assumed instantaneous; the result is discarded if the call reached a
	// terminal state first.
	Lookup func(ctx context.Context, phoneNumber string) (*domain.PhoneLookupResult, error)

	// SaveHistory persists the finished call into the user's history.
	SaveHistory func(item *domain.CallLogItem)

	// BlockNumber adds the number to the user's blocked set.
	BlockNumber func(phoneNumber string)

	// Dismiss tears down the call overlay.
	Dismiss func()
}

// Config holds the session timings.
type Config struct {
	AutoHangupDelay time.Duration // dangerous ring time before forced hangup
	DismissDelay    time.Duration // ended/blocked overlay linger
	AutoEndedLinger time.Duration // auto_ended overlay linger
	TickInterval    time.Duration // connected duration ticker
}

// DefaultConfig returns the stock timings.
func DefaultConfig() Config {
	return Config{
		AutoHangupDelay: 3 * time.Second,
		DismissDelay:    time.Second,
		AutoEndedLinger: 2 * time.Second,
		TickInterval:    time.Second,
	}
}

// Session drives one call from first ring to overlay teardown.
//
// A single processing lock wraps accept/decline/hangup/auto-hangup: once
// any terminal transition begins, every other action is dropped, not
// queued, so at most one terminal transition executes per call.
type Session struct {
	mu sync.Mutex

	call        domain.CallLogItem
	contactName string
	override    domain.RiskStatus
	autoHangup  bool // user consented to auto-hangup of dangerous calls

	status    domain.CallStatus
	duration  int // connected seconds; ring time is never counted
	community *domain.PhoneLookupResult

	processing    bool
	closed        bool
	warned        bool // audio warning one-shot
	dangerLatched bool

	cancelAutoHangup CancelFunc
	cancelTick       CancelFunc
	cancelDismiss    CancelFunc

	tone   *warningTone
	sched  Scheduler
	hooks  Hooks
	cfg    Config
	logger *zap.Logger
}

// NewSession builds the state machine for one incoming call. The contact
// name is resolved from the user's address book first, falling back to the
// name carried on the call record (demo/simulated calls inject it there,
// along with an explicit risk override).
func NewSession(item *domain.CallLogItem, user *domain.User, sched Scheduler,
	player AudioPlayer, hooks Hooks, cfg Config, logger *zap.Logger,
) *Session {
	if sched == nil {
		sched = NewScheduler()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.AutoHangupDelay <= 0 {
		cfg.AutoHangupDelay = def.AutoHangupDelay
	}
	if cfg.DismissDelay <= 0 {
		cfg.DismissDelay = def.DismissDelay
	}
	if cfg.AutoEndedLinger <= 0 {
		cfg.AutoEndedLinger = def.AutoEndedLinger
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}

	contactName := user.ContactName(item.PhoneNumber)
	if contactName == "" {
		contactName = item.ContactName
	}

	return &Session{
		call:        *item,
		contactName: contactName,
		override:    item.RiskStatus,
		autoHangup:  user != nil && user.AutoHangupHighRisk,
		tone:        newWarningTone(player),
		sched:       sched,
		hooks:       hooks,
		cfg:         cfg,
		logger:      logger.Named("call_session"),
	}
}

// Start moves the session into ringing, evaluates the initial tier and
// kicks off the community lookup in the background.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.status != "" {
		s.mu.Unlock()
		return
	}
	s.status = domain.CallRinging
	s.applyRingingEffectsLocked(ctx)
	lookup := s.hooks.Lookup
	s.mu.Unlock()

	if lookup != nil {
		go s.resolveLookup(ctx, lookup)
	}
}

func (s *Session) resolveLookup(ctx context.Context,
	lookup func(context.Context, string) (*domain.PhoneLookupResult, error),
) {
	info, err := lookup(ctx, s.call.PhoneNumber)
	if err != nil {
		s.logger.Warn("community lookup failed",
			zap.String("phone", s.call.PhoneNumber), zap.Error(err))
		return
	}
	if info == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Liveness guard: a lookup landing after teardown or after the call
	// already terminated must not mutate anything.
	if s.closed || s.status.Terminal() {
		return
	}
	s.community = info
	s.applyRingingEffectsLocked(ctx)
}

// tierLocked computes the current verdict. Once the warning started while
// ringing, the dangerous verdict is latched for the remainder of the ring
// so late community data cannot flicker the overlay back to a softer tier.
func (s *Session) tierLocked() domain.Tier {
	if s.dangerLatched && s.status == domain.CallRinging {
		return domain.TierDangerous
	}
	return classifier.Classify(s.contactName, s.override, s.community)
}

// applyRingingEffectsLocked starts the warning tone and arms the
// auto-hangup countdown when the dangerous conditions hold. Both are
// one-shot: re-evaluation after new community data never replays the tone
// or restarts a countdown that is already armed.
func (s *Session) applyRingingEffectsLocked(ctx context.Context) {
	if s.status != domain.CallRinging || s.tierLocked() != domain.TierDangerous {
		return
	}
	if !s.warned {
		s.warned = true
		s.dangerLatched = true
		s.tone.start(ctx)
	}
	if s.autoHangup && !s.processing && s.cancelAutoHangup == nil {
		s.cancelAutoHangup = s.sched.After(s.cfg.AutoHangupDelay, s.autoHangupFired)
	}
}

// Tier returns the current classification of the call.
func (s *Session) Tier() domain.Tier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tierLocked()
}

// Status returns the current lifecycle state.
func (s *Session) Status() domain.CallStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Duration returns the connected seconds elapsed so far.
func (s *Session) Duration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Community returns the reputation data resolved so far, or nil.
func (s *Session) Community() *domain.PhoneLookupResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.community
}

// Accept answers the call: ringing -> connected. The warning tone stops
// and the duration ticker starts. Returns false if the transition was
// dropped.
func (s *Session) Accept() bool {
	s.mu.Lock()
	if s.processing || s.status != domain.CallRinging {
		s.mu.Unlock()
		return false
	}
	s.status = domain.CallConnected
	s.clearAutoHangupLocked()
	s.cancelTick = s.sched.After(s.cfg.TickInterval, s.tickFired)
	s.mu.Unlock()

	s.tone.stop()
	return true
}

func (s *Session) tickFired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.CallConnected {
		return
	}
	s.duration++
	s.cancelTick = s.sched.After(s.cfg.TickInterval, s.tickFired)
}

// Decline rejects a ringing call: ringing -> ended. Ring time is not
// counted, so the persisted duration stays zero.
func (s *Session) Decline() bool {
	return s.finishRinging(domain.CallEnded, false)
}

// DeclineAndBlock is the combined "block + decline" action offered on
// dangerous calls: the number joins the blocked set, then the call ends.
func (s *Session) DeclineAndBlock() bool {
	return s.finishRinging(domain.CallBlocked, true)
}

func (s *Session) finishRinging(status domain.CallStatus, block bool) bool {
	s.mu.Lock()
	if s.processing || s.status != domain.CallRinging {
		s.mu.Unlock()
		return false
	}
	s.processing = true
	s.status = status
	s.clearAutoHangupLocked()
	item := s.historyItemLocked()
	s.scheduleDismissLocked(s.cfg.DismissDelay)
	s.mu.Unlock()

	s.tone.stop()
	if block && s.hooks.BlockNumber != nil {
		s.hooks.BlockNumber(s.call.PhoneNumber)
	}
	s.saveHistory(item)
	return true
}

// Hangup ends a connected call: connected -> ended. The elapsed connected
// duration is persisted.
func (s *Session) Hangup() bool {
	s.mu.Lock()
	if s.processing || s.status != domain.CallConnected {
		s.mu.Unlock()
		return false
	}
	s.processing = true
	s.status = domain.CallEnded
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}
	item := s.historyItemLocked()
	s.scheduleDismissLocked(s.cfg.DismissDelay)
	s.mu.Unlock()

	s.saveHistory(item)
	return true
}

// autoHangupFired forces ringing -> auto_ended. The guards re-run here
// because the countdown may race a user action or a consent change.
func (s *Session) autoHangupFired() {
	s.mu.Lock()
	if s.processing || s.status != domain.CallRinging ||
		!s.autoHangup || s.tierLocked() != domain.TierDangerous {
		s.mu.Unlock()
		return
	}
	s.processing = true
	s.status = domain.CallAutoEnded
	s.cancelAutoHangup = nil
	s.duration = 0
	item := s.historyItemLocked()
	// The act of auto-hanging-up is itself confirmation.
	item.RiskStatus = domain.RiskScam
	s.scheduleDismissLocked(s.cfg.AutoEndedLinger)
	s.mu.Unlock()

	s.tone.stop()
	s.saveHistory(item)
	s.logger.Info("auto-hangup executed", zap.String("phone", s.call.PhoneNumber))
}

// Dismiss tears the overlay down, either explicitly or via the terminal
// linger timer. All pending timers die with it.
func (s *Session) Dismiss() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.clearAutoHangupLocked()
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}
	if s.cancelDismiss != nil {
		s.cancelDismiss()
		s.cancelDismiss = nil
	}
	s.processing = false
	dismiss := s.hooks.Dismiss
	s.mu.Unlock()

	s.tone.stop()
	if dismiss != nil {
		dismiss()
	}
}

func (s *Session) clearAutoHangupLocked() {
	if s.cancelAutoHangup != nil {
		s.cancelAutoHangup()
		s.cancelAutoHangup = nil
	}
}

func (s *Session) scheduleDismissLocked(d time.Duration) {
	s.cancelDismiss = s.sched.After(d, s.Dismiss)
}

// historyItemLocked snapshots the call with whatever community and contact
// info has been resolved so far.
func (s *Session) historyItemLocked() *domain.CallLogItem {
	item := s.call
	item.Duration = s.duration
	if s.contactName != "" {
		item.ContactName = s.contactName
	}
	item.Community = s.community
	return &item
}

func (s *Session) saveHistory(item *domain.CallLogItem) {
	if s.hooks.SaveHistory != nil {
		s.hooks.SaveHistory(item)
	}
}
