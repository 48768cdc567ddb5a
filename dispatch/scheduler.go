// Package dispatch decides when each subscriber is due for a delivery
// and pushes composed digests through the messaging gateway. Per
// subscriber there is at most one delivery job in flight; windows are
// contiguous and never overlap.
package dispatch

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/floompnews/floompnews/core"
	"github.com/floompnews/floompnews/digest"
	"github.com/floompnews/floompnews/match"
	"github.com/jpillora/backoff"
)

// State is the delivery state of one subscriber.
type State int32

const (
	StateIdle State = iota
	StateDue
	StateDispatching
)

// Defaults, overridable through options. Retention must exceed the
// longest delivery interval, or mid-window items would age out before
// any delivery can carry them.
const (
	defaultThreshold  = 0.7
	defaultMaxRetries = 3
	defaultRetryMin   = 500 * time.Millisecond
	defaultRetryMax   = 30 * time.Second
	defaultPacing     = time.Second
	defaultRetention  = 48 * time.Hour
)

// Scheduler owns the per-subscriber delivery state machines.
type Scheduler struct {
	storage  core.SubscriberStorage
	gateway  core.Gateway
	composer *digest.Composer
	log      core.Logger

	threshold  float64
	maxRetries int
	retryMin   time.Duration
	retryMax   time.Duration
	pacing     time.Duration
	retention  time.Duration
	clock      func() time.Time

	mu     sync.Mutex
	states map[int64]*subscriberState

	// retained buffers scored items across cycles so a subscriber who is
	// not due when an item arrives still receives it once their window
	// closes, and a dropped job is merged into the next delivery.
	retainMu sync.Mutex
	retained []retainedItem
}

// retainedItem stamps a scored item with the cycle time it arrived;
// delivery windows select on this arrival time.
type retainedItem struct {
	at   time.Time
	item core.ScoredItem
}

// subscriberState serializes deliveries for one subscriber. The mutex is
// held for the whole Due→Dispatching→Idle transition, so a concurrent
// trigger waits instead of creating a second overlapping job.
type subscriberState struct {
	mu    sync.Mutex
	state atomic.Int32
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithHighImpactThreshold sets the breaking-tier impact trigger.
func WithHighImpactThreshold(threshold float64) Option {
	return func(s *Scheduler) {
		s.threshold = threshold
	}
}

// WithMaxRetries caps send attempts per payload before a job is dropped.
func WithMaxRetries(n int) Option {
	return func(s *Scheduler) {
		s.maxRetries = n
	}
}

// WithRetryInterval bounds the exponential backoff between attempts.
func WithRetryInterval(min, max time.Duration) Option {
	return func(s *Scheduler) {
		s.retryMin = min
		s.retryMax = max
	}
}

// WithPacing sets the delay between consecutive messages of one digest.
func WithPacing(d time.Duration) Option {
	return func(s *Scheduler) {
		s.pacing = d
	}
}

// WithClock overrides the time source, used in tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithRetention bounds how long undelivered items are buffered.
func WithRetention(d time.Duration) Option {
	return func(s *Scheduler) {
		s.retention = d
	}
}

// New creates a Scheduler.
func New(storage core.SubscriberStorage, gateway core.Gateway, log core.Logger, options ...Option) *Scheduler {
	s := &Scheduler{
		storage:    storage,
		gateway:    gateway,
		composer:   digest.NewComposer(),
		log:        log,
		threshold:  defaultThreshold,
		maxRetries: defaultMaxRetries,
		retryMin:   defaultRetryMin,
		retryMax:   defaultRetryMax,
		pacing:     defaultPacing,
		retention:  defaultRetention,
		clock:      time.Now,
		states:     make(map[int64]*subscriberState),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// RunCycle buffers the items scored in this cycle, then evaluates every
// subscriber against everything retained since their last delivery and
// dispatches due deliveries. Subscribers are processed concurrently;
// each one is serialized by its own state lock. Returns when all
// dispatches have settled.
func (s *Scheduler) RunCycle(ctx context.Context, items []core.ScoredItem) {
	now := s.clock()
	retained := s.retain(now, items)

	subscribers, err := s.storage.All()
	if err != nil {
		s.log.WithError(err).Error("failed to list subscribers")
		return
	}

	var wg sync.WaitGroup
	for _, subscriber := range subscribers {
		wg.Add(1)
		go func(subscriber *core.Subscriber) {
			defer wg.Done()
			s.process(ctx, subscriber, retained, now)
		}(subscriber)
	}
	wg.Wait()
}

// retain appends this cycle's items to the buffer, drops items past the
// retention horizon and returns a snapshot safe for concurrent reads.
func (s *Scheduler) retain(now time.Time, items []core.ScoredItem) []retainedItem {
	cutoff := now.Add(-s.retention)

	s.retainMu.Lock()
	defer s.retainMu.Unlock()

	kept := s.retained[:0]
	for _, entry := range s.retained {
		if !entry.at.Before(cutoff) {
			kept = append(kept, entry)
		}
	}
	for _, item := range items {
		kept = append(kept, retainedItem{at: now, item: item})
	}
	s.retained = kept

	snapshot := make([]retainedItem, len(s.retained))
	copy(snapshot, s.retained)
	return snapshot
}

// State returns the current delivery state for a subscriber.
func (s *Scheduler) State(chatID int64) State {
	return State(s.stateFor(chatID).state.Load())
}

// process runs one subscriber through the state machine for this cycle.
// The candidate set is everything retained inside the subscriber's open
// window (LastDeliveredAt, now], so items that arrived mid-window and
// items from a previously dropped job are all carried.
func (s *Scheduler) process(ctx context.Context, subscriber *core.Subscriber, retained []retainedItem, now time.Time) {
	st := s.stateFor(subscriber.ChatID)
	st.mu.Lock()
	defer st.mu.Unlock()

	matched := match.Match(subscriber, windowItems(retained, subscriber.LastDeliveredAt))

	if !s.isDue(subscriber, matched, now) {
		return
	}
	st.state.Store(int32(StateDue))

	job := core.DeliveryJob{
		ChatID: subscriber.ChatID,
		Items:  matched,
		From:   subscriber.LastDeliveredAt,
		To:     now,
	}

	st.state.Store(int32(StateDispatching))
	defer st.state.Store(int32(StateIdle))

	if err := s.dispatch(ctx, job); err != nil {
		// Job dropped; LastDeliveredAt stays put, so the missed window
		// is merged into the next successful delivery.
		s.log.WithError(err).WithField("chat_id", subscriber.ChatID).
			Error("delivery dropped after retry exhaustion")
		return
	}

	subscriber.LastDeliveredAt = job.To
	if err := s.storage.Put(subscriber); err != nil {
		s.log.WithError(err).WithField("chat_id", subscriber.ChatID).
			Error("failed to persist delivery timestamp")
	}
}

// windowItems selects the retained items that arrived after the last
// delivery, newest cycle first. Items from the same cycle keep their
// scored order.
func windowItems(retained []retainedItem, since time.Time) []core.ScoredItem {
	pending := make([]retainedItem, 0, len(retained))
	for _, entry := range retained {
		if entry.at.After(since) {
			pending = append(pending, entry)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].at.After(pending[j].at)
	})

	items := make([]core.ScoredItem, len(pending))
	for i, entry := range pending {
		items[i] = entry.item
	}
	return items
}

// isDue implements the Idle→Due transition rules. The breaking tier
// fires on any matched item at or above the impact threshold,
// independent of elapsed time; interval tiers fire once enough time has
// passed and there is something to deliver.
func (s *Scheduler) isDue(subscriber *core.Subscriber, matched []core.ScoredItem, now time.Time) bool {
	if len(matched) == 0 {
		return false
	}

	if subscriber.Frequency == core.FrequencyBreaking {
		for _, item := range matched {
			if item.Score.Impact >= s.threshold {
				return true
			}
		}
		return false
	}

	return now.Sub(subscriber.LastDeliveredAt) >= subscriber.Frequency.Interval()
}

// dispatch composes the job and sends every payload, retrying each send
// with bounded exponential backoff. Any payload exhausting its retries
// fails the whole job.
func (s *Scheduler) dispatch(ctx context.Context, job core.DeliveryJob) error {
	payloads := s.composer.Compose(job)

	for i, payload := range payloads {
		if i > 0 && s.pacing > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pacing):
			}
		}

		if err := s.send(ctx, job.ChatID, payload); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) send(ctx context.Context, chatID int64, payload string) error {
	bo := &backoff.Backoff{
		Min:    s.retryMin,
		Max:    s.retryMax,
		Factor: 2,
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		lastErr = s.gateway.Send(chatID, payload)
		if lastErr == nil {
			return nil
		}

		if attempt == s.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(bo.Duration()):
		}
	}

	return &core.DispatchError{
		ChatID:   chatID,
		Attempts: s.maxRetries,
		Err:      lastErr,
	}
}

func (s *Scheduler) stateFor(chatID int64) *subscriberState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[chatID]
	if !ok {
		st = &subscriberState{}
		s.states[chatID] = st
	}
	return st
}
