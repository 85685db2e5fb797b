package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/docpivot/docpivot/internal/observability"
)

// ErrTooManySubscribers is returned when the subscriber limit is
// reached.
var ErrTooManySubscribers = errors.New("subscriber limit reached")

// Config holds broadcaster settings.
type Config struct {
	// BufferCapacity is the per-subscriber outbound buffer size.
	BufferCapacity int
	// HeartbeatInterval is how often a synthetic heartbeat event is
	// published to all subscribers.
	HeartbeatInterval time.Duration
	// InactivityTimeout is how long a subscriber may go without
	// activity before the prune loop drops it.
	InactivityTimeout time.Duration
	// MaxConsecutiveDrops is the number of back-to-back overflow drops
	// after which a subscriber is forcibly unsubscribed.
	MaxConsecutiveDrops int
	// MaxSubscribers caps the number of concurrent subscribers.
	MaxSubscribers int
}

// DefaultConfig returns default broadcaster settings.
func DefaultConfig() Config {
	return Config{
		BufferCapacity:      64,
		HeartbeatInterval:   30 * time.Second,
		InactivityTimeout:   time.Hour,
		MaxConsecutiveDrops: 128,
		MaxSubscribers:      100,
	}
}

// Subscriber is one connected observer of the event stream.
type Subscriber struct {
	ID uuid.UUID

	ch chan Event

	mu               sync.Mutex
	closed           bool
	missed           int
	consecutiveDrops int
	lastActive       time.Time
}

// Events returns the subscriber's ordered event sequence. The channel
// is closed when the subscriber is unsubscribed.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Touch records consumer activity, deferring the inactivity timeout.
func (s *Subscriber) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// TakeMissed returns the number of events dropped from this
// subscriber's buffer since the last call and resets the counter. The
// transport layer uses it to signal a gap to the client.
func (s *Subscriber) TakeMissed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.missed
	s.missed = 0
	return n
}

// offer writes an event into the buffer, evicting the oldest buffered
// event when full. It returns the consecutive-drop count after the
// write so the broadcaster can enforce its threshold.
func (s *Subscriber) offer(ev Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}

	select {
	case s.ch <- ev:
		s.consecutiveDrops = 0
		return 0
	default:
	}

	// Buffer full: drop the oldest event to admit the new one. The
	// consumer may race us and make room, in which case the second
	// send just succeeds.
	select {
	case <-s.ch:
		s.missed++
		s.consecutiveDrops++
	default:
	}
	select {
	case s.ch <- ev:
	default:
	}
	return s.consecutiveDrops
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

func (s *Subscriber) idleSince(now time.Time, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActive) > timeout
}

// Broadcaster fans lifecycle events out to all active subscribers
// without blocking on any single slow consumer.
type Broadcaster struct {
	logger *observability.Logger
	cfg    Config

	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscriber
}

// NewBroadcaster creates a broadcaster with the given settings.
func NewBroadcaster(logger *observability.Logger, cfg Config) *Broadcaster {
	if cfg.BufferCapacity <= 0 {
		cfg.BufferCapacity = DefaultConfig().BufferCapacity
	}
	if cfg.MaxConsecutiveDrops <= 0 {
		cfg.MaxConsecutiveDrops = DefaultConfig().MaxConsecutiveDrops
	}
	return &Broadcaster{
		logger: logger.WithComponent("broadcaster"),
		cfg:    cfg,
		subs:   make(map[uuid.UUID]*Subscriber),
	}
}

// Subscribe registers a new observer and returns its handle.
func (b *Broadcaster) Subscribe() (*Subscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.MaxSubscribers > 0 && len(b.subs) >= b.cfg.MaxSubscribers {
		return nil, ErrTooManySubscribers
	}

	sub := &Subscriber{
		ID:         uuid.New(),
		ch:         make(chan Event, b.cfg.BufferCapacity),
		lastActive: time.Now(),
	}
	b.subs[sub.ID] = sub

	b.logger.Debug().Str("subscriber_id", sub.ID.String()).Int("total", len(b.subs)).Msg("Subscriber connected")
	return sub, nil
}

// Unsubscribe removes an observer and releases its resources. Safe to
// call more than once.
func (b *Broadcaster) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	remaining := len(b.subs)
	b.mu.Unlock()

	if !ok {
		return
	}
	sub.close()
	b.logger.Debug().Str("subscriber_id", id.String()).Int("total", remaining).Msg("Subscriber disconnected")
}

// Publish fans an event out to every active subscriber. Slow consumers
// lose their oldest buffered event; consumers past the consecutive-drop
// threshold are forcibly unsubscribed.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.RLock()
	snapshot := make([]*Subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		snapshot = append(snapshot, sub)
	}
	b.mu.RUnlock()

	var evict []uuid.UUID
	for _, sub := range snapshot {
		if drops := sub.offer(ev); drops > b.cfg.MaxConsecutiveDrops {
			evict = append(evict, sub.ID)
		}
	}

	for _, id := range evict {
		b.logger.Warn().Str("subscriber_id", id.String()).Msg("Evicting subscriber after repeated buffer overflows")
		b.Unsubscribe(id)
	}
}

// Count returns the number of active subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Run drives the heartbeat and the dead-subscriber prune loop until
// the context is cancelled. All subscribers are released on exit.
func (b *Broadcaster) Run(ctx context.Context) {
	heartbeat := time.NewTicker(b.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	pruneInterval := b.cfg.InactivityTimeout / 4
	if pruneInterval <= 0 {
		pruneInterval = time.Minute
	}
	prune := time.NewTicker(pruneInterval)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case <-heartbeat.C:
			b.Publish(NewHeartbeat())
		case <-prune.C:
			b.pruneIdle(time.Now())
		}
	}
}

// pruneIdle drops subscribers that have shown no activity within the
// inactivity timeout.
func (b *Broadcaster) pruneIdle(now time.Time) {
	b.mu.RLock()
	var idle []uuid.UUID
	for id, sub := range b.subs {
		if sub.idleSince(now, b.cfg.InactivityTimeout) {
			idle = append(idle, id)
		}
	}
	b.mu.RUnlock()

	for _, id := range idle {
		b.logger.Info().Str("subscriber_id", id.String()).Msg("Pruning inactive subscriber")
		b.Unsubscribe(id)
	}
}

func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[uuid.UUID]*Subscriber)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}
