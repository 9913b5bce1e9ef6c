package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	EventQuestionOpened     = "question.opened"
	EventQuestionClosed     = "question.closed"
	EventQuestionResolved   = "question.resolved"
	EventLeaderboardChanged = "leaderboard.changed"
	EventCandidatesCreated  = "candidates.created"
)

type Event struct {
	Type       string         `json:"type"`
	QuestionID uint64         `json:"question_id,omitempty"`
	SeasonID   uint64         `json:"season_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	At         time.Time      `json:"at"`
}

// Publisher is what services depend on; *Hub implements it.
type Publisher interface {
	Publish(ev Event)
}

// Hub fans lifecycle events out to subscribers. Publish never blocks:
// a subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64

	logger  *zap.Logger
	dropped uint64
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   map[uint64]chan Event{},
		logger: logger,
	}
}

// Subscribe returns an event channel and a cancel func that closes it.
func (h *Hub) Subscribe(buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan Event, buf)
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			n := atomic.AddUint64(&h.dropped, 1)
			if h.logger != nil && n%100 == 1 {
				h.logger.Warn("event fanout dropped", zap.String("type", ev.Type), zap.Uint64("dropped_total", n))
			}
		}
	}
}

func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Dropped() uint64 {
	if h == nil {
		return 0
	}
	return atomic.LoadUint64(&h.dropped)
}
