package feed

import (
	"context"
	"log"
	"sync"

	"qrpresence/internal/attendance"
)

// subscriberBuffer bounds how far a slow viewer may lag before events are
// dropped for it. Other subscribers are unaffected.
const subscriberBuffer = 64

// Memory is an in-process fan-out feed for dev and tests.
type Memory struct {
	mu   sync.Mutex
	subs map[*memorySub]struct{}
}

// NewMemory creates an in-memory feed.
func NewMemory() *Memory {
	return &Memory{subs: make(map[*memorySub]struct{})}
}

// Publish delivers the record to every live subscriber in order.
func (m *Memory) Publish(ctx context.Context, rec attendance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs {
		select {
		case sub.ch <- rec:
		default:
			log.Printf("feed: dropping insert %s for lagging subscriber", rec.ID)
		}
	}
	return nil
}

// Subscribe registers a new listener.
func (m *Memory) Subscribe(ctx context.Context) (Subscription, error) {
	sub := &memorySub{feed: m, ch: make(chan attendance.Record, subscriberBuffer)}
	m.mu.Lock()
	m.subs[sub] = struct{}{}
	m.mu.Unlock()
	return sub, nil
}

type memorySub struct {
	feed *Memory
	ch   chan attendance.Record
	once sync.Once
}

func (s *memorySub) Records() <-chan attendance.Record { return s.ch }

func (s *memorySub) Close() error {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
		close(s.ch)
	})
	return nil
}
