package feed

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"qrpresence/internal/attendance"
)

// RedisFeed broadcasts inserts over redis pub/sub so every API instance
// and dashboard sees the same stream.
type RedisFeed struct {
	client  *redis.Client
	channel string
}

// NewRedisFeed builds a feed on the given pub/sub channel.
func NewRedisFeed(client *redis.Client, channel string) *RedisFeed {
	if channel == "" {
		channel = Channel
	}
	return &RedisFeed{client: client, channel: channel}
}

// Publish sends the record as JSON on the channel.
func (f *RedisFeed) Publish(ctx context.Context, rec attendance.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, f.channel, b).Err()
}

// Subscribe opens a pub/sub subscription and decodes messages into records.
func (f *RedisFeed) Subscribe(ctx context.Context) (Subscription, error) {
	ps := f.client.Subscribe(ctx, f.channel)
	// force the subscribe round trip so a dead redis fails here, not later
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &redisSub{ps: ps, ch: make(chan attendance.Record, subscriberBuffer)}
	go func() {
		defer close(sub.ch)
		for msg := range ps.Channel() {
			var rec attendance.Record
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				log.Printf("feed: bad insert payload: %v", err)
				continue
			}
			sub.ch <- rec
		}
	}()
	return sub, nil
}

type redisSub struct {
	ps   *redis.PubSub
	ch   chan attendance.Record
	once sync.Once
	err  error
}

func (s *redisSub) Records() <-chan attendance.Record { return s.ch }

// Close unsubscribes; the decode goroutine exits when the pub/sub channel
// closes.
func (s *redisSub) Close() error {
	s.once.Do(func() {
		s.err = s.ps.Close()
	})
	return s.err
}
