package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	redisclient "github.com/peerpresence/server-go/internal/redis"
)

type TargetKind string

const (
	TargetRoom   TargetKind = "room"
	TargetPerson TargetKind = "person"
	TargetAll    TargetKind = "all"
)

// Target names the sockets an envelope is for. Key is the room or the
// person id and is empty for TargetAll.
type Target struct {
	Kind TargetKind `json:"kind"`
	Key  string     `json:"key,omitempty"`
}

// Envelope is one encoded frame in transit between server instances.
// ExceptConn, when set, names the originating socket so it is skipped.
type Envelope struct {
	Target     Target          `json:"target"`
	ExceptConn string          `json:"exceptConn,omitempty"`
	Frame      json.RawMessage `json:"frame"`
}

// Bus fans envelopes out to every server instance, including the sender.
type Bus interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe registers handler for every envelope published after it
	// returns.
	Subscribe(ctx context.Context, handler func(Envelope)) error
	Close() error
}

// LocalBus delivers envelopes synchronously within the process. It suits
// single-instance deployments and tests.
type LocalBus struct {
	mu       sync.RWMutex
	handlers []func(Envelope)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) Publish(ctx context.Context, env Envelope) error {
	b.mu.RLock()
	handlers := append([]func(Envelope){}, b.handlers...)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(env)
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, handler func(Envelope)) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
	return nil
}

func (b *LocalBus) Close() error {
	return nil
}

// RedisBus fans envelopes out over a single Redis pub/sub channel.
type RedisBus struct {
	client  *redisclient.Client
	channel string
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewRedisBus(client *redisclient.Client) *RedisBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBus{
		client:  client,
		channel: redisclient.RealtimeChannel,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *RedisBus) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish envelope: %w", err)
	}
	return nil
}

// Subscribe waits for Redis to confirm the subscription, then consumes the
// channel in the background until Close.
func (b *RedisBus) Subscribe(ctx context.Context, handler func(Envelope)) error {
	pubsub := b.client.Subscribe(b.ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	log.Debug().Str("channel", b.channel).Msg("redis pubsub subscribed")

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer pubsub.Close()
		b.consume(pubsub.Channel(), handler)
	}()
	return nil
}

func (b *RedisBus) consume(ch <-chan *redis.Message, handler func(Envelope)) {
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal envelope")
				continue
			}
			handler(env)
		}
	}
}

func (b *RedisBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return nil
}
