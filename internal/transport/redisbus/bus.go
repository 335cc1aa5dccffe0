// Package redisbus carries replication frames over Redis pub/sub, one channel per session.
package redisbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/fuubian/Scrabble-sub000/internal/wire"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/redis/go-redis/v9"
)

// LatestTTL bounds how long the newest snapshot of an idle session is kept for late joiners.
const LatestTTL = 24 * time.Hour

// ChannelName returns the pub/sub channel of a session.
func ChannelName(sessionID string) string {
	return "scrabble:" + sessionID
}

// LatestKey returns the key holding the newest snapshot frame of a session.
func LatestKey(sessionID string) string {
	return ChannelName(sessionID) + ":latest"
}

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Bus is one participant's view of a session channel. It implements ports.Network.
type Bus struct {
	client      *redis.Client
	pubsub      *redis.PubSub
	channel     string
	latestKey   string
	participant string
	inbound     chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	logger      runtime.Logger
}

var _ ports.Network = (*Bus)(nil)

// New subscribes participant to the channel of sessionID. The newest snapshot
// published before the subscription is delivered first, then live frames.
// Live frames the participant published itself are not delivered back.
func New(ctx context.Context, client *redis.Client, sessionID, participant string, logger runtime.Logger) (*Bus, error) {
	channel := ChannelName(sessionID)
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	b := &Bus{
		client:      client,
		pubsub:      pubsub,
		channel:     channel,
		latestKey:   LatestKey(sessionID),
		participant: participant,
		inbound:     make(chan []byte, 64),
		done:        make(chan struct{}),
		logger:      logger,
	}

	// Read after subscribing so nothing published in between is lost; a frame
	// seen twice is dropped by the receiver's sequence check.
	latest, err := client.Get(ctx, b.latestKey).Bytes()
	switch {
	case err == nil:
		b.inbound <- latest
	case errors.Is(err, redis.Nil):
	default:
		_ = pubsub.Close()
		return nil, fmt.Errorf("read %s: %w", b.latestKey, err)
	}

	go b.receive()
	return b, nil
}

func (b *Bus) receive() {
	defer close(b.inbound)
	for msg := range b.pubsub.Channel() {
		frame := []byte(msg.Payload)
		if env, err := wire.Unmarshal(frame); err == nil && env.Sender == b.participant {
			continue
		}
		select {
		case b.inbound <- frame:
		case <-b.done:
			return
		}
	}
	b.logger.Debug("Bus.receive: %s unsubscribed from %s", b.participant, b.channel)
}

// Broadcast publishes data. Snapshot frames are also stored as the session's
// latest for participants that subscribe later.
func (b *Bus) Broadcast(ctx context.Context, data []byte) error {
	env, err := wire.Unmarshal(data)
	if err == nil && env.Kind == wire.KindSnapshot {
		_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, b.latestKey, data, LatestTTL)
			pipe.Publish(ctx, b.channel, data)
			return nil
		})
	} else {
		err = b.client.Publish(ctx, b.channel, data).Err()
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", b.channel, err)
	}
	return nil
}

// Inbound is closed after Close.
func (b *Bus) Inbound() <-chan []byte { return b.inbound }

func (b *Bus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.pubsub.Close()
	})
	return err
}
