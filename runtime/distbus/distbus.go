// Package distbus provides a Redis Streams-backed EventBus for fanning a
// run's AgentEvents out across processes, for deployments where subscribers
// (a dashboard, an audit sink) live outside the process driving the run.
// It mirrors runtime.EventBus's publish/subscribe shape but trades the
// in-memory channel fan-out for a durable, replayable stream per run.
package distbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/contract"
)

const defaultStreamMaxLen = 10_000

// Options configures a distributed Bus.
type Options struct {
	// Redis is the connection events are published to and read from. Required.
	Redis *redis.Client
	// KeyPrefix namespaces stream keys, defaulting to "abp:events:".
	KeyPrefix string
	// StreamMaxLen approximately caps each stream's length via XADD's MAXLEN
	// trimming. Zero uses defaultStreamMaxLen.
	StreamMaxLen int64
}

// Bus publishes and replays AgentEvents over a Redis stream, one stream per
// run id.
type Bus struct {
	redis     *redis.Client
	keyPrefix string
	maxLen    int64
}

// New constructs a Bus. Returns an error if opts.Redis is nil.
func New(opts Options) (*Bus, error) {
	if opts.Redis == nil {
		return nil, abperrors.New(abperrors.ConfigInvalid, "distbus: redis client is required")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "abp:events:"
	}
	maxLen := opts.StreamMaxLen
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &Bus{redis: opts.Redis, keyPrefix: prefix, maxLen: maxLen}, nil
}

func (b *Bus) streamKey(runID string) string { return b.keyPrefix + runID }

// Publish appends event to the stream for runID, trimming older entries
// beyond the configured max length.
func (b *Bus) Publish(ctx context.Context, runID string, event contract.AgentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return abperrors.Wrap(abperrors.Internal, "distbus: marshal event", err)
	}
	err = b.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: b.streamKey(runID),
		MaxLen: b.maxLen,
		Approx: true,
		Values: map[string]any{"payload": payload},
	}).Err()
	if err != nil {
		return abperrors.Wrap(abperrors.Internal, "distbus: publish event", err)
	}
	return nil
}

// Subscription reads events from a run's stream starting at a given entry
// id ("0" for the beginning, "$" for only new entries).
type Subscription struct {
	bus       *Bus
	runID     string
	lastID    string
	pollEvery time.Duration
}

// Subscribe opens a subscription to runID's stream starting at lastID
// (use "0" to replay from the beginning, "$" to see only events published
// from this point on).
func (b *Bus) Subscribe(runID, lastID string) *Subscription {
	if lastID == "" {
		lastID = "$"
	}
	return &Subscription{bus: b, runID: runID, lastID: lastID, pollEvery: 500 * time.Millisecond}
}

// Next blocks until an event arrives or ctx is cancelled, returning the
// decoded event and advancing the subscription's cursor.
func (s *Subscription) Next(ctx context.Context) (contract.AgentEvent, error) {
	for {
		result, err := s.bus.redis.XRead(ctx, &redis.XReadArgs{
			Streams: []string{s.bus.streamKey(s.runID), s.lastID},
			Count:   1,
			Block:   s.pollEvery,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				select {
				case <-ctx.Done():
					return contract.AgentEvent{}, ctx.Err()
				default:
					continue
				}
			}
			return contract.AgentEvent{}, abperrors.Wrap(abperrors.Internal, "distbus: read stream", err)
		}
		for _, stream := range result {
			for _, msg := range stream.Messages {
				s.lastID = msg.ID
				raw, ok := msg.Values["payload"].(string)
				if !ok {
					return contract.AgentEvent{}, abperrors.Newf(abperrors.Internal, "distbus: message %s missing payload", msg.ID)
				}
				var event contract.AgentEvent
				if err := json.Unmarshal([]byte(raw), &event); err != nil {
					return contract.AgentEvent{}, abperrors.Wrap(abperrors.Internal, "distbus: unmarshal event", err)
				}
				return event, nil
			}
		}
	}
}

// Destroy deletes the entire stream for runID.
func (b *Bus) Destroy(ctx context.Context, runID string) error {
	if err := b.redis.Del(ctx, b.streamKey(runID)).Err(); err != nil {
		return abperrors.Wrap(abperrors.Internal, "distbus: destroy stream", err)
	}
	return nil
}

// StreamLen reports the current length of runID's stream, for diagnostics.
func (b *Bus) StreamLen(ctx context.Context, runID string) (int64, error) {
	n, err := b.redis.XLen(ctx, b.streamKey(runID)).Result()
	if err != nil {
		return 0, abperrors.Wrap(abperrors.Internal, fmt.Sprintf("distbus: stream length for %s", runID), err)
	}
	return n, nil
}
