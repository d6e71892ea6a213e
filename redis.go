package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Relay opens URLs published on a Redis pub/sub channel. Payloads use the same
// JSON shape and size limit as HTTP bodies.
type Relay struct {
	client     *redis.Client
	channel    string
	dispatcher *Dispatcher
	logger     *slog.Logger
	active     atomic.Int64
}

func NewRelay(client *redis.Client, channel string, dispatcher *Dispatcher, logger *slog.Logger) *Relay {
	return &Relay{
		client:     client,
		channel:    channel,
		dispatcher: dispatcher,
		logger:     logger.With("logger", "iou.relay", "channel", channel),
	}
}

// Run subscribes to the channel and dispatches messages until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}
	r.logger.Info("Relay subscribed.")

	r.consume(ctx, pubsub.Channel())
	return nil
}

// consume handles each message in its own goroutine until ctx is done or msgs
// closes, then reports opens that are still running.
func (r *Relay) consume(ctx context.Context, msgs <-chan *redis.Message) {
	defer func() {
		if n := r.active.Load(); n > 0 {
			r.logger.Warn("Relay stopped with URL opens still running.", "in_flight", n)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			r.active.Add(1)
			go func(payload string) {
				defer r.active.Add(-1)
				r.handleMessage(ctx, payload)
			}(msg.Payload)
		}
	}
}

// InFlight reports how many relayed messages are still being handled.
func (r *Relay) InFlight() int {
	return int(r.active.Load())
}

func (r *Relay) handleMessage(ctx context.Context, payload string) {
	if len(payload) > maxBodySize {
		r.logger.Warn("Dropped oversized relay message.", "size", len(payload))
		return
	}
	req, err := decodeOpenRequest(io.NopCloser(strings.NewReader(payload)))
	if err != nil {
		r.logger.Warn("Dropped malformed relay message.", "error", err)
		return
	}
	r.dispatcher.Dispatch(ctx, req)
}
