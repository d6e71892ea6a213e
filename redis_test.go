package main

import (
	"context"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRelay(opener Opener, logs *safeBuffer) *Relay {
	logger := newLogger("debug", "text", logs)
	return NewRelay(PrepareCache("127.0.0.1:0"), "iou:open", NewDispatcher(opener, logger), logger)
}

func TestRelay_HandleMessage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		payload  string
		wantURLs []string
		wantLog  string
	}{
		{name: "valid payload", payload: `{"url":"https://example.com"}`, wantURLs: []string{"https://example.com"}},
		{name: "malformed payload", payload: `https://example.com`, wantLog: "Dropped malformed relay message."},
		{name: "missing url", payload: `{}`, wantLog: "Dropped malformed relay message."},
		{name: "empty url", payload: `{"url":""}`, wantURLs: []string{""}},
		{name: "trailing garbage", payload: `{"url":"https://a.example"}xyz`, wantLog: "Dropped malformed relay message."},
		{name: "two json values", payload: `{"url":"https://a.example"}{"url":"https://b.example"}`, wantLog: "Dropped malformed relay message."},
		{name: "key with wrong case", payload: `{"URL":"https://a.example"}`, wantLog: "Dropped malformed relay message."},
		{name: "invalid utf-8", payload: "{\"url\":\"https://a.example/\xff\"}", wantLog: "Dropped malformed relay message."},
		{
			name:    "oversized payload",
			payload: `{"url":"https://example.com/` + strings.Repeat("a", maxBodySize) + `"}`,
			wantLog: "Dropped oversized relay message.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			logs := &safeBuffer{}
			opener := &recordingOpener{}
			relay := newTestRelay(opener, logs)

			// --- Act ---
			relay.handleMessage(context.Background(), tc.payload)

			// --- Assert ---
			require.Equal(t, tc.wantURLs, opener.URLs())
			if tc.wantLog != "" {
				require.Contains(t, logs.String(), tc.wantLog)
				require.Contains(t, logs.String(), "channel=iou:open")
			}
		})
	}
}

func TestRelay_RunFailsWithoutRedis(t *testing.T) {
	t.Parallel()

	relay := newTestRelay(&recordingOpener{}, &safeBuffer{})

	err := relay.Run(context.Background())

	require.Error(t, err)
	require.Contains(t, err.Error(), "subscribe to iou:open")
}

func TestRelay_ConsumeReportsRunningOpensOnShutdown(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	logs := &safeBuffer{}
	opener := &recordingOpener{block: make(chan struct{})}
	relay := newTestRelay(opener, logs)
	msgs := make(chan *redis.Message, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.consume(ctx, msgs)
	}()

	// --- Act ---
	msgs <- &redis.Message{Channel: "iou:open", Payload: `{"url":"https://example.com"}`}
	require.Eventually(t, func() bool { return len(opener.URLs()) == 1 }, eventuallyWait, eventuallyTick)
	require.Equal(t, 1, relay.InFlight())
	cancel()
	<-done

	// --- Assert ---
	require.Contains(t, logs.String(), "Relay stopped with URL opens still running.")
	require.Contains(t, logs.String(), "in_flight=1")
	require.Equal(t, []string{"https://example.com"}, opener.URLs())

	close(opener.block)
	require.Eventually(t, func() bool { return relay.InFlight() == 0 }, eventuallyWait, eventuallyTick)
}

func TestRelay_ConsumeStopsWhenChannelCloses(t *testing.T) {
	t.Parallel()

	logs := &safeBuffer{}
	opener := &recordingOpener{}
	relay := newTestRelay(opener, logs)
	msgs := make(chan *redis.Message, 1)
	msgs <- &redis.Message{Channel: "iou:open", Payload: `{"url":"https://example.com"}`}
	close(msgs)

	relay.consume(context.Background(), msgs)

	require.Eventually(t, func() bool { return len(opener.URLs()) == 1 }, eventuallyWait, eventuallyTick)
	require.Eventually(t, func() bool { return relay.InFlight() == 0 }, eventuallyWait, eventuallyTick)
}
