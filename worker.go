package main

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/alphadose/haxmap"
)

// Dispatcher hands open requests to an Opener on a best-effort basis and
// keeps track of the opens that are still running.
type Dispatcher struct {
	opener   Opener
	logger   *slog.Logger
	seq      atomic.Uint64
	inFlight *haxmap.Map[uint64, OpenRequest]
}

func NewDispatcher(opener Opener, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		opener:   opener,
		logger:   logger,
		inFlight: haxmap.New[uint64, OpenRequest](),
	}
}

// Dispatch runs the opener for req and blocks until it returns. Failures are
// logged and never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req OpenRequest) {
	id := d.seq.Add(1)
	d.inFlight.Set(id, req)
	defer d.inFlight.Del(id)

	logger := d.logger.With("open_id", id, "url", req.URL)
	logger.DebugContext(ctx, "Opening URL.")

	start := time.Now()
	err := d.opener.Open(req.URL)
	elapsed := time.Since(start)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		logger.DebugContext(ctx, "URL opened.", "elapsed", elapsed)
	case errors.As(err, &exitErr):
		logger.WarnContext(ctx, "URL opener exited with a non-zero status.", "exit_code", exitErr.ExitCode(), "elapsed", elapsed)
	default:
		logger.ErrorContext(ctx, "Failed to run URL opener.", "error", err)
	}
}

// InFlight reports how many opens are currently running.
func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Len())
}

// InFlightURLs lists the URLs whose opens are still running, in no order.
func (d *Dispatcher) InFlightURLs() []string {
	var urls []string
	d.inFlight.ForEach(func(_ uint64, req OpenRequest) bool {
		urls = append(urls, req.URL)
		return true
	})
	return urls
}
