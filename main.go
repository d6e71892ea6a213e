package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run parses args, wires the application and serves until ctx is cancelled.
// Usage text goes to outW and logs to logW. Configuration errors are returned
// before any listener is bound.
func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	cfg, shouldExit, err := parseConfig(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Configuration parsed.", "port", cfg.Port, "wsl", cfg.WSL, "bind", cfg.Bind)

	opener := NewCommandOpener(cfg.Opener, cfg.WSL)
	logger.Debug("URL opener selected.", "command", opener.Name, "args", opener.Args)

	dispatcher := NewDispatcher(opener, logger)
	app := NewApplication(*cfg, dispatcher, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.RedisAddr != "" {
		cache := PrepareCache(cfg.RedisAddr)
		defer cache.Close()
		if err := cache.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		relay := NewRelay(cache, cfg.RedisChannel, dispatcher, logger)
		relayDone := make(chan struct{})
		go func() {
			defer close(relayDone)
			if err := relay.Run(ctx); err != nil {
				logger.Error("Relay stopped.", "error", err)
			}
		}()
		// Runs before cache.Close.
		defer func() {
			cancel()
			<-relayDone
		}()
	}

	if cfg.HealthcheckPort > 0 {
		healthAddr := net.JoinHostPort(cfg.Bind, strconv.Itoa(cfg.HealthcheckPort))
		healthLn, err := net.Listen("tcp", healthAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", healthAddr, err)
		}
		go func() {
			if err := app.ServeHealth(ctx, healthLn); err != nil {
				logger.Error("Health check server failed.", "error", err)
			}
		}()
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}
	return app.Serve(ctx, ln)
}
