package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPort         = "3756"
	defaultBind         = "0.0.0.0"
	defaultRedisChannel = "iou:open"
)

// Config is captured once at startup and never mutated afterwards.
type Config struct {
	Port   uint16
	WSL    bool
	Bind   string
	Opener string

	CORSOrigins []string

	RedisAddr    string
	RedisChannel string

	HealthcheckPort int
	LogLevel        string
	LogFormat       string
}

// Addr is the host:port the URL listener binds to.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(int(c.Port)))
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// parseConfig parses command-line arguments. The boolean result is true when
// the caller should exit cleanly without starting, e.g. after printing help.
func parseConfig(args []string, out io.Writer) (*Config, bool, error) {
	fs := flag.NewFlagSet("iou", flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		cfg     Config
		port    string
		origins stringList
	)

	fs.StringVar(&port, "port", defaultPort, "What port to listen on")
	fs.StringVar(&port, "p", defaultPort, "Shorthand for --port")
	fs.BoolVar(&cfg.WSL, "wsl", false, "Special flag for running in WSL")
	fs.BoolVar(&cfg.WSL, "w", false, "Shorthand for --wsl")
	fs.StringVar(&cfg.Bind, "bind", defaultBind, "Interface to listen on")
	fs.StringVar(&cfg.Opener, "opener", "", "URL opener executable (default depends on the OS)")
	fs.Var(&origins, "cors-origin", "Origin allowed to post URLs from a browser (repeatable)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address to relay open requests from (disabled when empty)")
	fs.StringVar(&cfg.RedisChannel, "redis-channel", defaultRedisChannel, "Redis pub/sub channel carrying open requests")
	fs.IntVar(&cfg.HealthcheckPort, "healthcheck-port", 0, "Port for the /health endpoint (disabled when 0)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")

	fs.Usage = func() {
		fmt.Fprintln(out, "Usage: iou [flags]")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Listens for POSTed {\"url\": \"...\"} bodies and opens each URL on this host.")
		fmt.Fprintln(out)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, err
	}
	if fs.NArg() > 0 {
		return nil, false, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	// A single leading '+' is allowed, e.g. "-p +3756".
	p, err := strconv.ParseUint(strings.TrimPrefix(port, "+"), 10, 16)
	if err != nil {
		return nil, false, fmt.Errorf("invalid value %q for --port: %w", port, err)
	}
	cfg.Port = uint16(p)

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, fmt.Errorf("invalid value %q for --log-level", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, false, fmt.Errorf("invalid value %q for --log-format", cfg.LogFormat)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, false, fmt.Errorf("invalid value %d for --healthcheck-port", cfg.HealthcheckPort)
	}
	if cfg.RedisAddr != "" && cfg.RedisChannel == "" {
		return nil, false, errors.New("--redis-channel must not be empty when --redis-addr is set")
	}

	cfg.CORSOrigins = origins
	return &cfg, false, nil
}

// PrepareCache initializes the Redis client used by the relay
func PrepareCache(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}
