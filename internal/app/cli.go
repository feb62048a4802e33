package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"dsnode/internal/debuglog"
	"dsnode/internal/metrics"
	"dsnode/internal/network"
	"dsnode/internal/pprofutil"
)

const (
	EnvMetrics         = "DSNODE_METRICS"
	EnvMaxConnsPerIP   = "DSNODE_MAX_CONNS_PER_IP"
	EnvMaxStreamsPerIP = "DSNODE_MAX_STREAMS_PER_IP"

	defaultMaxConnsPerIP   = 16
	defaultMaxStreamsPerIP = 64
)

type roleConfig struct {
	debug       bool
	metricsPath string
	listen      string
	devTLS      bool
	limits      network.ListenOptions
}

func parseRoleFlags(role string, args []string, stderr io.Writer) (roleConfig, error) {
	var cfg roleConfig
	fs := flag.NewFlagSet(role, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&cfg.debug, "debug", false, "enable debug logging on stderr")
	fs.StringVar(&cfg.metricsPath, "metrics", os.Getenv(EnvMetrics), "write a metrics snapshot to this path on exit")
	fs.StringVar(&cfg.listen, "listen", "", "serve sessions over QUIC on host:port instead of stdio")
	fs.BoolVar(&cfg.devTLS, "devtls", false, "allow the deterministic dev TLS certificate (unsafe)")
	fs.IntVar(&cfg.limits.MaxConnsPerIP, "max-conns-per-ip", envInt(EnvMaxConnsPerIP, defaultMaxConnsPerIP), "concurrent connections per remote ip, 0 for no limit")
	fs.IntVar(&cfg.limits.MaxStreamsPerIP, "max-streams-per-ip", envInt(EnvMaxStreamsPerIP, defaultMaxStreamsPerIP), "concurrent sessions per remote ip, 0 for no limit")
	err := fs.Parse(args)
	return cfg, err
}

// RunRole is the entry point shared by every node binary. It serves the
// role on stdio unless --listen is given, and returns the process exit code.
func RunRole(role string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseRoleFlags(role, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if !KnownRole(role) {
		Fail(stderr, fmt.Errorf("%w: %s", ErrUnknownRole, role))
		return 1
	}
	if cfg.debug {
		debuglog.Enable()
	}
	if err := pprofutil.StartFromEnv(stderr, role); err != nil {
		Fail(stderr, err)
		return 1
	}

	m := metrics.New()
	if cfg.listen != "" {
		if !cfg.devTLS {
			fmt.Fprintln(stderr, "dev TLS disabled by default; pass --devtls to enable")
			return 1
		}
		err = serveRole(role, cfg.listen, cfg.limits, m, stdout, stderr)
	} else {
		err = Session(role, stdin, stdout, m)
	}
	if werr := m.WriteSnapshot(cfg.metricsPath); werr != nil && err == nil {
		err = fmt.Errorf("write metrics: %w", werr)
	}
	if err != nil {
		Fail(stderr, err)
		return 1
	}
	return 0
}

func serveRole(role, addr string, limits network.ListenOptions, m *metrics.Metrics, stdout, stderr io.Writer) error {
	ln, err := network.Listen(addr, limits)
	if err != nil {
		return err
	}
	defer ln.Close()
	banner(stderr, role, ln.Addr().String(), limits)
	fmt.Fprintf(stdout, "READY addr=%s role=%s\n", ln.Addr(), role)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Serve(ctx, ln, role, m)
}

// RunRelay connects stdio to a remote node started with --listen.
func RunRelay(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("relay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "", "remote node addr (host:port)")
	insecure := fs.Bool("insecure", false, "skip TLS verification")
	caPath := fs.String("ca", "", "PEM file to trust instead of the dev certificate")
	debug := fs.Bool("debug", false, "enable debug logging on stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *addr == "" {
		fmt.Fprintln(stderr, "missing --addr")
		return 1
	}
	if *debug {
		debuglog.Enable()
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := Relay(ctx, *addr, network.DialOptions{Insecure: *insecure, CAPath: *caPath}, stdin, stdout); err != nil {
		Fail(stderr, err)
		return 1
	}
	return 0
}

func banner(w io.Writer, role, addr string, limits network.ListenOptions) {
	color.New(color.Bold).Fprintf(w, "dsnode %s\n", role)
	fmt.Fprintf(w, "  Listen: %s (quic)\n", addr)
	fmt.Fprintf(w, "  Limits: conns/ip=%s sessions/ip=%s\n", limitText(limits.MaxConnsPerIP), limitText(limits.MaxStreamsPerIP))
	color.New(color.FgYellow).Fprintln(w, "  WARNING: using deterministic dev TLS certificate")
}

func limitText(n int) string {
	if n <= 0 {
		return "unlimited"
	}
	return strconv.Itoa(n)
}

// Fail prints err as a single highlighted line.
func Fail(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "error:")
	fmt.Fprintf(w, " %v\n", err)
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		debuglog.Logf("ignoring %s=%q: %v", key, raw, err)
		return def
	}
	return v
}
