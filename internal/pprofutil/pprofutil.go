package pprofutil

import (
	"fmt"
	"io"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	EnvPprof            = "DSNODE_PPROF"
	EnvPprofAddr        = "DSNODE_PPROF_ADDR"
	EnvPprofAllowPublic = "DSNODE_PPROF_ALLOW_PUBLIC"

	defaultAddr = "127.0.0.1:6060"
)

var (
	startOnce sync.Once
	startErr  error
)

// StartFromEnv starts a pprof HTTP server when DSNODE_PPROF=1. Nodes are
// often run many at a time by a harness, so the address defaults to
// loopback and must stay there unless explicitly allowed. The startup line
// names the role and pid so concurrent nodes can be told apart.
func StartFromEnv(logw io.Writer, role string) error {
	if strings.TrimSpace(os.Getenv(EnvPprof)) != "1" {
		return nil
	}
	startOnce.Do(func() {
		addr, err := resolveAddr()
		if err != nil {
			startErr = err
			return
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			startErr = fmt.Errorf("pprof listen failed: %w", err)
			return
		}
		actual := ln.Addr().String()
		if logw != nil {
			fmt.Fprintln(logw, enabledLine(role, os.Getpid(), actual))
		}
		srv := &http.Server{
			Addr:              actual,
			Handler:           http.DefaultServeMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			_ = srv.Serve(ln)
		}()
	})
	return startErr
}

func enabledLine(role string, pid int, addr string) string {
	if role == "" {
		role = "dsnode"
	}
	return fmt.Sprintf("pprof enabled for %s (pid %d): http://%s/debug/pprof/", role, pid, addr)
}

func resolveAddr() (string, error) {
	addr := strings.TrimSpace(os.Getenv(EnvPprofAddr))
	if addr == "" {
		addr = defaultAddr
	}
	allowPublic := strings.TrimSpace(os.Getenv(EnvPprofAllowPublic)) == "1"
	if !allowPublic && !isLoopbackBind(addr) {
		return "", fmt.Errorf("%s must be loopback unless %s=1: %s", EnvPprofAddr, EnvPprofAllowPublic, addr)
	}
	return addr, nil
}

func isLoopbackBind(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	host = strings.TrimSpace(host)
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
