package debuglog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// EnvDebug turns on Debugf output when set to "1".
const EnvDebug = "DSNODE_DEBUG"

var (
	mu     sync.Mutex
	out    io.Writer = os.Stderr
	forced atomic.Bool
)

// Enable forces debug output on regardless of the environment.
func Enable() {
	forced.Store(true)
}

func Enabled() bool {
	return forced.Load() || os.Getenv(EnvDebug) == "1"
}

// SetOutput redirects log output and returns a func restoring the previous writer.
func SetOutput(w io.Writer) func() {
	mu.Lock()
	prev := out
	out = w
	mu.Unlock()
	return func() {
		mu.Lock()
		out = prev
		mu.Unlock()
	}
}

// Logf writes one line to the log output. stdout carries protocol records,
// so logs never go there.
func Logf(format string, args ...any) {
	msg := fmt.Sprintf(format+"\n", args...)
	mu.Lock()
	_, _ = io.WriteString(out, msg)
	mu.Unlock()
}

func Debugf(format string, args ...any) {
	if !Enabled() {
		return
	}
	Logf(format, args...)
}
