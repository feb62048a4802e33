package debuglog

import (
	"bytes"
	"strings"
	"testing"
)

func TestDebugfGatedByEnv(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	t.Setenv(EnvDebug, "0")
	Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("expected no debug output, got %q", buf.String())
	}

	t.Setenv(EnvDebug, "1")
	Debugf("shown %d", 2)
	if got := buf.String(); got != "shown 2\n" {
		t.Fatalf("unexpected debug output: %q", got)
	}
}

func TestLogfAlwaysWrites(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()
	t.Setenv(EnvDebug, "")

	Logf("session %s failed", "n1")
	if !strings.Contains(buf.String(), "session n1 failed") {
		t.Fatalf("expected log line, got %q", buf.String())
	}
}
