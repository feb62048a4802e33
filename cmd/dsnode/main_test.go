package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	code := run([]string{"--help"}, strings.NewReader(""), &out, &out)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out.String(), "dsnode") || !strings.Contains(out.String(), "broadcast") {
		t.Fatalf("expected help output to list roles, got %q", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"gossip"}, strings.NewReader(""), &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "unknown command: gossip") {
		t.Fatalf("expected unknown command message, got %q", stderr.String())
	}
}

func TestEchoRoleOverStdio(t *testing.T) {
	color.NoColor = true
	in := strings.Join([]string{
		`{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1"]}}`,
		`{"src":"c1","dest":"n1","body":{"type":"echo","msg_id":2,"echo":"hi"}}`,
	}, "\n") + "\n"
	var stdout, stderr bytes.Buffer
	if code := run([]string{"echo"}, strings.NewReader(in), &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, stderr.String())
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 replies, got %q", stdout.String())
	}
	if !strings.Contains(lines[1], `"type":"echo_ok"`) || !strings.Contains(lines[1], `"echo":"hi"`) {
		t.Fatalf("unexpected echo reply %q", lines[1])
	}
}

func TestRelayRequiresAddr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"relay"}, strings.NewReader(""), &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "missing --addr") {
		t.Fatalf("expected missing addr message, got %q", stderr.String())
	}
}
