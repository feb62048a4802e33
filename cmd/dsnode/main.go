package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"dsnode/internal/app"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(stdout)
		return 0
	}
	switch args[0] {
	case app.RoleEcho, app.RoleUnique, app.RoleBroadcast:
		return app.RunRole(args[0], args[1:], stdin, stdout, stderr)
	case "relay":
		return app.RunRelay(args[1:], stdin, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[0])
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "usage: dsnode <%s|relay> [args]\n", strings.Join(app.Roles, "|"))
	fmt.Fprintln(w, "  <role>  [--debug] [--metrics <path>] [--listen <host:port> --devtls] [--max-conns-per-ip <n>] [--max-streams-per-ip <n>]")
	fmt.Fprintln(w, "  relay   --addr <host:port> [--insecure] [--ca <pem>] [--debug]")
	fmt.Fprintln(w, "A role reads one JSON message per line on stdin and writes replies to stdout.")
}
