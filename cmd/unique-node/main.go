// Command unique-node runs the unique role on stdin/stdout. It takes no required
// arguments so it can be handed directly to the test harness.
package main

import (
	"os"

	"dsnode/internal/app"
)

func main() {
	os.Exit(app.RunRole(app.RoleUnique, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
