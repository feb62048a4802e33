// Command broadcast-node runs the broadcast role on stdin/stdout. It takes no required
// arguments so it can be handed directly to the test harness.
package main

import (
	"os"

	"dsnode/internal/app"
)

func main() {
	os.Exit(app.RunRole(app.RoleBroadcast, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
