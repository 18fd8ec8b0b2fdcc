// Command fcmcp installs and updates the FreeCAD MCP add-on and registers
// its bridge with the claude CLI.
package main

import (
	"context"
	"os"

	"github.com/contextform/fcmcp/internal/cli"
)

func main() {
	os.Exit(cli.Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
