// Command vcspilot wires a Jujutsu or Git repository into Claude Code's
// tool-use lifecycle and tidies the commit history it produces.
package main

import (
	"fmt"
	"os"

	"github.com/vcspilot/vcspilot/internal/commands"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := commands.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
