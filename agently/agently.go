// Command agently runs the agent orchestration runtime: serve the HTTP chat
// API, run a one-shot OAuth token refresh pass, or inspect configured MCP
// servers.
package main

import (
	"fmt"
	"os"

	"github.com/viant/agentrt/cmd/agently"
)

func main() {
	if err := agently.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
