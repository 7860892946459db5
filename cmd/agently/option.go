// Package agently is the CLI entrypoint wiring CredentialStore,
// ProviderRouter, ToolRegistry, MCPRegistry, AgentLoop and TokenRefreshWorker
// together. Grounded on the teacher's cmd/agently package: a go-flags root
// Options struct with one pointer field per sub-command.
package agently

import "github.com/jessevdk/go-flags"

// Options is the root command grouping every sub-command.
type Options struct {
	Config string `short:"f" long:"config" description:"runtime config YAML path" default:"agently.yaml"`

	Serve         *ServeCmd         `command:"serve" description:"Run the HTTP chat server with MCP registry and refresh worker"`
	RefreshTokens *RefreshTokensCmd `command:"refresh-tokens" description:"Run one OAuth token refresh pass"`
	MCP           *MCPCmd           `command:"mcp" description:"Inspect and diagnose configured MCP servers"`
}

// Init instantiates the sub-command referenced by the first CLI argument so
// go-flags can populate its fields.
func (o *Options) Init(firstArg string) {
	switch firstArg {
	case "serve":
		o.Serve = &ServeCmd{}
	case "refresh-tokens":
		o.RefreshTokens = &RefreshTokensCmd{}
	case "mcp":
		o.MCP = &MCPCmd{}
	}
}

// Run parses args and executes the selected command.
func Run(args []string) error {
	var first string
	if len(args) > 0 {
		first = args[0]
	}
	opts := &Options{}
	opts.Init(first)

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	_, err := parser.ParseArgs(args)
	return err
}
