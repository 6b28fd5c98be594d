// Command evm-wallet holds keys in memory and sends ETH through a JSON-RPC endpoint.
//
// Usage:
//
//	evm-wallet [--network NAME] [--rpc-url URL] [--log-level LEVEL] [--simulate] [menu | serve | lookup HASH]
//
// Without a subcommand the interactive menu starts.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/AlexZinkM/evm-wallet/internal/config"
	"github.com/AlexZinkM/evm-wallet/internal/log"
)

type options struct {
	Network  string `long:"network" description:"Network preset: mainnet, sepolia, holesky or dev (env NETWORK)"`
	RPCURL   string `long:"rpc-url" description:"JSON-RPC endpoint, overrides the preset URL (env RPC_URL)"`
	LogLevel string `long:"log-level" description:"trace, debug, info, warn, error or off (env LOG_LEVEL)"`
	Simulate bool   `long:"simulate" description:"Run against an in-process simulated chain (env SIMULATE)"`
}

var opts options

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses args, executes the selected command and returns the exit code.
func run(args []string) int {
	opts = options{}
	defer log.Close()

	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true

	parser.AddCommand("menu", "Interactive menu", "Create wallets, view details, transfer ETH and list wallets.", &menuCommand{})
	parser.AddCommand("serve", "HTTP JSON API", "Serve the wallet API with Swagger UI at /swagger/.", &serveCommand{})
	parser.AddCommand("lookup", "Look up a transaction", "Report the state of a transaction hash on the endpoint.", &lookupCommand{})

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		// PrintErrors has already reported it, command failures included.
		return 1
	}

	if parser.Active == nil {
		if err := (&menuCommand{}).Execute(nil); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	}
	return 0
}

// loadConfig reads the environment, applies command-line overrides and
// initializes logging. It prompts for the API key when one is needed.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.Network != "" {
		cfg.Network = strings.ToLower(opts.Network)
	}
	if opts.RPCURL != "" {
		cfg.RPCURL = opts.RPCURL
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Simulate {
		cfg.Simulate = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := log.Init(cfg.LogLevel, cfg.LogJSON, cfg.LogFile); err != nil {
		return nil, err
	}
	if cfg.NeedsAPIKey() {
		if err := config.PromptForAPIKey(); err != nil {
			return nil, err
		}
	}
	config.Set(cfg)
	return cfg, nil
}
