// Command ensemble runs a declarative team of roles against a user
// request and prints the resulting message history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ensembleai/ensemble/pkg/config"
	"github.com/ensembleai/ensemble/pkg/telemetry"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.LoadWithProfile(global.ConfigPath, global.Profile)
	if err != nil {
		fatal(err)
	}
	telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitWithConfig("ensemble", version, telemetry.Config{
			Exporter:     cfg.Telemetry.Exporter,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure: true,
		})
		if err != nil {
			fatal(err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
			}
		}()
	}

	switch args[0] {
	case "run":
		if err := runCommand(ctx, cfg, global, args[1:]); err != nil {
			fatal(err)
		}
	case "validate":
		if err := validateCommand(global, args[1:]); err != nil {
			fatal(err)
		}
	case "version":
		fmt.Println("ensemble", version)
	case "help":
		printUsage()
	default:
		fatal(fmt.Errorf("unknown command %q", args[0]))
	}
}

type globalFlags struct {
	ConfigPath string
	Profile    string
	RosterPath string
	Help       bool
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	var flags globalFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if len(arg) == 0 || arg[0] != '-' {
			return flags, args[i:], nil
		}
		if arg == "-h" || arg == "--help" {
			flags.Help = true
			return flags, nil, nil
		}
		if i+1 >= len(args) {
			return flags, nil, fmt.Errorf("missing value for %s", arg)
		}
		switch arg {
		case "--config":
			flags.ConfigPath = args[i+1]
		case "--profile":
			flags.Profile = args[i+1]
		case "--roster":
			flags.RosterPath = args[i+1]
		default:
			return flags, nil, fmt.Errorf("unknown flag %q", arg)
		}
		i++
	}
	return flags, nil, nil
}

func printUsage() {
	fmt.Print(`ensemble - run a team of roles against a request

Usage:
  ensemble [flags] <command> [args]

Commands:
  run <request>   seed the team with a request and run it to completion
  validate        parse the roster manifest and report problems
  version         print the version
  help            print this help

Flags:
  --config <path>   configuration file (yaml)
  --profile <name>  config profile overlay (config.<name>.yaml)
  --roster <path>   team roster manifest (yaml, required for run/validate)
`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
