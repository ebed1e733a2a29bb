// Package main provides audiomodectl, a command-line tool for exploring the
// call audio mode state machine.
//
// Usage:
//
//	audiomodectl [flags] <command> [args]
//
// Commands:
//
//	replay   - Replay YAML call scenarios and report each step
//	table    - Print the transition table for every state and event
//	version  - Print the version
//
// Configuration:
//
//	Settings come from --config (YAML, TOML or JSON) and CALLAUDIO_*
//	environment variables. See the config package for the keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
