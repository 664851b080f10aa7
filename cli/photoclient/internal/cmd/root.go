// Package cmd implements the CLI commands for a photochain test
// client.
package cmd

import (
	"github.com/photochain-sys/photochain-go/cli"
)

// RootCmd represents the base "photoclient" command when called without
// any subcommands (init, run, ...).
var RootCmd = cli.NewRootCommand("photoclient",
	"photochain test client reference implementation in Go",
	`
 ___  _  _  __  ____  __    ___  _  _   __   __  __ _
(  _ \/ )( \/  \(_  _)/  \  / __)/ )( \ / _\ (  )(  ( \
 ) __/) __ (  O  )( (  O )( (__ ) __ (/    \ )( /    /
(__)  \_/\_/\__/ (__) \__/  \___)\_)(_/\_/\_/(__)\_)__)
`)
