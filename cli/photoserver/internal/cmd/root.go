// Package cmd implements the CLI commands for a photochain server.
package cmd

import (
	"github.com/photochain-sys/photochain-go/cli"
)

// RootCmd represents the base "photoserver" command when called without any subcommands.
var RootCmd = cli.NewRootCommand("photoserver",
	"photochain server reference implementation in Go",
	`
 ___  _  _  __  ____  __    ___  _  _   __   __  __ _
(  _ \/ )( \/  \(_  _)/  \  / __)/ )( \ / _\ (  )(  ( \
 ) __/) __ (  O  )( (  O )( (__ ) __ (/    \ )( /    /
(__)  \_/\_/\__/ (__) \__/  \___)\_)(_/\_/\_/(__)\_)__)
`)
