package cmd

import (
	"github.com/photochain-sys/photochain-go/cli"
)

var versionCmd = cli.NewVersionCommand("photoserver")

func init() {
	RootCmd.AddCommand(versionCmd)
}
