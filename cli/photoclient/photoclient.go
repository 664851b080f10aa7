// Executable photochain test client. See README for
// usage instructions.
package main

import (
	"github.com/photochain-sys/photochain-go/cli"
	"github.com/photochain-sys/photochain-go/cli/photoclient/internal/cmd"
)

func main() {
	cli.Execute(cmd.RootCmd)
}
