package cmd

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/photochain-sys/photochain-go/application/client"
	"github.com/photochain-sys/photochain-go/cli"
	"github.com/photochain-sys/photochain-go/crypto"
	"github.com/photochain-sys/photochain-go/utils"
)

var initCmd = cli.NewInitCommand("photochain test client", mkConfigOrExit)

func init() {
	RootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("dir", "d", ".",
		"Location of directory for storing generated files")
	initCmd.Flags().StringP("username", "u", "",
		"Username the device acts for")
}

func mkConfigOrExit(cmd *cobra.Command, args []string) {
	dir := cmd.Flag("dir").Value.String()
	username := cmd.Flag("username").Value.String()
	file := path.Join(dir, "config.toml")

	secret, err := crypto.MakeRand()
	if err != nil {
		fmt.Println("Couldn't generate a user secret. Error message: [" +
			err.Error() + "]")
		os.Exit(-1)
	}
	if err := utils.WriteFile(path.Join(dir, "user.secret"), secret, 0600); err != nil {
		fmt.Println("Couldn't save the user secret. Error message: [" +
			err.Error() + "]")
		os.Exit(-1)
	}

	conf := client.NewConfig(file, "toml", username, "user.secret",
		"tcp://127.0.0.1:3000")
	conf.SkipVerify = true
	if err := conf.Save(); err != nil {
		fmt.Println("Couldn't save config. Error message: [" +
			err.Error() + "]")
		os.Exit(-1)
	}
}
