package cmd

import (
	"log"
	"path"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/photochain-sys/photochain-go/application"
	"github.com/photochain-sys/photochain-go/application/server"
	"github.com/photochain-sys/photochain-go/application/testutil"
	"github.com/photochain-sys/photochain-go/cli"
)

// initCmd represents the init command
var initCmd = cli.NewInitCommand("photochain server", initRunFunc)

func init() {
	RootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("dir", "d", ".", "Location of directory for storing generated files")
	initCmd.Flags().BoolP("cert", "c", false, "Generate self-signed ssl keys/cert with sane defaults")
}

func initRunFunc(cmd *cobra.Command, args []string) {
	dir := cmd.Flag("dir").Value.String()
	mkConfig(dir)

	cert, err := strconv.ParseBool(cmd.Flag("cert").Value.String())
	if err == nil && cert {
		if err := testutil.CreateTLSCert(dir); err != nil {
			log.Println(err)
		}
	}
}

func mkConfig(dir string) {
	file := path.Join(dir, "config.toml")
	addrs := []*server.Address{
		{
			ServerAddress: &application.ServerAddress{
				Address: "unix:///tmp/photochain.sock",
			},
			AllowRegistration: true,
		},
		{
			ServerAddress: &application.ServerAddress{
				Address:     "tcp://0.0.0.0:3000",
				TLSCertPath: "server.pem",
				TLSKeyPath:  "server.key",
			},
			AllowRegistration: true,
		},
	}
	logger := &application.LoggerConfig{
		EnableStacktrace: true,
		Environment:      "development",
		Path:             "photoserver.log",
	}

	conf := server.NewConfig(file, "toml", addrs, logger, "photochain.db")
	if err := conf.Save(); err != nil {
		log.Println(err)
	}
}
