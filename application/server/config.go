// Package server implements the application-level photochain server
// executable: its configuration and the network front end over the
// photo service.
package server

import (
	"github.com/photochain-sys/photochain-go/application"
	"github.com/photochain-sys/photochain-go/utils"
)

// An Address describes a server's connection.
// It makes the server connections configurable
// so that a deployment can expose separate endpoints,
// e.g. a local socket for administration and a public
// TCP endpoint for clients.
//
// Allowing registration has to be specified explicitly for each
// connection. Other types of requests are allowed by default.
type Address struct {
	*application.ServerAddress
	AllowRegistration bool `toml:"allow_registration,omitempty"`
}

// A Config contains configuration values
// which are read at initialization time from
// a TOML format configuration file.
type Config struct {
	*application.CommonConfig
	// DatabasePath is the directory holding the server's LevelDB
	// store. An empty path runs the server on a volatile in-memory
	// store, which is only useful for tests and demos.
	DatabasePath string `toml:"database_path,omitempty"`
	// Addresses contains the server's connections configuration.
	Addresses []*Address `toml:"addresses"`
}

var _ application.AppConfig = (*Config)(nil)

// NewConfig initializes a new server configuration with the given
// server addresses, logger configuration and database path.
func NewConfig(file, encoding string, addrs []*Address,
	logConfig *application.LoggerConfig, dbPath string) *Config {
	var conf = Config{
		CommonConfig: application.NewCommonConfig(file, encoding, logConfig),
		DatabasePath: dbPath,
		Addresses:    addrs,
	}

	return &conf
}

// Load initializes a server configuration from the given file using
// the given encoding. It updates the path of the TLS certificate files
// of each Address, the log file and the database directory to absolute
// paths.
func (conf *Config) Load(file, encoding string) error {
	conf.CommonConfig = application.NewCommonConfig(file, encoding, nil)
	if err := conf.GetLoader().Decode(conf); err != nil {
		return err
	}

	for _, addr := range conf.Addresses {
		if addr.TLSCertPath != "" {
			addr.TLSCertPath = utils.ResolvePath(addr.TLSCertPath, file)
		}
		if addr.TLSKeyPath != "" {
			addr.TLSKeyPath = utils.ResolvePath(addr.TLSKeyPath, file)
		}
	}
	if conf.Logger != nil && conf.Logger.Path != "" {
		conf.Logger.Path = utils.ResolvePath(conf.Logger.Path, file)
	}
	if conf.DatabasePath != "" {
		conf.DatabasePath = utils.ResolvePath(conf.DatabasePath, file)
	}

	return nil
}

// Save writes a server's configuration.
func (conf *Config) Save() error {
	return conf.GetLoader().Encode(conf)
}

// GetPath returns the server's configuration file path.
func (conf *Config) GetPath() string {
	return conf.Path
}
