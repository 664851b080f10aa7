// Package client provides the application-level config and network
// transport used by photochain client executables.
package client

import (
	"github.com/photochain-sys/photochain-go/application"
	"github.com/photochain-sys/photochain-go/crypto"
)

// Config contains the client's configuration needed to send requests
// to a photochain server: the user this device acts for, the path to
// the 32-byte user secret file, and the server's address.
//
// SkipVerify disables TLS certificate verification and is meant for
// setups using the self-signed certificate generated by "init".
type Config struct {
	*application.CommonConfig

	Username   string `toml:"username"`
	SecretPath string `toml:"secret_path"`

	UserSecret *crypto.UserSecret `toml:"-"`

	Address    string `toml:"address"`
	SkipVerify bool   `toml:"skip_verify,omitempty"`
}

var _ application.AppConfig = (*Config)(nil)

// NewConfig initializes a new client configuration at the
// given file path, with the given config encoding, username,
// user secret path, and server address.
func NewConfig(file, encoding, username, secretPath,
	serverAddr string) *Config {
	var conf = Config{
		CommonConfig: application.NewCommonConfig(file, encoding, nil),
		Username:     username,
		SecretPath:   secretPath,
		Address:      serverAddr,
	}

	return &conf
}

// Load initializes a client's configuration from the given file
// using the given encoding.
// It reads the user secret file and parses the actual secret.
func (conf *Config) Load(file, encoding string) error {
	conf.CommonConfig = application.NewCommonConfig(file, encoding, nil)
	if err := conf.GetLoader().Decode(conf); err != nil {
		return err
	}

	secret, err := application.LoadUserSecret(conf.SecretPath, file)
	if err != nil {
		return err
	}
	conf.UserSecret = secret

	return nil
}

// Save writes a client's configuration.
func (conf *Config) Save() error {
	return conf.GetLoader().Encode(conf)
}

// GetPath returns the client's configuration file path.
func (conf *Config) GetPath() string {
	return conf.Path
}
