package application

import (
	"fmt"
	"io/ioutil"

	"github.com/photochain-sys/photochain-go/crypto"
	"github.com/photochain-sys/photochain-go/utils"
)

// AppConfig provides an abstraction of the
// underlying encoding format for the configs.
type AppConfig interface {
	Load(file, encoding string) error
	Save() error
	GetPath() string
}

// CommonConfig is the generic type used to specify the configuration of
// any kind of photochain application-level executable (e.g. photo
// server, client etc.). It contains some common configuration
// values including the file path, logger configuration, and config
// loader.
type CommonConfig struct {
	Path     string
	Logger   *LoggerConfig `toml:"logger"`
	Encoding string
	loader   ConfigLoader
}

// NewCommonConfig initializes an application's config file path,
// its loader for the given encoding, and the logger configuration.
// Note: This constructor must be called in each Load() method
// implementation of an AppConfig.
func NewCommonConfig(file, encoding string, logger *LoggerConfig) *CommonConfig {
	return &CommonConfig{
		Path:     file,
		Logger:   logger,
		Encoding: encoding,
		loader:   newConfigLoader(encoding),
	}
}

// GetLoader returns the config's loader.
func (conf *CommonConfig) GetLoader() ConfigLoader {
	return conf.loader
}

// LoadUserSecret loads a user secret at the given path specified in the
// given config file. If the file cannot be read or the secret is
// malformed, LoadUserSecret() returns an error with a nil secret.
func LoadUserSecret(path, file string) (*crypto.UserSecret, error) {
	secretPath := utils.ResolvePath(path, file)
	secretBytes, err := ioutil.ReadFile(secretPath)
	if err != nil {
		return nil, fmt.Errorf("Cannot read user secret: %v", err)
	}
	if len(secretBytes) != crypto.UserSecretSize {
		return nil, fmt.Errorf("User secret must be %d bytes (got %d)",
			crypto.UserSecretSize, len(secretBytes))
	}
	return crypto.NewUserSecret(secretBytes)
}
