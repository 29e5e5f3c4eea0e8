// Package config loads the umbra CLI configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. UMBRA_LOG_LEVEL.
const EnvPrefix = "UMBRA"

// PathEnv names the environment variable holding an explicit config file.
const PathEnv = "UMBRA_CONFIG"

// Config holds CLI configuration.
type Config struct {
	// Format is the document format used for stdin/stdout and for paths
	// whose extension is not recognised.
	Format string `mapstructure:"format"`

	Log   LogConfig   `mapstructure:"log"`
	Watch WatchConfig `mapstructure:"watch"`
	S3    S3Config    `mapstructure:"s3"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// WatchConfig holds settings of the watch command.
type WatchConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Debounce     time.Duration `mapstructure:"debounce"`
}

// S3Config holds settings for s3:// paths.
type S3Config struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() Config {
	return Config{
		Format: "json",
		Log:    LogConfig{Level: "info"},
		Watch: WatchConfig{
			PollInterval: 30 * time.Second,
			Debounce:     100 * time.Millisecond,
		},
	}
}

// Load reads configuration from file and env. The file is path, else
// $UMBRA_CONFIG, else ~/.config/umbra/config.yaml. A missing default file is
// not an error; a missing explicit one is.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("format", def.Format)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("watch.poll_interval", def.Watch.PollInterval)
	v.SetDefault("watch.debounce", def.Watch.Debounce)
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.endpoint", "")

	explicit := path
	if explicit == "" {
		explicit = os.Getenv(PathEnv)
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigType("yaml")
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "umbra"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Format = strings.ToLower(c.Format)
	return c, nil
}
