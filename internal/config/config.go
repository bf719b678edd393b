package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	keyLoomPath  = "loom_path"
	keyPluginDir = "plugin_dir"
	keyLogLevel  = "log_level"
	keyLogPretty = "log_pretty"
)

// Config is the process configuration, read from LOOM_* environment variables and an optional
// loom.yml in the loom path.
type Config struct {
	v *viper.Viper
}

// Load reads the configuration. A missing config file is not an error. Each call uses its own
// viper instance so tests can load configs side by side.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("loom")
	v.AutomaticEnv()

	if err := v.BindEnv(keyLoomPath, "LOOM_PATH"); err != nil {
		return nil, err
	}
	v.SetDefault(keyLoomPath, "$HOME/.loom")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogPretty, false)

	v.AddConfigPath(os.ExpandEnv(v.GetString(keyLoomPath)))
	v.SetConfigType("yml")
	v.SetConfigName("loom")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return &Config{v: v}, nil
}

func (c *Config) LoomPath() string {
	return os.ExpandEnv(c.v.GetString(keyLoomPath))
}

// PluginDir is where plugin definitions are loaded from, <loom path>/plugins unless set.
func (c *Config) PluginDir() string {
	if dir := c.v.GetString(keyPluginDir); dir != "" {
		return dir
	}
	return filepath.Join(c.LoomPath(), "plugins")
}

func (c *Config) LogLevel() (zerolog.Level, error) {
	return zerolog.ParseLevel(c.v.GetString(keyLogLevel))
}

func (c *Config) LogPretty() bool {
	return c.v.GetBool(keyLogPretty)
}

// ConfigFile returns the path of the config file that was read, if any.
func (c *Config) ConfigFile() string {
	return c.v.ConfigFileUsed()
}
