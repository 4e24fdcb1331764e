package config

import (
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config represents the dplaunch configuration
type Config struct {
	DPRun    DPRun    `mapstructure:"dprun"`
	Callback Callback `mapstructure:"callback"`
	Defaults Defaults `mapstructure:"defaults"`
	Logging  Logging  `mapstructure:"logging"`
}

// DPRun describes how to run the dprun executable
type DPRun struct {
	Executable string `mapstructure:"executable"`
	Shim       string `mapstructure:"shim"`
	UseShim    *bool  `mapstructure:"use_shim"`
	Dir        string `mapstructure:"dir"`
}

// Callback configures the callback server used with the DPRUN provider
type Callback struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Defaults contains default values for session flags
type Defaults struct {
	PlayerName string `mapstructure:"player_name"`
	Provider   string `mapstructure:"provider"`
}

// Logging configures the zap logger
type Logging struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// ShouldUseShim returns whether dprun runs through the shim.
// Defaults to true everywhere but Windows when not explicitly set.
func (d *DPRun) ShouldUseShim() bool {
	if d.UseShim == nil {
		return runtime.GOOS != "windows"
	}
	return *d.UseShim
}

// Load loads the configuration from ~/.dplaunch/config.yaml or returns defaults
func Load() (*Config, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	return load(v)
}

// LoadFile loads the configuration from an explicit file
func LoadFile(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(expanded)

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// Try to read config file, but don't fail if it doesn't exist
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return nil, err
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Expand ~ in paths
	if cfg.DPRun.Dir != "" {
		dir, err := homedir.Expand(cfg.DPRun.Dir)
		if err != nil {
			return nil, err
		}
		cfg.DPRun.Dir = dir
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("dprun.executable", "dprun.exe")
	v.SetDefault("dprun.shim", "wine")
	v.SetDefault("dprun.dir", "")

	v.SetDefault("callback.host", "127.0.0.1")
	v.SetDefault("callback.port", 2197)

	v.SetDefault("defaults.player_name", "")
	v.SetDefault("defaults.provider", "TCPIP")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", false)
}

// ConfigDir returns the dplaunch configuration directory path
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".dplaunch"), nil
}
