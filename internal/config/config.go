package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"

	"keylightctl/internal/intent"
	"keylightctl/internal/lights"
)

const EnvPrefix = "KEYLIGHTCTL"

// Config holds the defaults the command line can override. Nothing here is
// written back; the tool keeps no state between runs.
type Config struct {
	IPAddress string        `mapstructure:"ip_address"`
	Port      uint16        `mapstructure:"port"`
	Timeout   time.Duration `mapstructure:"timeout"`
	LogLevel  string        `mapstructure:"log_level"`

	// File is the config file that was read, empty if none.
	File string
}

// Load reads path, or the default location when path is empty, and applies
// KEYLIGHTCTL_* environment overrides. A missing default file is not an
// error; a missing explicit one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("ip_address", intent.DefaultAddress)
	v.SetDefault("port", lights.DefaultPort)
	v.SetDefault("timeout", "5s")
	v.SetDefault("log_level", "warn")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	file := path
	if file == "" {
		p, err := DefaultPath()
		if err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				file = p
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.File = file

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Port == 0 {
		return errors.New("port must be set")
	}
	return nil
}

func DefaultPath() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, "Library", "Application Support")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "keylightctl", "config.yaml"), nil
}
