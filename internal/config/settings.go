package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	appDirName     = "goaltracker"
	settingsFile   = "goaltracker.yaml"
	defaultBaseURL = "http://localhost:8080/api/v1"
)

// Settings holds the terminal client configuration.
type Settings struct {
	BaseURL         string
	CredentialsPath string
	CryptoKey       string
	RequestTimeout  time.Duration
	VerifyOnBoot    bool
	LogLevel        string
	LogFile         string

	// Path is the settings file that was read (or created).
	Path string
}

// ConfigDir resolves $XDG_CONFIG_HOME/goaltracker, falling back to
// ~/.config/goaltracker.
func ConfigDir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// LoadSettings reads the YAML settings file at path, creating it with the
// defaults when it does not exist. Environment variables prefixed with
// GOALTRACKER_ override file values. An empty path uses ConfigDir.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, settingsFile)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GOALTRACKER")
	v.AutomaticEnv()

	v.SetDefault("base_url", defaultBaseURL)
	v.SetDefault("credentials_path", filepath.Join(filepath.Dir(path), "credentials.yaml"))
	v.SetDefault("crypto_key", "")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("verify_on_boot", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", filepath.Join(filepath.Dir(path), "goaltracker.log"))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("write default settings: %w", err)
		}
	}

	return &Settings{
		BaseURL:         v.GetString("base_url"),
		CredentialsPath: v.GetString("credentials_path"),
		CryptoKey:       v.GetString("crypto_key"),
		RequestTimeout:  v.GetDuration("request_timeout"),
		VerifyOnBoot:    v.GetBool("verify_on_boot"),
		LogLevel:        v.GetString("log_level"),
		LogFile:         v.GetString("log_file"),
		Path:            path,
	}, nil
}
