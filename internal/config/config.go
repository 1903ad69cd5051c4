// Package config loads runner-wide settings from a config file and
// environment variables, following the viper wiring the teacher's
// bb/cmd/bb/commands/root.go uses for its own global config: a config
// file discovered from a search path, overridden by explicitly-set
// environment variables via viper.AutomaticEnv.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces every environment override, so PLAYBOOK_LOG_LEVEL
	// maps to the log_level key and so on.
	EnvPrefix = "PLAYBOOK"

	DefaultConfigName = "playbookctl"
	DefaultDeadline   = 2 * time.Hour
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Config holds the settings a playbookctl run reads before a playbook is
// even loaded: how long a workflow may run, how verbose to log, and
// whether to force a particular output format regardless of terminal
// detection.
type Config struct {
	Deadline time.Duration
	LogLevel string
	LogFormat string
	NoColor  bool
}

// Load reads settings from the named config file (if present on viper's
// search path), then applies PLAYBOOK_*-prefixed environment overrides,
// the same config-file-then-env precedence as the teacher's initConfig.
// A missing config file is not an error; a malformed one is.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(DefaultConfigName)
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	v.SetDefault("deadline", DefaultDeadline.String())
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("no_color", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	deadline, err := time.ParseDuration(v.GetString("deadline"))
	if err != nil {
		return nil, fmt.Errorf("invalid deadline %q: %w", v.GetString("deadline"), err)
	}

	return &Config{
		Deadline:  deadline,
		LogLevel:  strings.ToLower(v.GetString("log_level")),
		LogFormat: strings.ToLower(v.GetString("log_format")),
		NoColor:   v.GetBool("no_color"),
	}, nil
}
