package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/playbook/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultDeadline, cfg.Deadline)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.DefaultLogFormat, cfg.LogFormat)
	assert.False(t, cfg.NoColor)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PLAYBOOK_LOG_LEVEL", "debug")
	t.Setenv("PLAYBOOK_DEADLINE", "45m")
	t.Setenv("PLAYBOOK_NO_COLOR", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 45*time.Minute, cfg.Deadline)
	assert.True(t, cfg.NoColor)
}

func TestLoad_InvalidDeadline(t *testing.T) {
	t.Setenv("PLAYBOOK_DEADLINE", "not-a-duration")

	_, err := config.Load()
	require.Error(t, err)
}
