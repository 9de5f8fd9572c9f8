package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-thermo/internal/config"
)

func TestConfigPath(t *testing.T) {
	env := func(v string) func(string) string {
		return func(string) string { return v }
	}

	assert.Equal(t, "a.yaml", configPath([]string{"thermopoller", "a.yaml"}, env("b.yaml")))
	assert.Equal(t, "b.yaml", configPath([]string{"thermopoller"}, env("b.yaml")))
	assert.Equal(t, "", configPath([]string{"thermopoller"}, env("")))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, loadDotEnv(filepath.Join(dir, "absent.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("THERMO_TEST_DOTENV=yes\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("THERMO_TEST_DOTENV") })

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "yes", os.Getenv("THERMO_TEST_DOTENV"))
}

func TestNewLogger_Levels(t *testing.T) {
	ctx := context.Background()
	assert.True(t, newLogger("debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, newLogger("info").Enabled(ctx, slog.LevelDebug))
	assert.False(t, newLogger("error").Enabled(ctx, slog.LevelWarn))
}

func TestOpenPin(t *testing.T) {
	pin, err := openPin(config.IndicatorConfig{Driver: "none"})
	require.NoError(t, err)
	assert.NoError(t, pin.Drive(true))

	_, err = openPin(config.IndicatorConfig{Driver: "pwm"})
	assert.Error(t, err)
}

// An unreachable bus is an initialization failure: run must return an error
// and leave the indicator low.
func TestRun_FailsStopOnBusOpen(t *testing.T) {
	cfg := &config.Config{
		Bus:     config.BusConfig{Transport: "tcp", Endpoint: "127.0.0.1:1", TimeoutMs: 200},
		Sensors: []config.SensorConfig{{SlaveID: 1}},
	}
	require.NoError(t, config.Validate(cfg))
	config.Normalize(cfg)

	err := run(context.Background(), cfg, slog.Default())
	assert.Error(t, err)
}
