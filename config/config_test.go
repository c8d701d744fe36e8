package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, filepath.Join(t.TempDir(), "missing.env"), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "Cult Whitefield", cfg.Center)
	assert.Equal(t, "07:00 AM", cfg.Time)
	assert.False(t, cfg.Headless)
	assert.Equal(t, time.Second, cfg.SlowMo)
	assert.Equal(t, 10*time.Second, cfg.HoldOpen)
	assert.Equal(t, 5*time.Minute, cfg.LoginWait)
	assert.Equal(t, "user_data", filepath.Base(cfg.ProfileDir))
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CULT_CENTER", "Cult HSR")
	t.Setenv("CULT_TIME", "06:00 AM")
	t.Setenv("CULT_HEADLESS", "true")

	cfg, err := Load([]string{"-time", "08:00 pm", "-slow-mo", "250ms"}, "", io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "Cult HSR", cfg.Center)
	assert.Equal(t, "08:00 PM", cfg.Time, "normalised to upper case")
	assert.True(t, cfg.Headless)
	assert.Equal(t, 250*time.Millisecond, cfg.SlowMo)
}

func TestLoadDotEnv(t *testing.T) {
	env := writeFile(t, ".env", "CULT_CENTER=Cult Koramangala\nCULT_PREFLIGHT=1\n")
	t.Setenv("CULT_CENTER", "")
	os.Unsetenv("CULT_CENTER")
	t.Cleanup(func() { os.Unsetenv("CULT_PREFLIGHT") })

	cfg, err := Load(nil, env, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "Cult Koramangala", cfg.Center)
	assert.True(t, cfg.Preflight)
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"time without meridiem", []string{"-time", "07:00"}, nil},
		{"24h time", []string{"-time", "19:00 PM"}, nil},
		{"empty center", []string{"-center", "  "}, nil},
		{"log level", []string{"-log-level", "trace"}, nil},
		{"env bool", nil, map[string]string{"CULT_HEADLESS": "maybe"}},
		{"env duration", nil, map[string]string{"CULT_SLOW_MO": "fast"}},
		{"unknown flag", []string{"-nope"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.args, "", io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestLoadTimeErrorIsTyped(t *testing.T) {
	_, err := Load([]string{"-time", "7am"}, "", io.Discard)
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestLoadHelp(t *testing.T) {
	_, err := Load([]string{"-h"}, "", io.Discard)
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func TestLoginSkipsTimeValidation(t *testing.T) {
	cfg, err := Load([]string{"-login", "-time", ""}, "", io.Discard)
	require.NoError(t, err)
	assert.True(t, cfg.Login)
}

func TestLoadOverrides(t *testing.T) {
	path := writeFile(t, "landmarks.yaml", `
landmarks:
  date_cell: ".day-pill"
  confirm_pattern: "CONFIRM|PAY NOW"
timings:
  search_results: 20s
  poll: 100ms
`)
	o, err := LoadOverrides(path)
	require.NoError(t, err)

	assert.Equal(t, ".day-pill", o.Landmarks.DateCell)
	assert.Equal(t, "CONFIRM|PAY NOW", o.Landmarks.ConfirmPattern)
	assert.Empty(t, o.Landmarks.TimeRow)
	assert.Equal(t, 20*time.Second, o.Timings.SearchResults)
	assert.Equal(t, 100*time.Millisecond, o.Timings.Poll)
}

func TestLoadOverridesErrors(t *testing.T) {
	empty, err := LoadOverrides("")
	require.NoError(t, err)
	assert.Equal(t, &Overrides{}, empty)

	blank, err := LoadOverrides(writeFile(t, "blank.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, &Overrides{}, blank)

	_, err = LoadOverrides(writeFile(t, "typo.yaml", "landmarks:\n  date_cel: x\n"))
	assert.Error(t, err)

	_, err = LoadOverrides(writeFile(t, "bad.yaml", "landmarks:\n  book_pattern: \"(\"\n"))
	assert.Error(t, err)

	_, err = LoadOverrides(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
