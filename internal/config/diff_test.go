package config_test

import (
	"slices"
	"testing"
	"time"

	"github.com/MrWong99/greeni/internal/config"
)

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	return mustLoad(t, sampleYAML)
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	d := config.Diff(baseConfig(t), baseConfig(t))
	if d.Changed() {
		t.Errorf("expected no changes, got %+v", d)
	}
}

func TestDiff_LogLevelOnly(t *testing.T) {
	t.Parallel()
	old, cur := baseConfig(t), baseConfig(t)
	cur.Server.LogLevel = config.LogWarn

	d := config.Diff(old, cur)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogWarn {
		t.Errorf("log level diff = %+v", d)
	}
	if len(d.RestartRequired) != 0 {
		t.Errorf("log level change should not require restart: %v", d.RestartRequired)
	}
}

func TestDiff_RestartRequiredSections(t *testing.T) {
	t.Parallel()
	old, cur := baseConfig(t), baseConfig(t)
	cur.Server.ListenAddr = ":9999"
	cur.Providers.LLM.Model = "gpt-4o"
	cur.Dialogue.SessionIdleTTL = time.Hour
	cur.Providers.TTS.Options = map[string]any{"key_id": "other"}

	d := config.Diff(old, cur)
	if d.LogLevelChanged {
		t.Error("log level did not change")
	}
	want := []string{"server", "providers", "dialogue"}
	if !slices.Equal(d.RestartRequired, want) {
		t.Errorf("RestartRequired = %v, want %v", d.RestartRequired, want)
	}
}
