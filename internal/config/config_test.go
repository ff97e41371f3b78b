// File: internal/config/config_test.go
package config

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// A 4x4 grid against a local vision model out of the box.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 4, cfg.Grid.Rows)
	assert.Equal(t, 4, cfg.Grid.Cols)
	assert.Equal(t, ProviderOllama, cfg.Model.Provider)
	assert.Equal(t, "llama3.2-vision", cfg.Model.Model)
	assert.Equal(t, 120*time.Second, cfg.Model.APITimeout)
	assert.False(t, cfg.Resolver.Strict)
	assert.Equal(t, BackendDesktop, cfg.Capture.Backend)
	assert.Equal(t, []string{"import", "-window", "root", "{output}"}, cfg.Capture.Command)
	assert.Equal(t, DialogConsole, cfg.Dialog.Kind)
	assert.Equal(t, time.Duration(0), cfg.Dialog.ConfirmTimeout)
	assert.Equal(t, "screen.png", cfg.Artifacts.Screenshot)
	assert.Equal(t, "screen_grid.png", cfg.Artifacts.Overlay)
	assert.True(t, cfg.Executor.Humanoid.Enabled)

	require.NoError(t, cfg.Validate(), "defaults must validate")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Grid Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Grid.Rows = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rows and cols must be positive integers")

		cfg = NewDefaultConfig()
		cfg.Grid.Cols = -3
		assert.Error(t, cfg.Validate())
	})

	t.Run("Model Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Model.Provider = "carrier-pigeon"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown provider")

		cfg = NewDefaultConfig()
		cfg.Model.Provider = ProviderGemini
		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")

		cfg.Model.APIKey = "key"
		assert.NoError(t, cfg.Validate())

		cfg.Model.Model = "  "
		assert.Error(t, cfg.Validate())
	})

	t.Run("Capture Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Capture.Command = nil
		assert.Error(t, cfg.Validate())

		cfg.Capture.Image = "saved.png"
		assert.NoError(t, cfg.Validate(), "a replay image needs no capture command")

		cfg = NewDefaultConfig()
		cfg.Capture.ScreenWidth = 1920
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("Browser Backend Requires URL", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Executor.Backend = BackendBrowser
		cfg.Browser.URL = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.url is required")
	})

	t.Run("Dialog Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Dialog.Kind = "telepathy"
		assert.Error(t, cfg.Validate())

		cfg = NewDefaultConfig()
		cfg.Dialog.ConfirmTimeout = -time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("Humanoid Validation", func(t *testing.T) {
		h := HumanoidConfig{Enabled: true, StepsPerSecond: 100, ClickHoldMinMs: 100, ClickHoldMaxMs: 50}
		assert.Error(t, h.Validate())

		h.Enabled = false
		assert.NoError(t, h.Validate(), "disabled humanoid is not validated")

		h = HumanoidConfig{Enabled: true, StepsPerSecond: 0}
		assert.Error(t, h.Validate())
	})
}

// -- Viper Integration Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("YAML overrides defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		yaml := []byte(`
grid:
  rows: 6
  cols: 8
model:
  model: llava
  api_timeout: 45s
resolver:
  strict: true
dialog:
  kind: zenity
  confirm_timeout: 30s
`)
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yaml)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 6, cfg.Grid.Rows)
		assert.Equal(t, 8, cfg.Grid.Cols)
		assert.Equal(t, "llava", cfg.Model.Model)
		assert.Equal(t, 45*time.Second, cfg.Model.APITimeout)
		assert.True(t, cfg.Resolver.Strict)
		assert.Equal(t, DialogZenity, cfg.Dialog.Kind)
		assert.Equal(t, 30*time.Second, cfg.Dialog.ConfirmTimeout)
	})

	t.Run("API key from environment", func(t *testing.T) {
		t.Setenv("GRIDPOINT_MODEL_API_KEY", "env-key")
		v := viper.New()
		SetDefaults(v)
		v.Set("model.provider", "gemini")
		v.Set("model.model", "gemini-2.5-flash")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "env-key", cfg.Model.APIKey)
	})

	t.Run("Environment overrides keys without a non-zero default", func(t *testing.T) {
		t.Setenv("GRIDPOINT_GRID_ROWS", "6")
		t.Setenv("GRIDPOINT_CAPTURE_SCREEN_WIDTH", "1440")
		t.Setenv("GRIDPOINT_CAPTURE_SCREEN_HEIGHT", "900")
		t.Setenv("GRIDPOINT_BROWSER_EXEC_PATH", "/opt/chrome/chrome")
		t.Setenv("GRIDPOINT_MODEL_MAX_TOKENS", "32")
		v := viper.New()
		SetDefaults(v)
		v.SetEnvPrefix("GRIDPOINT")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 6, cfg.Grid.Rows)
		assert.Equal(t, 1440, cfg.Capture.ScreenWidth)
		assert.Equal(t, 900, cfg.Capture.ScreenHeight)
		assert.Equal(t, "/opt/chrome/chrome", cfg.Browser.ExecPath)
		assert.Equal(t, 32, cfg.Model.MaxTokens)
	})

	t.Run("Invalid configuration is rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("grid.rows", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Nil(t, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

// Every field of Config must be reachable from the environment, which in
// viper means every leaf key has a default.
func TestSetDefaults_CoversEveryKey(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	known := map[string]bool{}
	for _, k := range v.AllKeys() {
		known[k] = true
	}

	for _, key := range leafKeys(reflect.TypeOf(Config{}), "") {
		if key == "model.api_key" {
			continue // bound explicitly in NewConfigFromViper
		}
		assert.True(t, known[key], "no default registered for %s", key)
	}
}

func leafKeys(typ reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		name := f.Tag.Get("mapstructure")
		if name == "" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			keys = append(keys, leafKeys(f.Type, name)...)
			continue
		}
		keys = append(keys, name)
	}
	return keys
}
