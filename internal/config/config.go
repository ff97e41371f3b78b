// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. A Config is passed
// explicitly into the pipeline; nothing in it is process-wide state, so
// several configurations (e.g. different grids per display) can coexist.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Grid      GridConfig      `mapstructure:"grid" yaml:"grid"`
	Model     ModelConfig     `mapstructure:"model" yaml:"model"`
	Resolver  ResolverConfig  `mapstructure:"resolver" yaml:"resolver"`
	Capture   CaptureConfig   `mapstructure:"capture" yaml:"capture"`
	Executor  ExecutorConfig  `mapstructure:"executor" yaml:"executor"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Dialog    DialogConfig    `mapstructure:"dialog" yaml:"dialog"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// GridConfig defines the Set-of-Mark grid and how it is drawn.
type GridConfig struct {
	Rows       int    `mapstructure:"rows" yaml:"rows"`
	Cols       int    `mapstructure:"cols" yaml:"cols"`
	LineWidth  int    `mapstructure:"line_width" yaml:"line_width"`
	Color      string `mapstructure:"color" yaml:"color"`
	LabelScale int    `mapstructure:"label_scale" yaml:"label_scale"`
}

// ModelProvider defines the supported vision model providers.
type ModelProvider string

const (
	ProviderOllama ModelProvider = "ollama"
	ProviderGemini ModelProvider = "gemini"
)

// ModelConfig defines the vision-language model used for grounding.
type ModelConfig struct {
	Provider   ModelProvider `mapstructure:"provider" yaml:"provider"`
	Model      string        `mapstructure:"model" yaml:"model"`
	APIKey     string        `mapstructure:"api_key" yaml:"-"`
	Endpoint   string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	// Proxy routes model traffic through an HTTP(S) proxy URL. Empty uses the
	// HTTPS_PROXY/HTTP_PROXY environment.
	Proxy              string  `mapstructure:"proxy" yaml:"proxy"`
	InsecureSkipVerify bool    `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Temperature        float32 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens          int     `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// ResolverConfig selects how model answers are parsed.
type ResolverConfig struct {
	// Strict requires the first token of the answer to be the number.
	// The default tolerant policy concatenates every digit in the answer.
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// Backend names shared by capture and executor.
const (
	BackendDesktop = "desktop"
	BackendBrowser = "browser"
)

// CaptureConfig selects how screenshots are taken.
type CaptureConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Command is the desktop capture command. The literal {output} is replaced
	// with the path of a temporary PNG file the command must write.
	Command []string      `mapstructure:"command" yaml:"command"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Image replays a saved PNG instead of capturing the live screen.
	Image string `mapstructure:"image" yaml:"image"`
	// ScreenWidth/ScreenHeight override the logical screen size used to scale
	// coordinates from screenshot space. Zero means no scaling.
	ScreenWidth  int `mapstructure:"screen_width" yaml:"screen_width"`
	ScreenHeight int `mapstructure:"screen_height" yaml:"screen_height"`
}

// ExecutorConfig selects how the approved click is performed.
type ExecutorConfig struct {
	Backend  string         `mapstructure:"backend" yaml:"backend"`
	Xdotool  string         `mapstructure:"xdotool" yaml:"xdotool"`
	Humanoid HumanoidConfig `mapstructure:"humanoid" yaml:"humanoid"`
}

// BrowserConfig holds settings for the browser backend.
type BrowserConfig struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	Headless       bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath       string        `mapstructure:"exec_path" yaml:"exec_path"`
	ViewportWidth  int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	LoadTimeout    time.Duration `mapstructure:"load_timeout" yaml:"load_timeout"`
	Args           []string      `mapstructure:"args" yaml:"args"`
}

// Dialog kinds.
const (
	DialogConsole = "console"
	DialogZenity  = "zenity"
	DialogTUI     = "tui"
)

// DialogConfig selects the human interaction surface.
type DialogConfig struct {
	Kind   string `mapstructure:"kind" yaml:"kind"`
	Zenity string `mapstructure:"zenity" yaml:"zenity"`
	// ConfirmTimeout bounds the wait for a decision. Zero waits indefinitely.
	// An expired wait is a denial.
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout" yaml:"confirm_timeout"`
}

// ArtifactsConfig controls where screenshots are written. Files are
// overwritten on every run.
type ArtifactsConfig struct {
	Dir        string `mapstructure:"dir" yaml:"dir"`
	Screenshot string `mapstructure:"screenshot" yaml:"screenshot"`
	Overlay    string `mapstructure:"overlay" yaml:"overlay"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
// Every key needs a default: Unmarshal only consults the environment for keys
// viper already knows about.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "gridpoint")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Grid --
	v.SetDefault("grid.rows", 4)
	v.SetDefault("grid.cols", 4)
	v.SetDefault("grid.line_width", 2)
	v.SetDefault("grid.color", "red")
	v.SetDefault("grid.label_scale", 2)

	// -- Model --
	v.SetDefault("model.provider", string(ProviderOllama))
	v.SetDefault("model.model", "llama3.2-vision")
	v.SetDefault("model.endpoint", "")
	v.SetDefault("model.api_timeout", "120s")
	v.SetDefault("model.proxy", "")
	v.SetDefault("model.insecure_skip_verify", false)
	v.SetDefault("model.temperature", 0.0)
	// Zero leaves the output cap to the provider; Ollama applies its own small cap.
	v.SetDefault("model.max_tokens", 0)

	// -- Resolver --
	v.SetDefault("resolver.strict", false)

	// -- Capture --
	v.SetDefault("capture.backend", BackendDesktop)
	v.SetDefault("capture.command", []string{"import", "-window", "root", "{output}"})
	v.SetDefault("capture.timeout", "15s")
	v.SetDefault("capture.image", "")
	v.SetDefault("capture.screen_width", 0)
	v.SetDefault("capture.screen_height", 0)

	// -- Executor --
	v.SetDefault("executor.backend", BackendDesktop)
	v.SetDefault("executor.xdotool", "xdotool")
	setHumanoidDefaults(v)

	// -- Browser --
	v.SetDefault("browser.url", "about:blank")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 800)
	v.SetDefault("browser.load_timeout", "30s")

	// -- Dialog --
	v.SetDefault("dialog.kind", DialogConsole)
	v.SetDefault("dialog.zenity", "zenity")
	v.SetDefault("dialog.confirm_timeout", "0s")

	// -- Artifacts --
	v.SetDefault("artifacts.dir", ".")
	v.SetDefault("artifacts.screenshot", "screen.png")
	v.SetDefault("artifacts.overlay", "screen_grid.png")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	_ = v.BindEnv("model.api_key", "GRIDPOINT_MODEL_API_KEY", "GEMINI_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("grid configuration invalid: %w", err)
	}
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model configuration invalid: %w", err)
	}
	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture configuration invalid: %w", err)
	}
	if err := c.Executor.Validate(); err != nil {
		return fmt.Errorf("executor configuration invalid: %w", err)
	}
	if c.usesBrowser() && strings.TrimSpace(c.Browser.URL) == "" {
		return fmt.Errorf("browser.url is required when a browser backend is selected")
	}
	switch c.Dialog.Kind {
	case DialogConsole, DialogZenity, DialogTUI:
	default:
		return fmt.Errorf("dialog.kind must be one of [%s %s %s], got '%s'", DialogConsole, DialogZenity, DialogTUI, c.Dialog.Kind)
	}
	if c.Dialog.ConfirmTimeout < 0 {
		return fmt.Errorf("dialog.confirm_timeout must not be negative")
	}
	if c.Artifacts.Screenshot == "" || c.Artifacts.Overlay == "" {
		return fmt.Errorf("artifacts.screenshot and artifacts.overlay must be set")
	}
	return nil
}

func (c *Config) usesBrowser() bool {
	return c.Capture.Backend == BackendBrowser || c.Executor.Backend == BackendBrowser
}

// Validate checks the grid dimensions.
func (g *GridConfig) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("rows and cols must be positive integers (got %dx%d)", g.Rows, g.Cols)
	}
	if g.LineWidth < 0 {
		return fmt.Errorf("line_width must not be negative")
	}
	return nil
}

// Validate checks the model settings.
func (m *ModelConfig) Validate() error {
	if strings.TrimSpace(m.Model) == "" {
		return fmt.Errorf("model name is required")
	}
	switch m.Provider {
	case ProviderOllama:
	case ProviderGemini:
		if m.APIKey == "" {
			return fmt.Errorf("an API key is required for provider '%s'. Ensure GRIDPOINT_MODEL_API_KEY is set", m.Provider)
		}
	default:
		return fmt.Errorf("unknown provider '%s'. Supported: [%s %s]", m.Provider, ProviderOllama, ProviderGemini)
	}
	return nil
}

// Validate checks the capture backend.
func (c *CaptureConfig) Validate() error {
	switch c.Backend {
	case BackendDesktop:
		if len(c.Command) == 0 && c.Image == "" {
			return fmt.Errorf("capture.command is required for the desktop backend")
		}
	case BackendBrowser:
	default:
		return fmt.Errorf("unknown capture backend '%s'", c.Backend)
	}
	if (c.ScreenWidth == 0) != (c.ScreenHeight == 0) {
		return fmt.Errorf("screen_width and screen_height must be set together")
	}
	return nil
}

// Validate checks the executor backend and humanoid settings.
func (e *ExecutorConfig) Validate() error {
	switch e.Backend {
	case BackendDesktop, BackendBrowser:
	default:
		return fmt.Errorf("unknown executor backend '%s'", e.Backend)
	}
	return e.Humanoid.Validate()
}
