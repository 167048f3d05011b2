package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/mdscribe/internal/config/loader"
)

// Config holds all mdscribe settings.
type Config struct {
	Editor  EditorConfig  `toml:"editor"`
	Voice   VoiceConfig   `toml:"voice"`
	Render  RenderConfig  `toml:"render"`
	Watch   WatchConfig   `toml:"watch"`
	Logging LoggingConfig `toml:"logging"`
}

// EditorConfig holds document editing settings.
type EditorConfig struct {
	CursorTracking string `toml:"cursorTracking"`
	LoadCursor     string `toml:"loadCursor"`
	WelcomeFile    string `toml:"welcomeFile"`
}

// VoiceConfig holds voice command settings.
type VoiceConfig struct {
	PreviewPartials bool   `toml:"previewPartials"`
	PartialMarker   string `toml:"partialMarker"`
}

// RenderConfig holds HTML preview settings.
type RenderConfig struct {
	HardWraps  bool     `toml:"hardWraps"`
	Unsafe     bool     `toml:"unsafe"`
	Extensions []string `toml:"extensions"`
}

// WatchConfig holds external change detection settings.
type WatchConfig struct {
	Enabled    bool `toml:"enabled"`
	DebounceMs int  `toml:"debounceMs"`
}

// Debounce returns the debounce interval.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Editor: EditorConfig{
			CursorTracking: "caret",
			LoadCursor:     "start",
		},
		Voice: VoiceConfig{
			PreviewPartials: true,
			PartialMarker:   "~",
		},
		Render: RenderConfig{
			Unsafe: true,
		},
		Watch: WatchConfig{
			DebounceMs: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Option configures Load.
type Option func(*options)

type options struct {
	path    string
	fs      loader.FileSystem
	environ []string
	useEnv  bool
}

// WithPath sets the settings file. An empty path skips the file layer.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithFileSystem sets the file system used to read the settings file.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithEnviron replaces the process environment, mainly for tests.
func WithEnviron(environ []string) Option {
	return func(o *options) {
		o.environ = environ
	}
}

// WithoutEnv disables environment overrides.
func WithoutEnv() Option {
	return func(o *options) {
		o.useEnv = false
	}
}

// DefaultPath returns the user settings file path.
func DefaultPath() string {
	if p := os.Getenv(loader.DefaultEnvPrefix + "CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mdscribe", "config.toml")
}

// Load builds a Config from defaults, the settings file and the environment.
// A missing settings file is not an error.
func Load(opts ...Option) (Config, error) {
	o := options{
		path:   DefaultPath(),
		fs:     loader.DefaultFS(),
		useEnv: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	merged, err := toMap(Default())
	if err != nil {
		return Config{}, err
	}

	fileLayer, err := loader.NewTOMLLoaderWithFS(o.fs, o.path).Load()
	if err != nil {
		return Config{}, err
	}
	merged = loader.DeepMerge(merged, fileLayer)

	if o.useEnv {
		env := loader.NewEnvLoader(loader.DefaultEnvPrefix)
		if o.environ != nil {
			env = loader.NewEnvLoaderWithEnviron(loader.DefaultEnvPrefix, o.environ)
		}
		envLayer, err := env.Load()
		if err != nil {
			return Config{}, err
		}
		merged = loader.DeepMerge(merged, envLayer)
	}

	cfg, err := fromMap(merged)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes a settings document layered over the defaults.
func Parse(data []byte) (Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return Config{}, err
	}
	layer, err := loader.Parse("<input>", data)
	if err != nil {
		return Config{}, err
	}
	cfg, err := fromMap(loader.DeepMerge(merged, layer))
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks enumerated and ranged settings.
func (c Config) Validate() error {
	checks := []struct {
		path    string
		value   string
		allowed []string
	}{
		{"editor.cursorTracking", c.Editor.CursorTracking, []string{"caret", "end"}},
		{"editor.loadCursor", c.Editor.LoadCursor, []string{"start", "end"}},
		{"logging.level", c.Logging.Level, []string{"debug", "info", "warn", "error"}},
	}
	for _, chk := range checks {
		if !slices.Contains(chk.allowed, strings.ToLower(chk.value)) {
			return &ValidationError{
				Path:    chk.path,
				Value:   chk.value,
				Message: "must be one of " + strings.Join(chk.allowed, ", "),
			}
		}
	}
	if c.Watch.DebounceMs < 0 {
		return &ValidationError{Path: "watch.debounceMs", Value: c.Watch.DebounceMs, Message: "must not be negative"}
	}
	if c.Voice.PartialMarker == "" {
		return &ValidationError{Path: "voice.partialMarker", Value: `""`, Message: "must not be empty"}
	}
	return nil
}

// String renders the configuration as TOML.
func (c Config) String() string {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}

func toMap(c Config) (map[string]any, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return m, nil
}

func fromMap(m map[string]any) (Config, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return Config{}, fmt.Errorf("encoding config: %w", err)
	}
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}
