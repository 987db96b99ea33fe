package gfx

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"
)

const (
	KhronosValidationLayer = "VK_LAYER_KHRONOS_validation"
	SwapchainExtension     = "VK_KHR_swapchain"
	DebugReportExtension   = "VK_EXT_debug_report"
)

type WindowConfig struct {
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Title     string `toml:"title"`
	Resizable bool   `toml:"resizable"`
}

// Config drives Context creation. The zero value is not usable; start from
// DefaultConfig or LoadConfig.
type Config struct {
	App    AppInfo      `toml:"app"`
	Window WindowConfig `toml:"window"`

	// ValidationLayers are enabled on the instance and device. Empty disables validation.
	ValidationLayers []string `toml:"validation_layers"`
	DeviceExtensions []string `toml:"device_extensions"`
	PresentMode      string   `toml:"present_mode"`
	FramesInFlight   int      `toml:"frames_in_flight"`
	// Debug installs a debug-report callback that forwards validation output to the logger.
	Debug bool `toml:"debug"`

	Logger *slog.Logger `toml:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		App: DefaultAppInfo(),
		Window: WindowConfig{
			Width:     800,
			Height:    600,
			Title:     "gfx",
			Resizable: true,
		},
		ValidationLayers: []string{KhronosValidationLayer},
		DeviceExtensions: []string{SwapchainExtension},
		PresentMode:      "fifo",
		FramesInFlight:   2,
	}
}

// LoadConfig reads a TOML file over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// ParseConfig decodes TOML over DefaultConfig. Unknown keys are an error.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, errors.Newf("unknown config keys:\n%s", strict.String())
		}
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.FramesInFlight < 1 {
		return errors.Newf("frames_in_flight must be at least 1, got %d", c.FramesInFlight)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Newf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if _, err := ParsePresentMode(c.PresentMode); err != nil {
		return err
	}
	return nil
}

// Marshal encodes the config as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// PresentModeValue is PresentMode decoded.
func (c *Config) PresentModeValue() vk.PresentMode {
	mode, err := ParsePresentMode(c.PresentMode)
	if err != nil {
		return vk.PresentModeFifo
	}
	return mode
}

func (c *Config) logger() *slog.Logger {
	if c != nil && c.Logger != nil {
		return c.Logger.With(slog.String("component", "gfx"))
	}
	return logger
}
