package gfx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{KhronosValidationLayer}, cfg.ValidationLayers)
	assert.Equal(t, []string{SwapchainExtension}, cfg.DeviceExtensions)
	assert.Equal(t, vk.PresentModeFifo, cfg.PresentModeValue())
	assert.Equal(t, 2, cfg.FramesInFlight)
	assert.Equal(t, Version{1, 1, 0}, cfg.App.APIVersion)
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.App.ApplicationName = "viewer"
	cfg.App.ApplicationVersion = Version{2, 5, 1}
	cfg.Debug = true

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "2.5.1")

	parsed, err := ParseConfig(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}

func TestParseConfigOverlaysDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
validation_layers = []
present_mode = "mailbox"

[app]
name = "demo"
api_version = "1.2.0"

[window]
width = 1920
height = 1080
`))
	require.NoError(t, err)
	assert.Empty(t, cfg.ValidationLayers)
	assert.Equal(t, vk.PresentModeMailbox, cfg.PresentModeValue())
	assert.Equal(t, "demo", cfg.App.ApplicationName)
	assert.Equal(t, Version{1, 2, 0}, cfg.App.APIVersion)
	assert.Equal(t, "gfx", cfg.App.EngineName)
	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, "gfx", cfg.Window.Title)
	assert.Equal(t, 2, cfg.FramesInFlight)
}

func TestParseConfigErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":    "colour = 'red'",
		"unknown nested": "[window]\nfullscreen = true",
		"bad version":    "[app]\nversion = '1.2'",
		"bad mode":       "present_mode = 'vsync'",
		"no frames":      "frames_in_flight = 0",
		"zero width":     "[window]\nwidth = 0",
		"malformed toml": "present_mode = ",
		"wrong type":     "frames_in_flight = 'two'",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gfx.toml")
	require.NoError(t, os.WriteFile(path, []byte("frames_in_flight = 3\ndebug = true\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.FramesInFlight)
	assert.True(t, cfg.Debug)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestVersionText(t *testing.T) {
	var v Version
	require.NoError(t, v.UnmarshalText([]byte("1.3.250")))
	assert.Equal(t, Version{1, 3, 250}, v)
	assert.Equal(t, "1.3.250", v.String())

	assert.Error(t, v.UnmarshalText([]byte("1.3")))
	assert.Error(t, v.UnmarshalText([]byte("one.two.three")))
	assert.Equal(t, Version{1, 3, 250}, v, "failed parse leaves the value alone")
}

func TestVersionPacking(t *testing.T) {
	v := Version{1, 2, 3}
	assert.Equal(t, uint32(1<<22|2<<12|3), v.Vk())
	assert.Equal(t, v, VersionFromVk(v.Vk()))
}

func TestDefaultAppInfo(t *testing.T) {
	app := DefaultAppInfo()
	info := app.vulkan()
	assert.Equal(t, "gfx\x00", info.PApplicationName)
	assert.Equal(t, "gfx\x00", info.PEngineName)
	assert.Equal(t, Version{1, 0, 0}.Vk(), info.ApplicationVersion)
	assert.Equal(t, Version{1, 1, 0}.Vk(), info.ApiVersion)
}
