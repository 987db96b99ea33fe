package gfx

import (
	"fmt"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Version is a Vulkan style major.minor.patch triple. It reads and writes
// itself as "1.2.3" in config files.
type Version struct {
	Major, Minor, Patch uint32
}

// Vk packs the version the way VK_MAKE_VERSION does.
func (v Version) Vk() uint32 {
	return v.Major<<22 | v.Minor<<12 | v.Patch
}

// VersionFromVk unpacks a vkMakeVersion value.
func VersionFromVk(v uint32) Version {
	return Version{Major: v >> 22, Minor: (v >> 12) & 0x3ff, Patch: v & 0xfff}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(text []byte) error {
	var out Version
	n, err := fmt.Sscanf(string(text), "%d.%d.%d", &out.Major, &out.Minor, &out.Patch)
	if err != nil || n != 3 {
		return errors.Newf("gfx: malformed version %q, want major.minor.patch", text)
	}
	*v = out
	return nil
}

// AppInfo feeds VkApplicationInfo.
type AppInfo struct {
	ApplicationName    string  `toml:"name"`
	ApplicationVersion Version `toml:"version"`
	EngineName         string  `toml:"engine"`
	EngineVersion      Version `toml:"engine_version"`
	APIVersion         Version `toml:"api_version"`
}

// DefaultAppInfo targets Vulkan 1.1.
func DefaultAppInfo() AppInfo {
	return AppInfo{
		ApplicationName:    "gfx",
		ApplicationVersion: Version{1, 0, 0},
		EngineName:         "gfx",
		EngineVersion:      Version{1, 0, 0},
		APIVersion:         Version{1, 1, 0},
	}
}

func (a AppInfo) vulkan() *vk.ApplicationInfo {
	return &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(a.ApplicationName),
		ApplicationVersion: a.ApplicationVersion.Vk(),
		PEngineName:        safeString(a.EngineName),
		EngineVersion:      a.EngineVersion.Vk(),
		ApiVersion:         a.APIVersion.Vk(),
	}
}
