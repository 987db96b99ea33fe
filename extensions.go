package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// enumerate runs a count-then-fill Vulkan query. The second call may report
// fewer entries than the first.
func enumerate[T any](query func(count *uint32, list []T) vk.Result) ([]T, error) {
	var count uint32
	if err := NewError(query(&count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	list := make([]T, count)
	if err := NewError(query(&count, list)); err != nil {
		return nil, err
	}
	return list[:count], nil
}

func extensionNames(list []vk.ExtensionProperties) []string {
	names := make([]string, 0, len(list))
	for i := range list {
		list[i].Deref()
		names = append(names, vk.ToString(list[i].ExtensionName[:]))
	}
	return names
}

// InstanceExtensions gets a list of instance extensions available on the platform.
func InstanceExtensions() ([]string, error) {
	list, err := enumerate(func(count *uint32, list []vk.ExtensionProperties) vk.Result {
		return vk.EnumerateInstanceExtensionProperties("", count, list)
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumerateInstanceExtensionProperties")
	}
	return extensionNames(list), nil
}

// DeviceExtensions gets a list of extensions available on the provided physical device.
func DeviceExtensions(gpu vk.PhysicalDevice) ([]string, error) {
	list, err := enumerate(func(count *uint32, list []vk.ExtensionProperties) vk.Result {
		return vk.EnumerateDeviceExtensionProperties(gpu, "", count, list)
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumerateDeviceExtensionProperties")
	}
	return extensionNames(list), nil
}

// ValidationLayers gets a list of validation layers available on the platform.
func ValidationLayers() ([]string, error) {
	list, err := enumerate(func(count *uint32, list []vk.LayerProperties) vk.Result {
		return vk.EnumerateInstanceLayerProperties(count, list)
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumerateInstanceLayerProperties")
	}
	names := make([]string, 0, len(list))
	for i := range list {
		list[i].Deref()
		names = append(names, vk.ToString(list[i].LayerName[:]))
	}
	return names, nil
}

// missingNames returns the entries of required absent from available, in
// required order. Trailing NUL terminators are ignored on both sides.
func missingNames(required, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, name := range available {
		have[trimNul(name)] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := have[trimNul(name)]; !ok {
			missing = append(missing, trimNul(name))
		}
	}
	return missing
}

func trimNul(s string) string {
	for len(s) > 0 && s[len(s)-1] == '\x00' {
		s = s[:len(s)-1]
	}
	return s
}
