package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"
)

// DeviceCapabilities is what the selector knows about one physical device.
type DeviceCapabilities struct {
	Device            vk.PhysicalDevice
	Name              string
	Properties        vk.PhysicalDeviceProperties
	SamplerAnisotropy bool
	QueueFamilies     QueueFamilyIndices
	Extensions        []string
	Swapchain         SwapchainSupportDetails
}

// probeDevice gathers everything isDeviceSuitable looks at.
func probeDevice(gpu vk.PhysicalDevice, surface vk.Surface) (caps DeviceCapabilities, err error) {
	caps.Device = gpu
	vk.GetPhysicalDeviceProperties(gpu, &caps.Properties)
	caps.Properties.Deref()
	caps.Name = vk.ToString(caps.Properties.DeviceName[:])

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(gpu, &features)
	features.Deref()
	caps.SamplerAnisotropy = features.SamplerAnisotropy.B()

	caps.QueueFamilies = findQueueFamilies(gpu, surface)
	if caps.Extensions, err = DeviceExtensions(gpu); err != nil {
		return caps, errors.Wrapf(err, "enumerating extensions of %q", caps.Name)
	}
	if caps.Swapchain, err = querySwapchainSupport(gpu, surface); err != nil {
		return caps, errors.Wrapf(err, "querying swapchain support of %q", caps.Name)
	}
	return caps, nil
}

// rejectionReason returns why caps fails selection, or "" if it passes.
func rejectionReason(caps DeviceCapabilities, requiredExtensions []string) string {
	switch {
	case caps.QueueFamilies.Graphics < 0:
		return "no graphics queue family"
	case caps.QueueFamilies.Present < 0:
		return "no present queue family"
	case len(missingNames(requiredExtensions, caps.Extensions)) > 0:
		return "missing device extensions"
	case !caps.Swapchain.IsValid():
		return "no surface formats or present modes"
	case !caps.SamplerAnisotropy:
		return "no sampler anisotropy"
	}
	return ""
}

func isDeviceSuitable(caps DeviceCapabilities, requiredExtensions []string) bool {
	return rejectionReason(caps, requiredExtensions) == ""
}

// firstSuitable probes candidates 0..n-1 in order and returns the first that
// passes. Devices whose probe fails are skipped.
func firstSuitable(n int, probe func(i int) (DeviceCapabilities, error), requiredExtensions []string) (DeviceCapabilities, error) {
	if n == 0 {
		return DeviceCapabilities{}, errors.Wrap(ErrNoSuitableDevice, "no physical devices")
	}
	for i := 0; i < n; i++ {
		caps, err := probe(i)
		if err != nil {
			logger.Debug("skipping device", slog.Int("index", i), slog.Any("error", err))
			continue
		}
		if reason := rejectionReason(caps, requiredExtensions); reason != "" {
			logger.Debug("device rejected", slog.String("device", caps.Name), slog.String("reason", reason))
			continue
		}
		return caps, nil
	}
	return DeviceCapabilities{}, errors.Wrapf(ErrNoSuitableDevice, "none of %d devices qualified", n)
}

func physicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	gpus, err := enumerate(func(count *uint32, list []vk.PhysicalDevice) vk.Result {
		return vk.EnumeratePhysicalDevices(instance, count, list)
	})
	return gpus, errors.Wrap(err, "vkEnumeratePhysicalDevices")
}

// selectPhysicalDevice returns the first suitable device in enumeration order.
func selectPhysicalDevice(instance vk.Instance, surface vk.Surface, requiredExtensions []string) (DeviceCapabilities, error) {
	gpus, err := physicalDevices(instance)
	if err != nil {
		return DeviceCapabilities{}, err
	}
	return firstSuitable(len(gpus), func(i int) (DeviceCapabilities, error) {
		return probeDevice(gpus[i], surface)
	}, requiredExtensions)
}
