package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"
)

// Context owns the instance, surface, logical device and queues for one
// window. It is not safe for concurrent use; all calls come from the render
// thread.
type Context struct {
	window Window
	cfg    *Config
	log    *slog.Logger

	instance      vk.Instance
	debugCallback vk.DebugReportCallback
	surface       vk.Surface
	gpu           vk.PhysicalDevice
	device        vk.Device

	gpuName          string
	gpuProperties    vk.PhysicalDeviceProperties
	memoryProperties vk.PhysicalDeviceMemoryProperties

	queueFamilies QueueFamilyIndices
	graphicsQueue vk.Queue
	presentQueue  vk.Queue
}

// NewContext prepares a Context for window. A nil cfg means DefaultConfig.
// Nothing touches Vulkan until Initialize.
func NewContext(window Window, cfg *Config) *Context {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Context{
		window:        window,
		cfg:           cfg,
		log:           cfg.logger(),
		queueFamilies: noQueueFamilies(),
	}
}

// Initialize brings the context up: validation layers and instance
// extensions are checked, then the instance, surface, physical device,
// logical device and queues are created in that order. On failure everything
// created so far is released.
func (c *Context) Initialize(app AppInfo) (err error) {
	if c.device != nil {
		return errors.New("gfx: context already initialized")
	}
	defer func() {
		if err != nil {
			c.release()
		}
	}()

	layers := dedupe(c.cfg.ValidationLayers)
	if err := checkValidationLayers(layers); err != nil {
		return err
	}

	extensions := c.window.RequiredInstanceExtensions()
	if c.cfg.Debug {
		extensions = append(extensions, DebugReportExtension)
	}
	extensions = dedupe(extensions)
	if err := checkInstanceExtensions(extensions); err != nil {
		return err
	}
	c.log.Info("instance extensions", slog.Any("extensions", extensions), slog.Any("layers", layers))

	if c.instance, err = createInstance(app, extensions, layers); err != nil {
		return err
	}
	if c.cfg.Debug {
		if c.debugCallback, err = createDebugCallback(c.instance, c.log); err != nil {
			return err
		}
	}

	if c.surface, err = c.window.CreateSurface(c.instance); err != nil {
		return err
	}

	deviceExtensions := dedupe(c.cfg.DeviceExtensions)
	caps, err := selectPhysicalDevice(c.instance, c.surface, deviceExtensions)
	if err != nil {
		return err
	}
	c.gpu = caps.Device
	c.gpuName = caps.Name
	c.gpuProperties = caps.Properties
	c.queueFamilies = caps.QueueFamilies
	vk.GetPhysicalDeviceMemoryProperties(c.gpu, &c.memoryProperties)
	c.memoryProperties.Deref()
	c.log.Info("selected device",
		slog.String("device", c.gpuName),
		slog.Int("graphics_family", c.queueFamilies.Graphics),
		slog.Int("present_family", c.queueFamilies.Present))

	queueInfos := queueCreateInfos(c.queueFamilies)
	var device vk.Device
	ret := vk.CreateDevice(c.gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: safeStrings(deviceExtensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			SamplerAnisotropy: vk.True,
		}},
	}, nil, &device)
	if err := NewError(ret); err != nil {
		return errors.Wrap(err, "vkCreateDevice")
	}
	c.device = device

	vk.GetDeviceQueue(c.device, uint32(c.queueFamilies.Graphics), 0, &c.graphicsQueue)
	vk.GetDeviceQueue(c.device, uint32(c.queueFamilies.Present), 0, &c.presentQueue)
	c.log.Info("context ready", slog.Int("queues", len(queueInfos)))
	return nil
}

// Dispose waits for the device to go idle and destroys the debug callback,
// surface, device and instance. It is a no-op when no device was created,
// so calling it twice is safe.
func (c *Context) Dispose() {
	if c.device == nil {
		return
	}
	vk.DeviceWaitIdle(c.device)
	c.release()
	c.log.Info("context disposed")
}

// release destroys whatever handles exist and nulls them.
func (c *Context) release() {
	if c.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(c.instance, c.debugCallback, nil)
		c.debugCallback = vk.NullDebugReportCallback
	}
	if c.surface != vk.NullSurface {
		vk.DestroySurface(c.instance, c.surface, nil)
		c.surface = vk.NullSurface
	}
	if c.device != nil {
		vk.DestroyDevice(c.device, nil)
		c.device = nil
	}
	if c.instance != nil {
		vk.DestroyInstance(c.instance, nil)
		c.instance = nil
	}
	c.gpu = nil
	c.graphicsQueue = nil
	c.presentQueue = nil
	c.queueFamilies = noQueueFamilies()
}

// WaitIdle blocks until the device has finished all submitted work.
func (c *Context) WaitIdle() error {
	if c.device == nil {
		return errors.Wrap(ErrNotInitialized, "vkDeviceWaitIdle")
	}
	return NewError(vk.DeviceWaitIdle(c.device))
}

// Instance gets the Vulkan instance.
func (c *Context) Instance() vk.Instance {
	return c.instance
}

// Surface gets the presentation surface.
func (c *Context) Surface() vk.Surface {
	return c.surface
}

// PhysicalDevice gets the selected GPU.
func (c *Context) PhysicalDevice() vk.PhysicalDevice {
	return c.gpu
}

// Device gets the logical device.
func (c *Context) Device() vk.Device {
	return c.device
}

func (c *Context) GraphicsQueue() vk.Queue {
	return c.graphicsQueue
}

func (c *Context) PresentQueue() vk.Queue {
	return c.presentQueue
}

func (c *Context) QueueFamilies() QueueFamilyIndices {
	return c.queueFamilies
}

func (c *Context) DeviceName() string {
	return c.gpuName
}

func (c *Context) PhysicalDeviceProperties() vk.PhysicalDeviceProperties {
	return c.gpuProperties
}

func (c *Context) MemoryProperties() vk.PhysicalDeviceMemoryProperties {
	return c.memoryProperties
}

// Config returns the configuration the context was built with.
func (c *Context) Config() *Config {
	return c.cfg
}
