package gfx

import (
	"strings"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"
)

// SwapchainSupportDetails is what a surface allows on one physical device.
type SwapchainSupportDetails struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// IsValid reports whether at least one format and one present mode exist.
func (d SwapchainSupportDetails) IsValid() bool {
	return len(d.Formats) > 0 && len(d.PresentModes) > 0
}

// SwapchainInfo is a swapchain together with its images and views. It is
// owned by whoever created it and released with DestroySwapchain.
type SwapchainInfo struct {
	Swapchain     vk.Swapchain
	Extent        vk.Extent2D
	SurfaceFormat vk.SurfaceFormat
	PresentMode   vk.PresentMode
	ImageCount    uint32
	Images        []vk.Image
	ImageViews    []vk.ImageView
}

func querySwapchainSupport(gpu vk.PhysicalDevice, surface vk.Surface) (details SwapchainSupportDetails, err error) {
	defer checkErr(&err)

	ret := vk.GetPhysicalDeviceSurfaceCapabilities(gpu, surface, &details.Capabilities)
	orPanic(NewError(ret))
	details.Capabilities.Deref()
	details.Capabilities.CurrentExtent.Deref()
	details.Capabilities.MinImageExtent.Deref()
	details.Capabilities.MaxImageExtent.Deref()

	details.Formats, err = enumerate(func(count *uint32, list []vk.SurfaceFormat) vk.Result {
		return vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, count, list)
	})
	orPanic(err)
	for i := range details.Formats {
		details.Formats[i].Deref()
	}

	details.PresentModes, err = enumerate(func(count *uint32, list []vk.PresentMode) vk.Result {
		return vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, count, list)
	})
	orPanic(err)
	return details, nil
}

// chooseSurfaceFormat prefers 8-bit RGBA or BGRA in sRGB non-linear space.
// A lone undefined entry means the surface takes anything.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{
			Format:     vk.FormatR8g8b8a8Unorm,
			ColorSpace: vk.ColorSpaceSrgbNonlinear,
		}
	}
	for _, f := range formats {
		if (f.Format == vk.FormatR8g8b8a8Unorm || f.Format == vk.FormatB8g8r8a8Unorm) &&
			f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

// chooseSwapExtent uses the surface's current extent when it is defined,
// otherwise the framebuffer size clamped into the allowed range.
func chooseSwapExtent(caps vk.SurfaceCapabilities, width, height int) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampUint32(uint32(max(width, 0)), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampUint32(uint32(max(height, 0)), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clampUint32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// chooseImageCount asks for one image more than the minimum. Zero
// MaxImageCount means no upper bound.
func chooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// swapchainSharing returns concurrent sharing across both families when they
// differ and exclusive sharing with no family list otherwise.
func swapchainSharing(indices QueueFamilyIndices) (vk.SharingMode, []uint32) {
	if indices.GPShared() {
		return vk.SharingModeExclusive, nil
	}
	return vk.SharingModeConcurrent, []uint32{uint32(indices.Graphics), uint32(indices.Present)}
}

// chooseCompositeAlpha picks the first supported mode, opaque first.
func chooseCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	for _, mode := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if supported&vk.CompositeAlphaFlags(mode) != 0 {
			return mode
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

func hasPresentMode(modes []vk.PresentMode, mode vk.PresentMode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

var presentModeNames = map[vk.PresentMode]string{
	vk.PresentModeImmediate:   "immediate",
	vk.PresentModeMailbox:     "mailbox",
	vk.PresentModeFifo:        "fifo",
	vk.PresentModeFifoRelaxed: "fifo_relaxed",
}

// ParsePresentMode maps "immediate", "mailbox", "fifo" or "fifo_relaxed"
// (case-insensitive) to a present mode.
func ParsePresentMode(name string) (vk.PresentMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for mode, n := range presentModeNames {
		if n == name {
			return mode, nil
		}
	}
	return vk.PresentModeFifo, errors.Wrapf(ErrUnsupportedPresentMode, "unknown present mode %q", name)
}

func PresentModeName(mode vk.PresentMode) string {
	if name, ok := presentModeNames[mode]; ok {
		return name
	}
	return "unknown"
}

// SwapchainSupport re-queries the surface; capabilities change on resize.
func (c *Context) SwapchainSupport() (SwapchainSupportDetails, error) {
	if c.gpu == nil || c.surface == vk.NullSurface {
		return SwapchainSupportDetails{}, errors.Wrap(ErrNotInitialized, "querying swapchain support")
	}
	return querySwapchainSupport(c.gpu, c.surface)
}

// IsPresentModeAvailable re-queries the surface and reports whether it
// advertises mode.
func (c *Context) IsPresentModeAvailable(mode vk.PresentMode) bool {
	support, err := c.SwapchainSupport()
	if err != nil {
		c.log.Debug("swapchain support query failed", slog.Any("error", err))
		return false
	}
	return presentModeSupported(support, mode) == nil
}

func presentModeSupported(support SwapchainSupportDetails, mode vk.PresentMode) error {
	if !hasPresentMode(support.PresentModes, mode) {
		return errors.Wrapf(ErrUnsupportedPresentMode, "%s", PresentModeName(mode))
	}
	return nil
}

// CreateSwapchain builds a fresh swapchain for the surface, with one color
// view per image. It never reuses an old swapchain.
func (c *Context) CreateSwapchain(mode vk.PresentMode) (*SwapchainInfo, error) {
	support, err := c.SwapchainSupport()
	if err != nil {
		return nil, errors.Mark(err, ErrSwapchainCreation)
	}
	if err := presentModeSupported(support, mode); err != nil {
		return nil, err
	}
	caps := support.Capabilities

	width, height := c.window.FramebufferSize()
	info := &SwapchainInfo{
		SurfaceFormat: chooseSurfaceFormat(support.Formats),
		Extent:        chooseSwapExtent(caps, width, height),
		ImageCount:    chooseImageCount(caps),
		PresentMode:   mode,
	}
	if info.Extent.Width == 0 || info.Extent.Height == 0 {
		return nil, errors.Wrap(ErrSwapchainCreation, "surface has zero extent")
	}
	sharing, families := swapchainSharing(c.queueFamilies)

	var swapchain vk.Swapchain
	ret := vk.CreateSwapchain(c.device, &vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               c.surface,
		MinImageCount:         info.ImageCount,
		ImageFormat:           info.SurfaceFormat.Format,
		ImageColorSpace:       info.SurfaceFormat.ColorSpace,
		ImageExtent:           info.Extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharing,
		QueueFamilyIndexCount: uint32(len(families)),
		PQueueFamilyIndices:   families,
		PreTransform:          caps.CurrentTransform,
		CompositeAlpha:        chooseCompositeAlpha(caps.SupportedCompositeAlpha),
		PresentMode:           mode,
		Clipped:               vk.True,
		OldSwapchain:          vk.NullSwapchain,
	}, nil, &swapchain)
	if err := NewError(ret); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "vkCreateSwapchainKHR"), ErrSwapchainCreation)
	}
	info.Swapchain = swapchain

	if err := c.swapchainImages(info); err != nil {
		c.DestroySwapchain(info)
		return nil, errors.Mark(err, ErrSwapchainCreation)
	}
	c.log.Debug("swapchain created",
		slog.Int("width", int(info.Extent.Width)),
		slog.Int("height", int(info.Extent.Height)),
		slog.Int("images", len(info.Images)),
		slog.String("present_mode", PresentModeName(mode)))
	return info, nil
}

func (c *Context) swapchainImages(info *SwapchainInfo) error {
	images, err := enumerate(func(count *uint32, list []vk.Image) vk.Result {
		return vk.GetSwapchainImages(c.device, info.Swapchain, count, list)
	})
	if err != nil {
		return errors.Wrap(err, "vkGetSwapchainImagesKHR")
	}
	info.Images = images
	info.ImageCount = uint32(len(images))

	info.ImageViews = make([]vk.ImageView, 0, len(images))
	for _, image := range info.Images {
		view, err := c.CreateImageView(image, info.SurfaceFormat.Format,
			vk.ImageAspectFlags(vk.ImageAspectColorBit), vk.ImageViewType2d)
		if err != nil {
			return err
		}
		info.ImageViews = append(info.ImageViews, view)
	}
	return nil
}

// DestroySwapchain destroys the image views, then the swapchain.
func (c *Context) DestroySwapchain(info *SwapchainInfo) {
	if info == nil {
		return
	}
	for _, view := range info.ImageViews {
		vk.DestroyImageView(c.device, view, nil)
	}
	info.ImageViews = nil
	info.Images = nil
	if info.Swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(c.device, info.Swapchain, nil)
		info.Swapchain = vk.NullSwapchain
	}
}

// RecreateSwapchain waits for the device, destroys info and builds a new
// swapchain. Callers must rebuild anything that referenced the old views.
func (c *Context) RecreateSwapchain(info *SwapchainInfo, mode vk.PresentMode) (*SwapchainInfo, error) {
	if err := c.WaitIdle(); err != nil {
		return nil, err
	}
	c.DestroySwapchain(info)
	return c.CreateSwapchain(mode)
}
