package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DepthFormatCandidates is the preference order used by FindSuitableDepthFormat.
var DepthFormatCandidates = []vk.Format{
	vk.FormatD32SfloatS8Uint,
	vk.FormatD32Sfloat,
	vk.FormatD24UnormS8Uint,
}

// DepthBuffer is a device-local depth attachment and its view.
type DepthBuffer struct {
	Image  vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Format vk.Format
	Extent vk.Extent2D
}

// selectFormat returns the first candidate whose tiling features include
// all of features, or vk.FormatUndefined.
func selectFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags,
	query func(vk.Format) vk.FormatProperties) vk.Format {

	for _, format := range candidates {
		props := query(format)
		var have vk.FormatFeatureFlags
		switch tiling {
		case vk.ImageTilingLinear:
			have = props.LinearTilingFeatures
		case vk.ImageTilingOptimal:
			have = props.OptimalTilingFeatures
		default:
			continue
		}
		if have&features == features {
			return format
		}
	}
	return vk.FormatUndefined
}

// SelectSupportedFormat returns the first candidate the device supports for
// tiling with features, or vk.FormatUndefined.
func (c *Context) SelectSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) vk.Format {
	return selectFormat(candidates, tiling, features, func(format vk.Format) vk.FormatProperties {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(c.gpu, format, &props)
		props.Deref()
		return props
	})
}

func (c *Context) FindSuitableDepthFormat() vk.Format {
	return c.SelectSupportedFormat(DepthFormatCandidates, vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit))
}

// CreateDepthBuffer allocates a depth attachment. Pass vk.FormatUndefined
// to let FindSuitableDepthFormat choose.
func (c *Context) CreateDepthBuffer(extent vk.Extent2D, format vk.Format) (*DepthBuffer, error) {
	if format == vk.FormatUndefined {
		format = c.FindSuitableDepthFormat()
	}
	if format == vk.FormatUndefined {
		return nil, errors.Wrap(ErrUnsupportedDepthFormat, "none of the depth candidates is supported")
	}

	depth := &DepthBuffer{Format: format, Extent: extent}
	var err error
	depth.Image, depth.Memory, err = c.createImage(extent, format, vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	depth.View, err = c.CreateImageView(depth.Image, format,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit), vk.ImageViewType2d)
	if err != nil {
		c.DestroyDepthBuffer(depth)
		return nil, err
	}
	return depth, nil
}

func (c *Context) DestroyDepthBuffer(depth *DepthBuffer) {
	if depth == nil {
		return
	}
	if depth.View != vk.NullImageView {
		vk.DestroyImageView(c.device, depth.View, nil)
		depth.View = vk.NullImageView
	}
	if depth.Image != vk.NullImage {
		vk.DestroyImage(c.device, depth.Image, nil)
		depth.Image = vk.NullImage
	}
	if depth.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(c.device, depth.Memory, nil)
		depth.Memory = vk.NullDeviceMemory
	}
}
