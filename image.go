package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ImageData is raw, tightly packed pixel data.
type ImageData struct {
	Pixels []byte
	Width  uint32
	Height uint32
	Format vk.Format
}

// Size is the byte size implied by the dimensions and format; 0 for formats
// BytesPerPixel does not know.
func (d ImageData) Size() vk.DeviceSize {
	return vk.DeviceSize(d.Width) * vk.DeviceSize(d.Height) * vk.DeviceSize(BytesPerPixel(d.Format))
}

var formatBytes = map[vk.Format]uint32{
	vk.FormatR8Unorm: 1, vk.FormatR8Snorm: 1, vk.FormatR8Uint: 1, vk.FormatR8Sint: 1,
	vk.FormatR16Unorm: 2, vk.FormatR16Snorm: 2, vk.FormatR16Uint: 2, vk.FormatR16Sint: 2, vk.FormatR16Sfloat: 2,
	vk.FormatR32Uint: 4, vk.FormatR32Sint: 4, vk.FormatR32Sfloat: 4,

	vk.FormatR8g8Unorm: 2, vk.FormatR8g8Snorm: 2, vk.FormatR8g8Uint: 2, vk.FormatR8g8Sint: 2,
	vk.FormatR16g16Unorm: 4, vk.FormatR16g16Snorm: 4, vk.FormatR16g16Uint: 4, vk.FormatR16g16Sint: 4, vk.FormatR16g16Sfloat: 4,
	vk.FormatR32g32Uint: 8, vk.FormatR32g32Sint: 8, vk.FormatR32g32Sfloat: 8,

	vk.FormatR8g8b8Unorm: 3, vk.FormatR8g8b8Snorm: 3, vk.FormatR8g8b8Uint: 3, vk.FormatR8g8b8Sint: 3,
	vk.FormatR16g16b16Unorm: 6, vk.FormatR16g16b16Snorm: 6, vk.FormatR16g16b16Uint: 6, vk.FormatR16g16b16Sint: 6, vk.FormatR16g16b16Sfloat: 6,
	vk.FormatR32g32b32Uint: 12, vk.FormatR32g32b32Sint: 12, vk.FormatR32g32b32Sfloat: 12,

	vk.FormatR8g8b8a8Unorm: 4, vk.FormatR8g8b8a8Snorm: 4, vk.FormatR8g8b8a8Uint: 4, vk.FormatR8g8b8a8Sint: 4,
	vk.FormatR16g16b16a16Unorm: 8, vk.FormatR16g16b16a16Snorm: 8, vk.FormatR16g16b16a16Uint: 8, vk.FormatR16g16b16a16Sint: 8, vk.FormatR16g16b16a16Sfloat: 8,
	vk.FormatR32g32b32a32Uint: 16, vk.FormatR32g32b32a32Sint: 16, vk.FormatR32g32b32a32Sfloat: 16,
}

// BytesPerPixel returns the pixel size of uncompressed R/RG/RGB/RGBA formats
// and 0 for anything else.
func BytesPerPixel(format vk.Format) uint32 {
	return formatBytes[format]
}

// Image is a sampled image with its memory and a view over it.
type Image struct {
	Image  vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Format vk.Format
	Width  uint32
	Height uint32
}

// CreateImage uploads data through a staging buffer into a device-local
// optimal-tiling image left in shader-read layout. It blocks until the
// upload is done; use it for asset loading, not per frame.
func (c *Context) CreateImage(data ImageData, pool vk.CommandPool, usage vk.ImageUsageFlags) (*Image, error) {
	size := data.Size()
	if size == 0 {
		return nil, errors.Newf("gfx: cannot size %dx%d image of format %d", data.Width, data.Height, data.Format)
	}
	if vk.DeviceSize(len(data.Pixels)) < size {
		return nil, errors.Wrapf(ErrBufferOverflow, "%d pixel bytes for a %d byte image", len(data.Pixels), size)
	}

	staging, err := c.CreateBuffer(size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, errors.Wrap(err, "staging buffer")
	}
	defer c.DestroyBuffer(staging)
	if err := c.UpdateBuffer(staging, data.Pixels[:size], 0); err != nil {
		return nil, err
	}

	img := &Image{Format: data.Format, Width: data.Width, Height: data.Height}
	extent := vk.Extent2D{Width: data.Width, Height: data.Height}
	img.Image, img.Memory, err = c.createImage(extent, data.Format, vk.ImageTilingOptimal,
		usage|vk.ImageUsageFlags(vk.ImageUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}

	err = c.TransitionImageLayout(pool, img.Image, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	if err == nil {
		err = c.CopyBufferToImage(pool, staging.Buffer, img.Image, data.Width, data.Height)
	}
	if err == nil {
		err = c.TransitionImageLayout(pool, img.Image, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	}
	if err == nil {
		img.View, err = c.CreateImageView(img.Image, data.Format,
			vk.ImageAspectFlags(vk.ImageAspectColorBit), vk.ImageViewType2d)
	}
	if err != nil {
		c.DestroyImage(img)
		return nil, err
	}
	return img, nil
}

// createImage creates a single-mip 2D image with bound memory.
func (c *Context) createImage(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling,
	usage vk.ImageUsageFlags, props vk.MemoryPropertyFlags) (vk.Image, vk.DeviceMemory, error) {

	var image vk.Image
	ret := vk.CreateImage(c.device, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        tiling,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &image)
	if err := NewError(ret); err != nil {
		return vk.NullImage, vk.NullDeviceMemory, errors.Wrap(err, "vkCreateImage")
	}

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(c.device, image, &reqs)
	reqs.Deref()
	memory, err := c.allocateMemory(reqs, props)
	if err != nil {
		vk.DestroyImage(c.device, image, nil)
		return vk.NullImage, vk.NullDeviceMemory, err
	}
	if err := NewError(vk.BindImageMemory(c.device, image, memory, 0)); err != nil {
		vk.FreeMemory(c.device, memory, nil)
		vk.DestroyImage(c.device, image, nil)
		return vk.NullImage, vk.NullDeviceMemory, errors.Wrap(err, "vkBindImageMemory")
	}
	return image, memory, nil
}

// DestroyImage releases the view, the image and its memory, in that order.
func (c *Context) DestroyImage(img *Image) {
	if img == nil {
		return
	}
	if img.View != vk.NullImageView {
		vk.DestroyImageView(c.device, img.View, nil)
		img.View = vk.NullImageView
	}
	if img.Image != vk.NullImage {
		vk.DestroyImage(c.device, img.Image, nil)
		img.Image = vk.NullImage
	}
	if img.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(c.device, img.Memory, nil)
		img.Memory = vk.NullDeviceMemory
	}
}

// CreateImageView creates a single-mip, single-layer view. Cube views get
// six layers.
func (c *Context) CreateImageView(image vk.Image, format vk.Format, aspect vk.ImageAspectFlags, viewType vk.ImageViewType) (vk.ImageView, error) {
	layers := uint32(1)
	if viewType == vk.ImageViewTypeCube {
		layers = 6
	}
	var view vk.ImageView
	ret := vk.CreateImageView(c.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: viewType,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     layers,
		},
	}, nil, &view)
	if err := NewError(ret); err != nil {
		return vk.NullImageView, errors.Wrap(err, "vkCreateImageView")
	}
	return view, nil
}

// layoutBarrier describes the access masks and stages of a supported
// layout transition.
type layoutBarrier struct {
	srcAccess, dstAccess vk.AccessFlags
	srcStage, dstStage   vk.PipelineStageFlags
}

func transitionBarrier(oldLayout, newLayout vk.ImageLayout) (layoutBarrier, error) {
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		return layoutBarrier{
			srcAccess: 0,
			dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}, nil
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		return layoutBarrier{
			srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}, nil
	}
	return layoutBarrier{}, errors.Newf("gfx: unsupported layout transition %d -> %d", oldLayout, newLayout)
}

// TransitionImageLayout moves a color image between layouts and waits for it.
// Supported: undefined to transfer-dst, transfer-dst to shader-read.
func (c *Context) TransitionImageLayout(pool vk.CommandPool, image vk.Image, oldLayout, newLayout vk.ImageLayout) error {
	b, err := transitionBarrier(oldLayout, newLayout)
	if err != nil {
		return err
	}
	return c.runOneShot(pool, c.graphicsQueue, func(cmd vk.CommandBuffer) {
		vk.CmdPipelineBarrier(cmd, b.srcStage, b.dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       b.srcAccess,
			DstAccessMask:       b.dstAccess,
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}})
	})
}

// CopyBufferToImage copies tightly packed pixels into mip 0 of an image in
// transfer-dst layout and waits for it.
func (c *Context) CopyBufferToImage(pool vk.CommandPool, buffer vk.Buffer, image vk.Image, width, height uint32) error {
	return c.runOneShot(pool, c.graphicsQueue, func(cmd vk.CommandBuffer) {
		vk.CmdCopyBufferToImage(cmd, buffer, image, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: vk.Offset3D{},
			ImageExtent: vk.Extent3D{Width: width, Height: height, Depth: 1},
		}})
	})
}
