package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// samplerInfo is a linear-filtered, single-level sampler with the given
// address mode on all three axes.
func samplerInfo(addressMode vk.SamplerAddressMode, anisotropy bool, maxAnisotropy float32) vk.SamplerCreateInfo {
	if !anisotropy {
		maxAnisotropy = 1
	}
	return vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            addressMode,
		AddressModeV:            addressMode,
		AddressModeW:            addressMode,
		AnisotropyEnable:        boolToVk(anisotropy),
		MaxAnisotropy:           maxAnisotropy,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  0,
	}
}

func (c *Context) CreateSampler(info *vk.SamplerCreateInfo) (vk.Sampler, error) {
	var sampler vk.Sampler
	ret := vk.CreateSampler(c.device, info, nil, &sampler)
	if err := NewError(ret); err != nil {
		return vk.NullSampler, errors.Wrap(err, "vkCreateSampler")
	}
	return sampler, nil
}

// maxSamplerAnisotropy clamps want to the device limit.
func (c *Context) maxSamplerAnisotropy(want float32) float32 {
	limits := c.gpuProperties.Limits
	limits.Deref()
	if limits.MaxSamplerAnisotropy > 0 && want > limits.MaxSamplerAnisotropy {
		return limits.MaxSamplerAnisotropy
	}
	return want
}

// CreateTextureSampler creates a repeating linear sampler for 2D textures.
func (c *Context) CreateTextureSampler(anisotropy bool, maxAnisotropy float32) (vk.Sampler, error) {
	info := samplerInfo(vk.SamplerAddressModeRepeat, anisotropy, c.maxSamplerAnisotropy(maxAnisotropy))
	return c.CreateSampler(&info)
}

// CreateCubeMapSampler creates an edge-clamped linear sampler for cube maps.
func (c *Context) CreateCubeMapSampler(anisotropy bool, maxAnisotropy float32) (vk.Sampler, error) {
	info := samplerInfo(vk.SamplerAddressModeClampToEdge, anisotropy, c.maxSamplerAnisotropy(maxAnisotropy))
	return c.CreateSampler(&info)
}

func (c *Context) DestroySampler(sampler vk.Sampler) {
	if sampler != vk.NullSampler {
		vk.DestroySampler(c.device, sampler, nil)
	}
}
