package gfx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestSamplerInfo(t *testing.T) {
	info := samplerInfo(vk.SamplerAddressModeRepeat, true, 16)
	assert.Equal(t, vk.StructureTypeSamplerCreateInfo, info.SType)
	assert.Equal(t, vk.FilterLinear, info.MagFilter)
	assert.Equal(t, vk.FilterLinear, info.MinFilter)
	assert.Equal(t, vk.SamplerAddressModeRepeat, info.AddressModeU)
	assert.Equal(t, vk.SamplerAddressModeRepeat, info.AddressModeV)
	assert.Equal(t, vk.SamplerAddressModeRepeat, info.AddressModeW)
	assert.Equal(t, vk.Bool32(vk.True), info.AnisotropyEnable)
	assert.Equal(t, float32(16), info.MaxAnisotropy)
	assert.Equal(t, vk.BorderColorIntOpaqueBlack, info.BorderColor)
	assert.Equal(t, vk.SamplerMipmapModeLinear, info.MipmapMode)
	assert.Zero(t, info.MinLod)
	assert.Zero(t, info.MaxLod)
}

func TestSamplerInfoWithoutAnisotropy(t *testing.T) {
	info := samplerInfo(vk.SamplerAddressModeClampToEdge, false, 16)
	assert.Equal(t, vk.Bool32(vk.False), info.AnisotropyEnable)
	assert.Equal(t, float32(1), info.MaxAnisotropy)
	assert.Equal(t, vk.SamplerAddressModeClampToEdge, info.AddressModeW)
}

func TestMaxSamplerAnisotropy(t *testing.T) {
	c := &Context{}
	c.gpuProperties.Limits.MaxSamplerAnisotropy = 8
	assert.Equal(t, float32(8), c.maxSamplerAnisotropy(16))
	assert.Equal(t, float32(4), c.maxSamplerAnisotropy(4))

	c.gpuProperties.Limits.MaxSamplerAnisotropy = 0
	assert.Equal(t, float32(16), c.maxSamplerAnisotropy(16))
}
