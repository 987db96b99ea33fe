package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CreateShaderModule wraps SPIR-V bytecode. len(code) must be a multiple of 4.
func (c *Context) CreateShaderModule(code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return vk.NullShaderModule, errors.Newf("gfx: SPIR-V length %d is not a positive multiple of 4", len(code))
	}
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(c.device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}, nil, &module)
	if err := NewError(ret); err != nil {
		return vk.NullShaderModule, errors.Wrap(err, "vkCreateShaderModule")
	}
	return module, nil
}

func (c *Context) DestroyShaderModule(module vk.ShaderModule) {
	if module != vk.NullShaderModule {
		vk.DestroyShaderModule(c.device, module, nil)
	}
}
