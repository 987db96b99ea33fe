package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// findMemoryTypeIndex returns the first memory type allowed by typeFilter
// whose property flags include all of flags.
func findMemoryTypeIndex(props vk.PhysicalDeviceMemoryProperties, typeFilter uint32, flags vk.MemoryPropertyFlags) (uint32, error) {
	count := props.MemoryTypeCount
	if count > vk.MaxMemoryTypes {
		count = vk.MaxMemoryTypes
	}
	for i := uint32(0); i < count; i++ {
		if typeFilter&(1<<i) == 0 {
			continue
		}
		memType := props.MemoryTypes[i]
		memType.Deref()
		if memType.PropertyFlags&flags == flags {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrNoSuitableMemoryType, "filter %#x, flags %#x", typeFilter, flags)
}

// FindMemoryType searches the selected device's memory types.
func (c *Context) FindMemoryType(typeFilter uint32, flags vk.MemoryPropertyFlags) (uint32, error) {
	return findMemoryTypeIndex(c.memoryProperties, typeFilter, flags)
}

func (c *Context) allocateMemory(reqs vk.MemoryRequirements, flags vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	memType, err := c.FindMemoryType(reqs.MemoryTypeBits, flags)
	if err != nil {
		return vk.NullDeviceMemory, err
	}
	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(c.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &memory)
	if err := NewError(ret); err != nil {
		return vk.NullDeviceMemory, errors.Wrapf(err, "vkAllocateMemory (%d bytes)", reqs.Size)
	}
	return memory, nil
}
