package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CreateCommandPool creates a pool for family. Pass
// vk.CommandPoolCreateResetCommandBufferBit to reset buffers individually.
func (c *Context) CreateCommandPool(family uint32, flags vk.CommandPoolCreateFlags) (vk.CommandPool, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(c.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            flags,
	}, nil, &pool)
	if err := NewError(ret); err != nil {
		return vk.NullCommandPool, errors.Wrap(err, "vkCreateCommandPool")
	}
	return pool, nil
}

// CreateGraphicsCommandPool creates a resettable pool on the graphics family.
func (c *Context) CreateGraphicsCommandPool() (vk.CommandPool, error) {
	return c.CreateCommandPool(uint32(c.queueFamilies.Graphics),
		vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit))
}

func (c *Context) DestroyCommandPool(pool vk.CommandPool) {
	if pool != vk.NullCommandPool {
		vk.DestroyCommandPool(c.device, pool, nil)
	}
}

// AllocateCommandBuffers allocates count buffers of level from pool.
func (c *Context) AllocateCommandBuffers(pool vk.CommandPool, level vk.CommandBufferLevel, count int) ([]vk.CommandBuffer, error) {
	cmds := make([]vk.CommandBuffer, count)
	ret := vk.AllocateCommandBuffers(c.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              level,
		CommandBufferCount: uint32(count),
	}, cmds)
	if err := NewError(ret); err != nil {
		return nil, errors.Wrap(err, "vkAllocateCommandBuffers")
	}
	return cmds, nil
}

// AllocateCommandBuffer allocates a single primary command buffer.
func (c *Context) AllocateCommandBuffer(pool vk.CommandPool) (vk.CommandBuffer, error) {
	cmds, err := c.AllocateCommandBuffers(pool, vk.CommandBufferLevelPrimary, 1)
	if err != nil {
		return nil, err
	}
	return cmds[0], nil
}

func (c *Context) FreeCommandBuffers(pool vk.CommandPool, cmds []vk.CommandBuffer) {
	if len(cmds) == 0 {
		return
	}
	vk.FreeCommandBuffers(c.device, pool, uint32(len(cmds)), cmds)
}

func (c *Context) FreeCommandBuffer(pool vk.CommandPool, cmd vk.CommandBuffer) {
	c.FreeCommandBuffers(pool, []vk.CommandBuffer{cmd})
}
