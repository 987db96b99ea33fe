package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

func CreateViewport(x, y float32, extent vk.Extent2D, minDepth, maxDepth float32) vk.Viewport {
	return vk.Viewport{
		X:        x,
		Y:        y,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: minDepth,
		MaxDepth: maxDepth,
	}
}

func CreateScissorRect(x, y int32, extent vk.Extent2D) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: x, Y: y},
		Extent: extent,
	}
}

func (c *Context) DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout) {
	if layout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(c.device, layout, nil)
	}
}

func (c *Context) DestroyDescriptorPool(pool vk.DescriptorPool) {
	if pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(c.device, pool, nil)
	}
}

// AllocateDescriptorSet allocates one set with layout from pool.
func (c *Context) AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	var set vk.DescriptorSet
	ret := vk.AllocateDescriptorSets(c.device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}, &set)
	if err := NewError(ret); err != nil {
		return vk.NullDescriptorSet, errors.Wrap(err, "vkAllocateDescriptorSets")
	}
	return set, nil
}

// FreeDescriptorSet returns set to pool. The pool must have been created
// with the free-descriptor-set flag.
func (c *Context) FreeDescriptorSet(pool vk.DescriptorPool, set vk.DescriptorSet) error {
	return NewError(vk.FreeDescriptorSets(c.device, pool, 1, &set))
}
