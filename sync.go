package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// createBatch calls create count times. If any call fails the objects made
// so far are passed to destroy, newest first, and the error is returned.
func createBatch[T any](count int, create func() (T, error), destroy func(T)) ([]T, error) {
	out := make([]T, 0, count)
	for i := 0; i < count; i++ {
		obj, err := create()
		if err != nil {
			for j := len(out) - 1; j >= 0; j-- {
				destroy(out[j])
			}
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// CreateFence creates a fence; pass vk.FenceCreateSignaledBit to start signaled.
func (c *Context) CreateFence(flags vk.FenceCreateFlags) (vk.Fence, error) {
	var fence vk.Fence
	ret := vk.CreateFence(c.device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: flags,
	}, nil, &fence)
	if err := NewError(ret); err != nil {
		return vk.NullFence, errors.Mark(errors.Wrap(err, "vkCreateFence"), ErrSyncObjectCreation)
	}
	return fence, nil
}

// CreateFences creates count fences, or none.
func (c *Context) CreateFences(count int, flags vk.FenceCreateFlags) ([]vk.Fence, error) {
	return createBatch(count, func() (vk.Fence, error) {
		return c.CreateFence(flags)
	}, c.DestroyFence)
}

func (c *Context) DestroyFence(fence vk.Fence) {
	if fence != vk.NullFence {
		vk.DestroyFence(c.device, fence, nil)
	}
}

func (c *Context) DestroyFences(fences []vk.Fence) {
	for _, f := range fences {
		c.DestroyFence(f)
	}
}

func (c *Context) ResetFence(fence vk.Fence) error {
	return NewError(vk.ResetFences(c.device, 1, []vk.Fence{fence}))
}

// WaitForFence blocks until fence is signaled or timeout nanoseconds pass.
// vk.MaxUint64 waits forever. A timeout returns an error wrapping vk.Timeout.
func (c *Context) WaitForFence(fence vk.Fence, timeout uint64) error {
	ret := vk.WaitForFences(c.device, 1, []vk.Fence{fence}, vk.True, timeout)
	return NewError(ret)
}

func (c *Context) CreateSemaphore() (vk.Semaphore, error) {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(c.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	if err := NewError(ret); err != nil {
		return vk.NullSemaphore, errors.Mark(errors.Wrap(err, "vkCreateSemaphore"), ErrSyncObjectCreation)
	}
	return sem, nil
}

// CreateSemaphores creates count semaphores, or none.
func (c *Context) CreateSemaphores(count int) ([]vk.Semaphore, error) {
	return createBatch(count, c.CreateSemaphore, c.DestroySemaphore)
}

func (c *Context) DestroySemaphore(sem vk.Semaphore) {
	if sem != vk.NullSemaphore {
		vk.DestroySemaphore(c.device, sem, nil)
	}
}

func (c *Context) DestroySemaphores(sems []vk.Semaphore) {
	for _, s := range sems {
		c.DestroySemaphore(s)
	}
}

// AcquireNextImage asks the swapchain for the next image. The result must be
// checked: vk.ErrorOutOfDate and vk.Suboptimal mean the swapchain should be
// recreated (see SwapchainOutOfDate), vk.NotReady and vk.Timeout mean no
// image yet.
func (c *Context) AcquireNextImage(sc *SwapchainInfo, semaphore vk.Semaphore, fence vk.Fence, timeout uint64) (uint32, vk.Result) {
	var index uint32
	ret := vk.AcquireNextImage(c.device, sc.Swapchain, timeout, semaphore, fence, &index)
	return index, ret
}

// SwapchainOutOfDate reports whether ret from acquire or present calls for a
// swapchain rebuild.
func SwapchainOutOfDate(ret vk.Result) bool {
	return ret == vk.ErrorOutOfDate || ret == vk.Suboptimal
}
