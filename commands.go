package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

func (c *Context) BeginCommandBuffer(cmd vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error {
	ret := vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	})
	return NewError(ret)
}

func (c *Context) EndCommandBuffer(cmd vk.CommandBuffer) error {
	return NewError(vk.EndCommandBuffer(cmd))
}

// BeginRenderPass records a render pass begin covering the whole extent.
func (c *Context) BeginRenderPass(cmd vk.CommandBuffer, renderPass vk.RenderPass, framebuffer vk.Framebuffer,
	extent vk.Extent2D, clear []vk.ClearValue, contents vk.SubpassContents) {

	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      renderPass,
		Framebuffer:     framebuffer,
		RenderArea:      CreateScissorRect(0, 0, extent),
		ClearValueCount: uint32(len(clear)),
		PClearValues:    clear,
	}, contents)
}

func (c *Context) EndRenderPass(cmd vk.CommandBuffer) {
	vk.CmdEndRenderPass(cmd)
}

func (c *Context) BindPipeline(cmd vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(cmd, bindPoint, pipeline)
}

// SubmitCommandBuffer submits to the graphics queue; fence may be vk.NullFence.
func (c *Context) SubmitCommandBuffer(info vk.SubmitInfo, fence vk.Fence) error {
	return c.SubmitCommandBuffers([]vk.SubmitInfo{info}, fence)
}

func (c *Context) SubmitCommandBuffers(infos []vk.SubmitInfo, fence vk.Fence) error {
	for i := range infos {
		infos[i].SType = vk.StructureTypeSubmitInfo
	}
	ret := vk.QueueSubmit(c.graphicsQueue, uint32(len(infos)), infos, fence)
	if err := NewError(ret); err != nil {
		return errors.Wrap(err, "vkQueueSubmit")
	}
	return nil
}

// QueuePresent presents on the present queue. Like AcquireNextImage the
// result must be inspected with SwapchainOutOfDate.
func (c *Context) QueuePresent(info vk.PresentInfo) vk.Result {
	info.SType = vk.StructureTypePresentInfo
	return vk.QueuePresent(c.presentQueue, &info)
}

// runOneShot records a throwaway command buffer with record, submits it to
// queue without a fence and waits for the queue to go idle.
func (c *Context) runOneShot(pool vk.CommandPool, queue vk.Queue, record func(cmd vk.CommandBuffer)) (err error) {
	cmd, err := c.AllocateCommandBuffer(pool)
	if err != nil {
		return err
	}
	defer c.FreeCommandBuffer(pool, cmd)

	if err := c.BeginCommandBuffer(cmd, vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)); err != nil {
		return errors.Wrap(err, "vkBeginCommandBuffer")
	}
	record(cmd)
	if err := c.EndCommandBuffer(cmd); err != nil {
		return errors.Wrap(err, "vkEndCommandBuffer")
	}

	ret := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}}, vk.NullFence)
	if err := NewError(ret); err != nil {
		return errors.Wrap(err, "vkQueueSubmit")
	}
	if err := NewError(vk.QueueWaitIdle(queue)); err != nil {
		return errors.Wrap(err, "vkQueueWaitIdle")
	}
	return nil
}
