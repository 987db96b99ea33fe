package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Frame is one slot of the frames-in-flight ring.
type Frame struct {
	// Slot is the ring position, ImageIndex the acquired swapchain image.
	Slot       int
	ImageIndex uint32
	// Command is reset and ready for recording when Begin returns it.
	Command        vk.CommandBuffer
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       vk.Fence
}

// FrameManager pipelines per-frame work: each slot has its own command
// buffer, semaphores and a fence, so the host only waits when it laps the
// GPU. The manager is not thread-safe.
type FrameManager struct {
	ctx    *Context
	pool   vk.CommandPool
	frames []Frame
	// imageFences remembers which slot fence last rendered each swapchain image.
	imageFences []vk.Fence
	current     int
	timeout     uint64
}

// NewFrameManager creates framesInFlight slots on the graphics family.
// Fences start signaled so the first Begin of each slot does not block.
func NewFrameManager(ctx *Context, framesInFlight int) (_ *FrameManager, err error) {
	if framesInFlight < 1 {
		return nil, errors.Newf("gfx: frames in flight must be at least 1, got %d", framesInFlight)
	}
	m := &FrameManager{ctx: ctx, timeout: vk.MaxUint64}
	defer func() {
		if err != nil {
			m.Destroy()
		}
	}()

	if m.pool, err = ctx.CreateGraphicsCommandPool(); err != nil {
		return nil, err
	}
	cmds, err := ctx.AllocateCommandBuffers(m.pool, vk.CommandBufferLevelPrimary, framesInFlight)
	if err != nil {
		return nil, err
	}
	available, err := ctx.CreateSemaphores(framesInFlight)
	if err != nil {
		return nil, err
	}
	finished, err := ctx.CreateSemaphores(framesInFlight)
	if err != nil {
		ctx.DestroySemaphores(available)
		return nil, err
	}
	fences, err := ctx.CreateFences(framesInFlight, vk.FenceCreateFlags(vk.FenceCreateSignaledBit))
	if err != nil {
		ctx.DestroySemaphores(available)
		ctx.DestroySemaphores(finished)
		return nil, err
	}

	m.frames = make([]Frame, framesInFlight)
	for i := range m.frames {
		m.frames[i] = Frame{
			Slot:           i,
			Command:        cmds[i],
			ImageAvailable: available[i],
			RenderFinished: finished[i],
			InFlight:       fences[i],
		}
	}
	return m, nil
}

// SetTimeout bounds the fence wait and image acquisition in Begin, in
// nanoseconds. The default waits forever.
func (m *FrameManager) SetTimeout(timeout uint64) {
	m.timeout = timeout
}

func (m *FrameManager) FramesInFlight() int {
	return len(m.frames)
}

// Begin waits for the current slot, acquires the next image and resets the
// slot's command buffer. The slot fence stays signaled until Submit, so a
// frame dropped before submission does not stall the next Begin.
// vk.ErrorOutOfDate returns a nil frame; the caller recreates the swapchain
// and calls Begin again. vk.Suboptimal returns a usable frame; recreate
// after presenting it.
func (m *FrameManager) Begin(sc *SwapchainInfo) (*Frame, vk.Result, error) {
	frame := &m.frames[m.current]
	if ret := vk.WaitForFences(m.ctx.Device(), 1, []vk.Fence{frame.InFlight}, vk.True, m.timeout); ret != vk.Success {
		return nil, ret, errors.Wrap(NewError(ret), "waiting for frame fence")
	}

	index, ret := m.ctx.AcquireNextImage(sc, frame.ImageAvailable, vk.NullFence, m.timeout)
	switch ret {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		return nil, ret, nil
	default:
		return nil, ret, errors.Wrap(NewError(ret), "vkAcquireNextImageKHR")
	}
	frame.ImageIndex = index

	if len(m.imageFences) != len(sc.Images) {
		m.imageFences = make([]vk.Fence, len(sc.Images))
	}
	if prev := m.imageFences[index]; prev != vk.NullFence && prev != frame.InFlight {
		if err := m.ctx.WaitForFence(prev, m.timeout); err != nil {
			return nil, ret, errors.Wrap(err, "waiting for image fence")
		}
	}
	m.imageFences[index] = frame.InFlight

	if err := NewError(vk.ResetCommandBuffer(frame.Command, 0)); err != nil {
		return nil, ret, errors.Wrap(err, "vkResetCommandBuffer")
	}
	return frame, ret, nil
}

// Submit resets the InFlight fence and submits the frame's command buffer.
// It waits on ImageAvailable at color attachment output, signals
// RenderFinished and the InFlight fence.
func (m *FrameManager) Submit(frame *Frame) error {
	if err := m.ctx.ResetFence(frame.InFlight); err != nil {
		return errors.Wrap(err, "vkResetFences")
	}
	return m.ctx.SubmitCommandBuffer(vk.SubmitInfo{
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{frame.ImageAvailable},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{frame.Command},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{frame.RenderFinished},
	}, frame.InFlight)
}

// Present queues the frame's image and moves to the next slot.
func (m *FrameManager) Present(sc *SwapchainInfo, frame *Frame) vk.Result {
	ret := m.ctx.QueuePresent(vk.PresentInfo{
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{frame.RenderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.Swapchain},
		PImageIndices:      []uint32{frame.ImageIndex},
	})
	m.current = (m.current + 1) % len(m.frames)
	return ret
}

// SwapchainRecreated forgets image ownership; call it after
// RecreateSwapchain.
func (m *FrameManager) SwapchainRecreated() {
	m.imageFences = nil
}

// Destroy waits for the device and releases every slot.
func (m *FrameManager) Destroy() {
	if m.ctx.Device() != nil {
		m.ctx.WaitIdle()
	}
	for _, f := range m.frames {
		m.ctx.DestroySemaphore(f.ImageAvailable)
		m.ctx.DestroySemaphore(f.RenderFinished)
		m.ctx.DestroyFence(f.InFlight)
	}
	m.frames = nil
	m.imageFences = nil
	if m.pool != vk.NullCommandPool {
		// Destroying the pool frees its command buffers.
		m.ctx.DestroyCommandPool(m.pool)
		m.pool = vk.NullCommandPool
	}
}
