// Package gfx is a thin layer over Vulkan that owns the instance, surface,
// logical device and queues of a single window, builds and rebuilds the
// swapchain, creates memory-backed buffers and images, and manages the
// fences and semaphores that order image acquisition, submission and
// presentation.
//
// A Context is used from one thread only (the render thread). Blocking
// helpers (WaitIdle, WaitForFence, CreateImage, CopyBuffer and the layout
// transitions) are meant for setup and asset upload; the per-frame path goes
// through FrameManager, which pipelines submissions with fences.
//
//	if err := gfx.Init(); err != nil { ... }
//	defer gfx.Terminate()
//	ctx := gfx.NewContext(gfx.NewGLFWWindow(win), gfx.DefaultConfig())
//	if err := ctx.Initialize(gfx.DefaultAppInfo()); err != nil { ... }
//	defer ctx.Dispose()
//	sc, err := ctx.CreateSwapchain(vk.PresentModeFifo)
package gfx
