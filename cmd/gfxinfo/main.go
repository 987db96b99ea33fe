// Command gfxinfo brings up a gfx context on a window, prints what was
// selected and optionally clears the window for a number of frames.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/andewx/gfx"
	"github.com/cockroachdb/errors"
	units "github.com/docker/go-units"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spf13/cobra"
	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

func init() {
	// glfw and the Vulkan surface must stay on the main thread.
	runtime.LockOSThread()
}

type options struct {
	configPath  string
	presentMode string
	frames      int
	debug       bool
	fov         float32
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:           "gfxinfo",
		Short:         "Probe the Vulkan device gfx selects for a window",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVar(&opts.presentMode, "present-mode", "", "override present mode (immediate, mailbox, fifo, fifo_relaxed)")
	cmd.Flags().IntVarP(&opts.frames, "frames", "n", 0, "clear the window for this many frames")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "forward validation messages to the log")
	cmd.Flags().Float32Var(&opts.fov, "fov", 45, "vertical field of view in degrees for the printed projection")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gfxinfo: %+v\n", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (*gfx.Config, error) {
	cfg := gfx.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = gfx.LoadConfig(opts.configPath); err != nil {
			return nil, err
		}
	}
	if opts.presentMode != "" {
		cfg.PresentMode = opts.presentMode
	}
	if opts.debug {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}

func run(opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := gfx.Init(); err != nil {
		return err
	}
	defer gfx.Terminate()

	win, err := gfx.CreateGLFWWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, cfg.Window.Resizable)
	if err != nil {
		return err
	}
	defer win.Destroy()

	ctx := gfx.NewContext(win, cfg)
	if err := ctx.Initialize(cfg.App); err != nil {
		return err
	}
	defer ctx.Dispose()

	printDevice(ctx)

	mode := cfg.PresentModeValue()
	if !ctx.IsPresentModeAvailable(mode) {
		fmt.Printf("present mode %s unavailable, using fifo\n", gfx.PresentModeName(mode))
		mode = vk.PresentModeFifo
	}
	sc, err := ctx.CreateSwapchain(mode)
	if err != nil {
		return err
	}
	fmt.Printf("swapchain: %dx%d, %d images, format %d, %s\n",
		sc.Extent.Width, sc.Extent.Height, len(sc.Images), sc.SurfaceFormat.Format, gfx.PresentModeName(sc.PresentMode))
	printProjection(sc.Extent, opts.fov)

	if opts.frames > 0 {
		r, err := newClearRenderer(ctx, sc, cfg.FramesInFlight)
		if err != nil {
			ctx.DestroySwapchain(sc)
			return err
		}
		err = r.loop(win.Window, mode, opts.frames)
		r.destroy()
		sc = r.sc
		if err != nil {
			ctx.DestroySwapchain(sc)
			return err
		}
	}
	ctx.DestroySwapchain(sc)
	return nil
}

func printDevice(ctx *gfx.Context) {
	props := ctx.PhysicalDeviceProperties()
	fmt.Printf("device: %s (api %s, driver %#x)\n", ctx.DeviceName(),
		gfx.VersionFromVk(props.ApiVersion), props.DriverVersion)
	q := ctx.QueueFamilies()
	fmt.Printf("queue families: graphics %d, present %d (shared %v)\n", q.Graphics, q.Present, q.GPShared())

	mem := ctx.MemoryProperties()
	for i := uint32(0); i < mem.MemoryHeapCount; i++ {
		heap := mem.MemoryHeaps[i]
		heap.Deref()
		local := ""
		if heap.Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0 {
			local = " device-local"
		}
		fmt.Printf("heap %d: %s%s\n", i, units.BytesSize(float64(heap.Size)), local)
	}
	if depth := ctx.FindSuitableDepthFormat(); depth != vk.FormatUndefined {
		fmt.Printf("depth format: %d\n", depth)
	}
}

// printProjection prints the Vulkan clip-space perspective matrix for the
// swapchain's aspect ratio, row by row.
func printProjection(extent vk.Extent2D, fovDegrees float32) {
	aspect := float32(extent.Width) / float32(extent.Height)
	var proj lin.Mat4x4
	gfx.PerspectiveProjection(&proj, lin.DegreesToRadians(fovDegrees), aspect, 0.1, 100)
	fmt.Printf("projection (fov %.1f, aspect %.3f):\n", fovDegrees, aspect)
	for row := 0; row < 4; row++ {
		fmt.Printf("  % .4f % .4f % .4f % .4f\n", proj[0][row], proj[1][row], proj[2][row], proj[3][row])
	}
}

// clearRenderer owns the render pass and framebuffers needed to clear the
// swapchain; gfx leaves render pass construction to its callers.
type clearRenderer struct {
	ctx          *gfx.Context
	sc           *gfx.SwapchainInfo
	depth        *gfx.DepthBuffer
	renderPass   vk.RenderPass
	framebuffers []vk.Framebuffer
	frames       *gfx.FrameManager
}

func newClearRenderer(ctx *gfx.Context, sc *gfx.SwapchainInfo, framesInFlight int) (*clearRenderer, error) {
	r := &clearRenderer{ctx: ctx, sc: sc}
	var err error
	if r.frames, err = gfx.NewFrameManager(ctx, framesInFlight); err != nil {
		return nil, err
	}
	if err = r.build(); err != nil {
		r.destroy()
		return nil, err
	}
	return r, nil
}

func (r *clearRenderer) build() (err error) {
	if r.depth, err = r.ctx.CreateDepthBuffer(r.sc.Extent, vk.FormatUndefined); err != nil {
		return err
	}
	if r.renderPass == vk.NullRenderPass {
		if r.renderPass, err = createClearRenderPass(r.ctx.Device(), r.sc.SurfaceFormat.Format, r.depth.Format); err != nil {
			return err
		}
	}
	r.framebuffers, err = r.ctx.CreateFramebuffers(r.renderPass, r.sc, r.depth)
	return err
}

func (r *clearRenderer) teardown() {
	r.ctx.DestroyFramebuffers(r.framebuffers)
	r.framebuffers = nil
	r.ctx.DestroyDepthBuffer(r.depth)
	r.depth = nil
}

func (r *clearRenderer) recreate(mode vk.PresentMode) error {
	r.teardown()
	sc, err := r.ctx.RecreateSwapchain(r.sc, mode)
	if err != nil {
		return err
	}
	r.sc = sc
	r.frames.SwapchainRecreated()
	return r.build()
}

func (r *clearRenderer) destroy() {
	if r.frames != nil {
		r.frames.Destroy()
	}
	r.teardown()
	if r.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(r.ctx.Device(), r.renderPass, nil)
		r.renderPass = vk.NullRenderPass
	}
}

func (r *clearRenderer) loop(win *glfw.Window, mode vk.PresentMode, count int) error {
	for n := 0; n < count && !win.ShouldClose(); n++ {
		glfw.PollEvents()
		w, h := win.GetFramebufferSize()
		if w == 0 || h == 0 {
			glfw.WaitEvents()
			continue
		}

		frame, ret, err := r.frames.Begin(r.sc)
		if err != nil {
			return err
		}
		if frame == nil {
			if err := r.recreate(mode); err != nil {
				return err
			}
			continue
		}
		if err := r.record(frame, n); err != nil {
			return err
		}
		if err := r.frames.Submit(frame); err != nil {
			return err
		}
		present := r.frames.Present(r.sc, frame)
		if gfx.SwapchainOutOfDate(ret) || gfx.SwapchainOutOfDate(present) {
			if err := r.recreate(mode); err != nil {
				return err
			}
		} else if present != vk.Success {
			return errors.Wrap(gfx.NewError(present), "vkQueuePresentKHR")
		}
	}
	return r.ctx.WaitIdle()
}

func (r *clearRenderer) record(frame *gfx.Frame, n int) error {
	cmd := frame.Command
	if err := r.ctx.BeginCommandBuffer(cmd, vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)); err != nil {
		return err
	}
	shade := float32(n%120) / 120
	r.ctx.BeginRenderPass(cmd, r.renderPass, r.framebuffers[frame.ImageIndex], r.sc.Extent, []vk.ClearValue{
		vk.NewClearValue([]float32{0.1, shade, 0.3, 1}),
		vk.NewClearDepthStencil(1, 0),
	}, vk.SubpassContentsInline)
	r.ctx.EndRenderPass(cmd)
	return r.ctx.EndCommandBuffer(cmd)
}

func createClearRenderPass(device vk.Device, color, depth vk.Format) (vk.RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         color,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}, {
		Format:         depth,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}}
	colorRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	depthRef := &vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	var renderPass vk.RenderPass
	ret := vk.CreateRenderPass(device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses: []vk.SubpassDescription{{
			PipelineBindPoint:       vk.PipelineBindPointGraphics,
			ColorAttachmentCount:    1,
			PColorAttachments:       colorRef,
			PDepthStencilAttachment: depthRef,
		}},
		DependencyCount: 1,
		PDependencies: []vk.SubpassDependency{{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
		}},
	}, nil, &renderPass)
	if err := gfx.NewError(ret); err != nil {
		return vk.NullRenderPass, errors.Wrap(err, "vkCreateRenderPass")
	}
	return renderPass, nil
}
