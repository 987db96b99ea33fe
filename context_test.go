package gfx

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

var (
	initOnce    sync.Once
	initErr     error
	initialized bool
)

func TestMain(m *testing.M) {
	code := m.Run()
	if initialized {
		Terminate()
	}
	os.Exit(code)
}

// requireVulkan initializes glfw and the loader once, or skips the test.
func requireVulkan(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("GPU tests disabled in short mode")
	}
	initOnce.Do(func() {
		initErr = Init()
		initialized = initErr == nil
	})
	if initErr != nil {
		t.Skipf("vulkan unavailable: %v", initErr)
	}
}

func newTestWindow(t *testing.T) *GLFWWindow {
	t.Helper()
	requireVulkan(t)
	glfw.WindowHint(glfw.Visible, glfw.False)
	win, err := CreateGLFWWindow(320, 240, "gfx test", false)
	if err != nil {
		t.Skipf("no window: %v", err)
	}
	t.Cleanup(win.Destroy)
	return win
}

// newTestContext brings up a context on a hidden window, or skips the test
// when the machine has no Vulkan loader, display or suitable GPU.
func newTestContext(t *testing.T) (*Context, *GLFWWindow) {
	t.Helper()
	win := newTestWindow(t)

	cfg := DefaultConfig()
	if available, err := ValidationLayers(); err != nil || len(missingNames(cfg.ValidationLayers, available)) > 0 {
		cfg.ValidationLayers = nil
	}
	ctx := NewContext(win, cfg)
	if err := ctx.Initialize(DefaultAppInfo()); err != nil {
		if errors.Is(err, ErrNoSuitableDevice) || errors.Is(err, ErrMissingInstanceExtension) {
			t.Skipf("no usable device: %v", err)
		}
		require.NoError(t, err)
	}
	t.Cleanup(ctx.Dispose)
	return ctx, win
}

// surfacelessWindow fails surface creation after the instance exists.
type surfacelessWindow struct {
	*GLFWWindow
}

func (surfacelessWindow) CreateSurface(vk.Instance) (vk.Surface, error) {
	return vk.NullSurface, errors.New("no surface for you")
}

func TestDisposeWithoutDevice(t *testing.T) {
	c := NewContext(nil, nil)
	assert.NotPanics(t, func() {
		c.Dispose()
		c.Dispose()
	})
	assert.Nil(t, c.Device())
	assert.False(t, c.QueueFamilies().IsValid())
}

func TestUninitializedContext(t *testing.T) {
	c := NewContext(nil, nil)

	err := c.WaitIdle()
	assert.True(t, errors.Is(err, ErrNotInitialized))

	_, err = c.SwapchainSupport()
	assert.True(t, errors.Is(err, ErrNotInitialized))
	assert.False(t, c.IsPresentModeAvailable(vk.PresentModeFifo))

	sc, err := c.CreateSwapchain(vk.PresentModeFifo)
	assert.Nil(t, sc)
	assert.True(t, errors.Is(err, ErrNotInitialized))
	assert.True(t, errors.Is(err, ErrSwapchainCreation))

	sc, err = c.RecreateSwapchain(&SwapchainInfo{}, vk.PresentModeFifo)
	assert.Nil(t, sc)
	assert.True(t, errors.Is(err, ErrNotInitialized))
}

func TestInitializeMissingValidationLayer(t *testing.T) {
	win := newTestWindow(t)
	cfg := DefaultConfig()
	cfg.ValidationLayers = []string{"VK_LAYER_gfx_not_installed"}

	c := NewContext(win, cfg)
	err := c.Initialize(DefaultAppInfo())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingValidationLayer))
	assert.Contains(t, err.Error(), "VK_LAYER_gfx_not_installed")
	assert.Nil(t, c.Instance())
}

func TestInitializeReleasesOnFailure(t *testing.T) {
	win := newTestWindow(t)
	cfg := DefaultConfig()
	cfg.ValidationLayers = nil

	c := NewContext(surfacelessWindow{win}, cfg)
	err := c.Initialize(DefaultAppInfo())
	require.Error(t, err)
	if errors.Is(err, ErrMissingInstanceExtension) {
		t.Skipf("window extensions unavailable: %v", err)
	}
	assert.Contains(t, err.Error(), "no surface for you")

	assert.Nil(t, c.Instance())
	assert.Equal(t, vk.NullSurface, c.Surface())
	assert.Nil(t, c.Device())
	assert.Nil(t, c.PhysicalDevice())
	assert.False(t, c.QueueFamilies().IsValid())
	assert.NotPanics(t, c.Dispose)
}

func TestContextInitialize(t *testing.T) {
	ctx, _ := newTestContext(t)

	assert.NotNil(t, ctx.Instance())
	assert.NotEqual(t, vk.NullSurface, ctx.Surface())
	assert.NotNil(t, ctx.PhysicalDevice())
	assert.NotNil(t, ctx.Device())
	assert.NotNil(t, ctx.GraphicsQueue())
	assert.NotNil(t, ctx.PresentQueue())
	assert.True(t, ctx.QueueFamilies().IsValid())
	assert.NotEmpty(t, ctx.DeviceName())
	assert.NotZero(t, ctx.MemoryProperties().MemoryTypeCount)
	assert.True(t, ctx.IsPresentModeAvailable(vk.PresentModeFifo))
	assert.Error(t, ctx.Initialize(DefaultAppInfo()), "second initialize is refused")
	require.NoError(t, ctx.WaitIdle())
}

func TestContextDisposeTwice(t *testing.T) {
	ctx, _ := newTestContext(t)
	ctx.Dispose()
	assert.Nil(t, ctx.Device())
	assert.Nil(t, ctx.Instance())
	assert.Equal(t, vk.NullSurface, ctx.Surface())
	assert.NotPanics(t, ctx.Dispose)
}

func hostBuffer(t *testing.T, ctx *Context, size vk.DeviceSize, usage vk.BufferUsageFlagBits) *Buffer {
	t.Helper()
	buf, err := ctx.CreateBuffer(size, vk.BufferUsageFlags(usage),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	require.NoError(t, err)
	t.Cleanup(func() { ctx.DestroyBuffer(buf) })
	return buf
}

func TestBufferRoundTrip(t *testing.T) {
	ctx, _ := newTestContext(t)
	buf := hostBuffer(t, ctx, 64, vk.BufferUsageVertexBufferBit)
	assert.Equal(t, vk.DeviceSize(64), buf.Size)

	data := []byte("the quick brown fox")
	require.NoError(t, ctx.UpdateBuffer(buf, data, 8))
	got, err := ctx.ReadBuffer(buf, 8, vk.DeviceSize(len(data)))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	err = ctx.UpdateBuffer(buf, make([]byte, 60), 8)
	assert.True(t, errors.Is(err, ErrBufferOverflow))
	require.NoError(t, ctx.UpdateBuffer(buf, make([]byte, 56), 8))
}

func TestCopyBuffer(t *testing.T) {
	ctx, _ := newTestContext(t)
	pool, err := ctx.CreateGraphicsCommandPool()
	require.NoError(t, err)
	defer ctx.DestroyCommandPool(pool)

	src := hostBuffer(t, ctx, 32, vk.BufferUsageTransferSrcBit)
	dst := hostBuffer(t, ctx, 32, vk.BufferUsageTransferDstBit)
	payload := bytes.Repeat([]byte{0xab, 0xcd}, 16)
	require.NoError(t, ctx.UpdateBuffer(src, payload, 0))
	require.NoError(t, ctx.CopyBuffer(pool, src, dst, 32))

	got, err := ctx.ReadBuffer(dst, 0, 32)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDestroyBufferClears(t *testing.T) {
	ctx, _ := newTestContext(t)
	buf, err := ctx.CreateBuffer(16, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit))
	require.NoError(t, err)
	ctx.DestroyBuffer(buf)
	assert.Equal(t, Buffer{}, *buf)
	assert.NotPanics(t, func() { ctx.DestroyBuffer(buf) })
}

func TestFencesAndSemaphores(t *testing.T) {
	ctx, _ := newTestContext(t)

	fences, err := ctx.CreateFences(3, vk.FenceCreateFlags(vk.FenceCreateSignaledBit))
	require.NoError(t, err)
	defer ctx.DestroyFences(fences)
	require.Len(t, fences, 3)

	require.NoError(t, ctx.WaitForFence(fences[0], vk.MaxUint64))
	require.NoError(t, ctx.ResetFence(fences[0]))
	assert.Error(t, ctx.WaitForFence(fences[0], 0), "unsignaled fence times out")

	sems, err := ctx.CreateSemaphores(2)
	require.NoError(t, err)
	defer ctx.DestroySemaphores(sems)
	assert.Len(t, sems, 2)
	assert.NotEqual(t, sems[0], sems[1])
}

func TestSwapchainLifecycle(t *testing.T) {
	ctx, _ := newTestContext(t)

	sc, err := ctx.CreateSwapchain(vk.PresentModeFifo)
	require.NoError(t, err)
	assert.NotEqual(t, vk.NullSwapchain, sc.Swapchain)
	assert.NotEmpty(t, sc.Images)
	assert.Len(t, sc.ImageViews, len(sc.Images))
	assert.Equal(t, uint32(len(sc.Images)), sc.ImageCount)
	assert.NotZero(t, sc.Extent.Width)

	sc, err = ctx.RecreateSwapchain(sc, vk.PresentModeFifo)
	require.NoError(t, err)
	assert.Len(t, sc.ImageViews, len(sc.Images))

	ctx.DestroySwapchain(sc)
	assert.Equal(t, vk.NullSwapchain, sc.Swapchain)
	assert.Empty(t, sc.ImageViews)
}

func TestCreateSwapchainRejectsUnadvertisedMode(t *testing.T) {
	ctx, _ := newTestContext(t)
	support, err := ctx.SwapchainSupport()
	require.NoError(t, err)

	for mode := range presentModeNames {
		if hasPresentMode(support.PresentModes, mode) {
			assert.True(t, ctx.IsPresentModeAvailable(mode))
			continue
		}
		assert.False(t, ctx.IsPresentModeAvailable(mode))
		sc, err := ctx.CreateSwapchain(mode)
		assert.Nil(t, sc)
		assert.True(t, errors.Is(err, ErrUnsupportedPresentMode), PresentModeName(mode))
	}
}

func TestImageUploadAndSamplers(t *testing.T) {
	ctx, _ := newTestContext(t)
	pool, err := ctx.CreateGraphicsCommandPool()
	require.NoError(t, err)
	defer ctx.DestroyCommandPool(pool)

	img, err := ctx.CreateImage(ImageData{
		Pixels: bytes.Repeat([]byte{255, 0, 0, 255}, 4),
		Width:  2,
		Height: 2,
		Format: vk.FormatR8g8b8a8Unorm,
	}, pool, vk.ImageUsageFlags(vk.ImageUsageSampledBit))
	require.NoError(t, err)
	assert.NotEqual(t, vk.NullImageView, img.View)
	ctx.DestroyImage(img)
	assert.Equal(t, vk.NullImage, img.Image)

	sampler, err := ctx.CreateTextureSampler(true, 16)
	require.NoError(t, err)
	ctx.DestroySampler(sampler)
	cube, err := ctx.CreateCubeMapSampler(false, 0)
	require.NoError(t, err)
	ctx.DestroySampler(cube)
}

func TestDepthBuffer(t *testing.T) {
	ctx, _ := newTestContext(t)
	format := ctx.FindSuitableDepthFormat()
	require.NotEqual(t, vk.FormatUndefined, format)
	assert.Contains(t, DepthFormatCandidates, format)

	depth, err := ctx.CreateDepthBuffer(vk.Extent2D{Width: 64, Height: 64}, format)
	require.NoError(t, err)
	assert.Equal(t, format, depth.Format)
	ctx.DestroyDepthBuffer(depth)
	assert.Equal(t, vk.NullImageView, depth.View)
}

func TestFrameManagerPresents(t *testing.T) {
	ctx, _ := newTestContext(t)
	sc, err := ctx.CreateSwapchain(vk.PresentModeFifo)
	require.NoError(t, err)
	defer ctx.DestroySwapchain(sc)

	frames, err := NewFrameManager(ctx, 2)
	require.NoError(t, err)
	defer frames.Destroy()
	assert.Equal(t, 2, frames.FramesInFlight())

	for i := 0; i < 4; i++ {
		frame, ret, err := frames.Begin(sc)
		require.NoError(t, err)
		if frame == nil {
			t.Skipf("swapchain went out of date: %v", ret)
		}
		assert.Equal(t, i%2, frame.Slot)
		assert.Equal(t, vk.Success, vk.GetFenceStatus(ctx.Device(), frame.InFlight),
			"slot fence stays signaled until submit")

		require.NoError(t, ctx.BeginCommandBuffer(frame.Command, vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)))
		vk.CmdPipelineBarrier(frame.Command,
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
			0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
				SType:               vk.StructureTypeImageMemoryBarrier,
				OldLayout:           vk.ImageLayoutUndefined,
				NewLayout:           vk.ImageLayoutPresentSrc,
				SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
				DstQueueFamilyIndex: vk.QueueFamilyIgnored,
				Image:               sc.Images[frame.ImageIndex],
				SubresourceRange: vk.ImageSubresourceRange{
					AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
					LevelCount: 1,
					LayerCount: 1,
				},
			}})
		require.NoError(t, ctx.EndCommandBuffer(frame.Command))
		require.NoError(t, frames.Submit(frame))

		ret = frames.Present(sc, frame)
		if SwapchainOutOfDate(ret) {
			t.Skipf("swapchain went out of date: %v", ret)
		}
		require.Contains(t, []vk.Result{vk.Success, vk.Suboptimal}, ret)
	}
}
