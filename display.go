package gfx

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Window is the windowing system as the Context sees it.
type Window interface {
	// RequiredInstanceExtensions lists the instance extensions needed to
	// present to this window.
	RequiredInstanceExtensions() []string
	// FramebufferSize returns the drawable size in pixels.
	FramebufferSize() (width, height int)
	// CreateSurface creates a presentation surface for instance.
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

// Init initializes glfw and points the Vulkan loader at glfw's
// vkGetInstanceProcAddr. Must be called on the main thread before anything
// else in this package.
func Init() error {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "glfw init")
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		glfw.Terminate()
		return errors.Wrap(err, "vulkan loader init")
	}
	return nil
}

// Terminate shuts glfw down. Call it last, on the main thread.
func Terminate() {
	glfw.Terminate()
}

// GLFWWindow adapts a glfw window created with the NoAPI client hint.
type GLFWWindow struct {
	*glfw.Window
}

func NewGLFWWindow(w *glfw.Window) *GLFWWindow {
	return &GLFWWindow{Window: w}
}

// CreateGLFWWindow creates a window with no client API, as Vulkan requires.
func CreateGLFWWindow(width, height int, title string, resizable bool) (*GLFWWindow, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	if resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}
	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating window")
	}
	return NewGLFWWindow(w), nil
}

func (w *GLFWWindow) RequiredInstanceExtensions() []string {
	return w.Window.GetRequiredInstanceExtensions()
}

func (w *GLFWWindow) FramebufferSize() (int, int) {
	return w.Window.GetFramebufferSize()
}

func (w *GLFWWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "creating window surface")
	}
	return vk.SurfaceFromPointer(ptr), nil
}
