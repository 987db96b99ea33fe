package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrMissingValidationLayer is returned by Initialize when a configured
	// validation layer is not installed.
	ErrMissingValidationLayer = errors.New("gfx: missing validation layer")

	// ErrMissingInstanceExtension is returned by Initialize when the window
	// system requires an instance extension the loader does not expose.
	ErrMissingInstanceExtension = errors.New("gfx: missing instance extension")

	// ErrNoSuitableDevice means no physical device passed every suitability check.
	ErrNoSuitableDevice = errors.New("gfx: no suitable physical device")

	// ErrUnsupportedPresentMode is returned by CreateSwapchain for a present
	// mode the device/surface pair does not advertise.
	ErrUnsupportedPresentMode = errors.New("gfx: unsupported present mode")

	// ErrBufferOverflow is returned when a write would go past the end of a buffer.
	ErrBufferOverflow = errors.New("gfx: buffer write out of bounds")

	// ErrNotInitialized is returned by device-level calls on a Context that
	// was never initialized or has been disposed.
	ErrNotInitialized = errors.New("gfx: context not initialized")

	ErrSwapchainCreation      = errors.New("gfx: swapchain creation failed")
	ErrSyncObjectCreation     = errors.New("gfx: sync object creation failed")
	ErrNoSuitableMemoryType   = errors.New("gfx: no suitable memory type")
	ErrUnsupportedDepthFormat = errors.New("gfx: unsupported depth format")
)

// NewError converts a non-success vk.Result into an error carrying the
// caller's stack. It returns nil for vk.Success.
func NewError(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	err := vk.Error(ret)
	if err == nil {
		err = errors.Newf("result %d", ret)
	}
	return errors.WrapWithDepthf(1, err, "vulkan error (%d)", ret)
}

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

func orPanic(err error) {
	if err != nil {
		panic(err)
	}
}

// checkErr turns a panic raised by orPanic back into an error.
func checkErr(err *error) {
	if v := recover(); v != nil {
		if e, ok := v.(error); ok {
			*err = e
			return
		}
		*err = errors.Newf("%+v", v)
	}
}
