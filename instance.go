package gfx

import (
	"context"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"
)

// requireNames fails with kind, listing every required name absent from
// available.
func requireNames(required, available []string, kind error) error {
	if missing := missingNames(required, available); len(missing) > 0 {
		return errors.Wrapf(kind, "%v", missing)
	}
	return nil
}

// checkValidationLayers fails with ErrMissingValidationLayer naming every
// requested layer the loader does not know.
func checkValidationLayers(required []string) error {
	if len(required) == 0 {
		return nil
	}
	available, err := ValidationLayers()
	if err != nil {
		return errors.Wrap(err, "enumerating validation layers")
	}
	return requireNames(required, available, ErrMissingValidationLayer)
}

func checkInstanceExtensions(required []string) error {
	available, err := InstanceExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerating instance extensions")
	}
	return requireNames(required, available, ErrMissingInstanceExtension)
}

func createInstance(app AppInfo, extensions, layers []string) (vk.Instance, error) {
	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        app.vulkan(),
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}, nil, &instance)
	if err := NewError(ret); err != nil {
		return nil, errors.Wrap(err, "vkCreateInstance")
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.Wrap(err, "loading instance functions")
	}
	return instance, nil
}

func createDebugCallback(instance vk.Instance, log *slog.Logger) (vk.DebugReportCallback, error) {
	var callback vk.DebugReportCallback
	ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit),
		PfnCallback: debugReportFunc(log),
	}, nil, &callback)
	if err := NewError(ret); err != nil {
		return vk.NullDebugReportCallback, errors.Wrap(err, "vkCreateDebugReportCallback")
	}
	return callback, nil
}

func debugReportLevel(flags vk.DebugReportFlags) slog.Level {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return slog.LevelError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		return slog.LevelWarn
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func debugReportFunc(log *slog.Logger) vk.DebugReportCallbackFunc {
	return func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
		object uint64, location uint, messageCode int32, pLayerPrefix string,
		pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

		log.Log(context.Background(), debugReportLevel(flags), pMessage,
			slog.String("layer", pLayerPrefix),
			slog.Int("code", int(messageCode)))
		return vk.Bool32(vk.False)
	}
}
