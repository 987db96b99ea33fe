package gfx

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Buffer is a buffer handle with its bound memory.
type Buffer struct {
	Buffer vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
}

// CreateBuffer creates a buffer and binds freshly allocated memory with the
// requested properties at offset 0.
func (c *Context) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (*Buffer, error) {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(c.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if err := NewError(ret); err != nil {
		return nil, errors.Wrap(err, "vkCreateBuffer")
	}

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(c.device, buffer, &reqs)
	reqs.Deref()

	memory, err := c.allocateMemory(reqs, props)
	if err != nil {
		vk.DestroyBuffer(c.device, buffer, nil)
		return nil, err
	}
	if err := NewError(vk.BindBufferMemory(c.device, buffer, memory, 0)); err != nil {
		vk.FreeMemory(c.device, memory, nil)
		vk.DestroyBuffer(c.device, buffer, nil)
		return nil, errors.Wrap(err, "vkBindBufferMemory")
	}
	return &Buffer{Buffer: buffer, Memory: memory, Size: size}, nil
}

// checkRange fails with ErrBufferOverflow when [offset, offset+n) leaves a
// buffer of the given size.
func checkRange(size, offset vk.DeviceSize, n int) error {
	end := offset + vk.DeviceSize(n)
	if n < 0 || end < offset || end > size {
		return errors.Wrapf(ErrBufferOverflow, "offset %d + %d bytes > size %d", offset, n, size)
	}
	return nil
}

// UpdateBuffer copies data into host-visible buffer memory at offset.
func (c *Context) UpdateBuffer(buf *Buffer, data []byte, offset vk.DeviceSize) error {
	if err := checkRange(buf.Size, offset, len(data)); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	var ptr unsafe.Pointer
	ret := vk.MapMemory(c.device, buf.Memory, offset, vk.DeviceSize(len(data)), 0, &ptr)
	if err := NewError(ret); err != nil {
		return errors.Wrap(err, "vkMapMemory")
	}
	vk.Memcopy(ptr, data)
	vk.UnmapMemory(c.device, buf.Memory)
	return nil
}

// ReadBuffer reads size bytes back from host-visible buffer memory.
func (c *Context) ReadBuffer(buf *Buffer, offset, size vk.DeviceSize) ([]byte, error) {
	if err := checkRange(buf.Size, offset, int(size)); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	if size == 0 {
		return out, nil
	}
	var ptr unsafe.Pointer
	ret := vk.MapMemory(c.device, buf.Memory, offset, size, 0, &ptr)
	if err := NewError(ret); err != nil {
		return nil, errors.Wrap(err, "vkMapMemory")
	}
	copy(out, unsafe.Slice((*byte)(ptr), int(size)))
	vk.UnmapMemory(c.device, buf.Memory)
	return out, nil
}

// CopyBuffer copies size bytes from src to dst and waits for the copy.
func (c *Context) CopyBuffer(pool vk.CommandPool, src, dst *Buffer, size vk.DeviceSize) error {
	if size > src.Size || size > dst.Size {
		return errors.Wrapf(ErrBufferOverflow, "copy of %d bytes between buffers of %d and %d", size, src.Size, dst.Size)
	}
	return c.runOneShot(pool, c.graphicsQueue, func(cmd vk.CommandBuffer) {
		vk.CmdCopyBuffer(cmd, src.Buffer, dst.Buffer, 1, []vk.BufferCopy{{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		}})
	})
}

// DestroyBuffer frees the memory and the buffer and clears buf.
func (c *Context) DestroyBuffer(buf *Buffer) {
	if buf == nil {
		return
	}
	if buf.Buffer != vk.NullBuffer {
		vk.DestroyBuffer(c.device, buf.Buffer, nil)
	}
	if buf.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(c.device, buf.Memory, nil)
	}
	*buf = Buffer{}
}
