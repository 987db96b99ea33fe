package gfx

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

func framebufferAttachments(view vk.ImageView, depth *DepthBuffer) []vk.ImageView {
	if depth == nil || depth.View == vk.NullImageView {
		return []vk.ImageView{view}
	}
	return []vk.ImageView{view, depth.View}
}

// CreateFramebuffer wraps one color view, plus the depth view when depth is
// not nil, for renderPass.
func (c *Context) CreateFramebuffer(renderPass vk.RenderPass, view vk.ImageView, depth *DepthBuffer, extent vk.Extent2D) (vk.Framebuffer, error) {
	attachments := framebufferAttachments(view, depth)
	var fb vk.Framebuffer
	ret := vk.CreateFramebuffer(c.device, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}, nil, &fb)
	if err := NewError(ret); err != nil {
		return vk.NullFramebuffer, errors.Wrap(err, "vkCreateFramebuffer")
	}
	return fb, nil
}

// CreateFramebuffers creates one framebuffer per swapchain view. On failure
// the ones already created are destroyed.
func (c *Context) CreateFramebuffers(renderPass vk.RenderPass, sc *SwapchainInfo, depth *DepthBuffer) ([]vk.Framebuffer, error) {
	i := 0
	fbs, err := createBatch(len(sc.ImageViews), func() (vk.Framebuffer, error) {
		view := sc.ImageViews[i]
		i++
		return c.CreateFramebuffer(renderPass, view, depth, sc.Extent)
	}, c.DestroyFramebuffer)
	if err != nil {
		return nil, errors.Wrapf(err, "framebuffer %d of %d", i, len(sc.ImageViews))
	}
	return fbs, nil
}

func (c *Context) DestroyFramebuffer(fb vk.Framebuffer) {
	if fb != vk.NullFramebuffer {
		vk.DestroyFramebuffer(c.device, fb, nil)
	}
}

func (c *Context) DestroyFramebuffers(fbs []vk.Framebuffer) {
	for _, fb := range fbs {
		c.DestroyFramebuffer(fb)
	}
}
