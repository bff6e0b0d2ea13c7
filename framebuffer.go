package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Framebuffer binds concrete image views to the attachments of a render pass.
type Framebuffer struct {
	Device        *Device
	VKFramebuffer vk.Framebuffer
}

// CreateFramebuffer creates a framebuffer for rp. attachments must be given
// in the render pass attachment order.
func (d *Device) CreateFramebuffer(rp *RenderPass, extent vk.Extent2D, attachments ...*ImageView) (*Framebuffer, error) {
	views := make([]vk.ImageView, len(attachments))
	for i, a := range attachments {
		views[i] = a.VKImageView
	}

	fbCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp.VKRenderPass,
		Layers:          1,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           extent.Width,
		Height:          extent.Height,
	}

	var fb vk.Framebuffer
	err := vk.Error(vk.CreateFramebuffer(d.VKDevice, &fbCreateInfo, nil, &fb))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateFramebuffer")
	}
	return &Framebuffer{Device: d, VKFramebuffer: fb}, nil
}

func (d *Device) DestroyFramebuffer(fb *Framebuffer) {
	vk.DestroyFramebuffer(d.VKDevice, fb.VKFramebuffer, nil)
}
