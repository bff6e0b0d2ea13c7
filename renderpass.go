package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// RenderPass is a single subpass render pass with one color attachment and
// an optional depth attachment.
type RenderPass struct {
	Device       *Device
	VKRenderPass vk.RenderPass
	// Attachments is the number of attachments, and so of clear values.
	Attachments int
}

// RenderPassConfig selects the attachment formats. A DepthFormat of
// vk.FormatUndefined leaves the depth attachment out.
type RenderPassConfig struct {
	ColorFormat vk.Format
	DepthFormat vk.Format
}

// HasDepth reports whether the render pass gets a depth attachment.
func (c RenderPassConfig) HasDepth() bool {
	return c.DepthFormat != vk.FormatUndefined
}

// VKRenderPassCreateInfo builds the create info: color is attachment 0 and
// ends in the present layout, depth when enabled is attachment 1.
func (c RenderPassConfig) VKRenderPassCreateInfo() vk.RenderPassCreateInfo {
	attachmentDescriptions := []vk.AttachmentDescription{{
		Format:         c.ColorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachments := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachments,
	}

	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	access := vk.AccessFlags(vk.AccessColorAttachmentWriteBit)

	if c.HasDepth() {
		attachmentDescriptions = append(attachmentDescriptions, vk.AttachmentDescription{
			Format:         c.DepthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		stages |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
		access |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  stages,
		SrcAccessMask: 0,
		DstStageMask:  stages,
		DstAccessMask: access,
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
}

func (d *Device) CreateRenderPass(config RenderPassConfig) (*RenderPass, error) {
	renderPassCreateInfo := config.VKRenderPassCreateInfo()

	var renderPass vk.RenderPass
	err := vk.Error(vk.CreateRenderPass(d.VKDevice, &renderPassCreateInfo, nil, &renderPass))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateRenderPass")
	}

	return &RenderPass{
		Device:       d,
		VKRenderPass: renderPass,
		Attachments:  int(renderPassCreateInfo.AttachmentCount),
	}, nil
}

func (d *Device) DestroyRenderPass(rp *RenderPass) {
	vk.DestroyRenderPass(d.VKDevice, rp.VKRenderPass, nil)
}
