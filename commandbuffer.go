package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CommandBuffer records a sequence of commands to submit to a queue. The Cmd
// methods on Device record into it.
type CommandBuffer struct {
	Pool            *CommandPool
	VKCommandBuffer vk.CommandBuffer
}

// BeginCommandBuffer starts recording. oneTime marks the buffer as submitted
// once and then reset or freed.
func (d *Device) BeginCommandBuffer(cb *CommandBuffer, oneTime bool) error {
	var beginInfo = vk.CommandBufferBeginInfo{}
	beginInfo.SType = vk.StructureTypeCommandBufferBeginInfo
	if oneTime {
		beginInfo.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	err := vk.Error(vk.BeginCommandBuffer(cb.VKCommandBuffer, &beginInfo))
	return errors.Wrap(err, "vkBeginCommandBuffer")
}

func (d *Device) EndCommandBuffer(cb *CommandBuffer) error {
	return errors.Wrap(vk.Error(vk.EndCommandBuffer(cb.VKCommandBuffer)), "vkEndCommandBuffer")
}

func (d *Device) ResetCommandBuffer(cb *CommandBuffer) error {
	return errors.Wrap(vk.Error(vk.ResetCommandBuffer(cb.VKCommandBuffer, 0)), "vkResetCommandBuffer")
}

func (d *Device) CmdBeginRenderPass(cb *CommandBuffer, rp *RenderPass, fb *Framebuffer, extent vk.Extent2D, clears []vk.ClearValue) {
	renderPassBeginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.VKRenderPass,
		Framebuffer: fb.VKFramebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clears)),
		PClearValues:    clears,
	}
	vk.CmdBeginRenderPass(cb.VKCommandBuffer, &renderPassBeginInfo, vk.SubpassContentsInline)
}

func (d *Device) CmdEndRenderPass(cb *CommandBuffer) {
	vk.CmdEndRenderPass(cb.VKCommandBuffer)
}

func (d *Device) CmdBindPipeline(cb *CommandBuffer, p *Pipeline) {
	vk.CmdBindPipeline(cb.VKCommandBuffer, vk.PipelineBindPointGraphics, p.VKPipeline)
}

func (d *Device) CmdSetViewport(cb *CommandBuffer, viewport vk.Viewport) {
	vk.CmdSetViewport(cb.VKCommandBuffer, 0, 1, []vk.Viewport{viewport})
}

func (d *Device) CmdSetScissor(cb *CommandBuffer, scissor vk.Rect2D) {
	vk.CmdSetScissor(cb.VKCommandBuffer, 0, 1, []vk.Rect2D{scissor})
}

func (d *Device) CmdBindDescriptorSet(cb *CommandBuffer, layout *PipelineLayout, set *DescriptorSet) {
	vk.CmdBindDescriptorSets(cb.VKCommandBuffer, vk.PipelineBindPointGraphics,
		layout.VKPipelineLayout, 0, 1, []vk.DescriptorSet{set.VKDescriptorSet}, 0, nil)
}

func (d *Device) CmdBindVertexBuffer(cb *CommandBuffer, b *Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(cb.VKCommandBuffer, 0, 1, []vk.Buffer{b.VKBuffer}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (d *Device) CmdBindIndexBuffer(cb *CommandBuffer, b *Buffer, offset uint64, indexType vk.IndexType) {
	vk.CmdBindIndexBuffer(cb.VKCommandBuffer, b.VKBuffer, vk.DeviceSize(offset), indexType)
}

func (d *Device) CmdDrawIndexed(cb *CommandBuffer, indexCount uint32) {
	vk.CmdDrawIndexed(cb.VKCommandBuffer, indexCount, 1, 0, 0, 0)
}

func (d *Device) CmdCopyBuffer(cb *CommandBuffer, src, dst *Buffer, size uint64) {
	regions := []vk.BufferCopy{{SrcOffset: 0, DstOffset: 0, Size: vk.DeviceSize(size)}}
	vk.CmdCopyBuffer(cb.VKCommandBuffer, src.VKBuffer, dst.VKBuffer, 1, regions)
}

func (d *Device) CmdCopyBufferToImage(cb *CommandBuffer, src *Buffer, dst *Image, extent vk.Extent2D) {
	vk.CmdCopyBufferToImage(cb.VKCommandBuffer, src.VKBuffer, dst.VKImage, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{},
		ImageExtent: vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
	}})
}

func (d *Device) CmdPipelineBarrier(cb *CommandBuffer, b ImageBarrier) {
	var barrier = vk.ImageMemoryBarrier{}
	barrier.SType = vk.StructureTypeImageMemoryBarrier
	barrier.OldLayout = b.OldLayout
	barrier.NewLayout = b.NewLayout
	barrier.SrcQueueFamilyIndex = vk.QueueFamilyIgnored
	barrier.DstQueueFamilyIndex = vk.QueueFamilyIgnored
	barrier.Image = b.Image.VKImage
	barrier.SubresourceRange.AspectMask = b.Aspect
	barrier.SubresourceRange.BaseMipLevel = 0
	barrier.SubresourceRange.LevelCount = 1
	barrier.SubresourceRange.BaseArrayLayer = 0
	barrier.SubresourceRange.LayerCount = 1
	barrier.SrcAccessMask = b.SrcAccess
	barrier.DstAccessMask = b.DstAccess

	vk.CmdPipelineBarrier(cb.VKCommandBuffer, b.SrcStage, b.DstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}
