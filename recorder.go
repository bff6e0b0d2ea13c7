package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrClearValueMismatch means the recorder would clear a different number
	// of attachments than the render pass declares.
	ErrClearValueMismatch = errors.New("clear value count does not match render pass attachments")
	// ErrImageIndex is returned for an image index or frame slot outside the
	// framebuffers or descriptor sets the recorder knows about.
	ErrImageIndex = errors.New("image index out of range")
)

// RecorderConfig holds the variation points of the draw command buffer.
type RecorderConfig struct {
	// Depth adds a depth clear value. It must match the render pass.
	Depth bool
	// DynamicViewport sets viewport and scissor to the full extent on every
	// recording. Use it when the pipeline declares them dynamic.
	DynamicViewport bool
	ClearColor      [4]float32
	// IndexType of the index region. The renderer uses vk.IndexTypeUint32.
	IndexType vk.IndexType
}

// Geometry is a combined vertex and index buffer: vertices start at offset
// zero, indices at IndexOffset.
type Geometry struct {
	Buffer      *Buffer
	IndexOffset uint64
	IndexCount  uint32
}

// SwapchainSource hands out the live swapchain state.
type SwapchainSource interface {
	Current() *SwapchainState
}

// CommandRecorder records the single draw of the renderer into a frame
// slot's command buffer.
type CommandRecorder struct {
	driver     CommandDriver
	swapchain  SwapchainSource
	renderPass *RenderPass
	pipeline   *Pipeline
	layout     *PipelineLayout
	sets       []*DescriptorSet
	geometry   Geometry
	config     RecorderConfig
}

// NewCommandRecorder returns a recorder drawing geometry with pipeline. sets
// holds one descriptor set per frame slot.
func NewCommandRecorder(d CommandDriver, swapchain SwapchainSource, rp *RenderPass, pipeline *Pipeline, layout *PipelineLayout, sets []*DescriptorSet, geometry Geometry, config RecorderConfig) *CommandRecorder {
	return &CommandRecorder{
		driver:     d,
		swapchain:  swapchain,
		renderPass: rp,
		pipeline:   pipeline,
		layout:     layout,
		sets:       sets,
		geometry:   geometry,
		config:     config,
	}
}

// ClearValues returns one clear value per render pass attachment, color
// first and then depth.
func (r *CommandRecorder) ClearValues() []vk.ClearValue {
	c := r.config.ClearColor
	clears := []vk.ClearValue{vk.NewClearValue(c[:])}
	if r.config.Depth {
		clears = append(clears, vk.NewClearDepthStencil(1.0, 0))
	}
	return clears
}

// Record fills cb to draw into the framebuffer of imageIndex using the
// descriptor set of frame slot frame.
func (r *CommandRecorder) Record(cb *CommandBuffer, imageIndex uint32, frame int) error {
	state := r.swapchain.Current()
	if int(imageIndex) >= len(state.Framebuffers) {
		return errors.Wrapf(ErrImageIndex, "image %d of %d", imageIndex, len(state.Framebuffers))
	}
	if frame < 0 || frame >= len(r.sets) {
		return errors.Wrapf(ErrImageIndex, "frame %d of %d descriptor sets", frame, len(r.sets))
	}

	clears := r.ClearValues()
	if len(clears) != r.renderPass.Attachments {
		return errors.Wrapf(ErrClearValueMismatch, "%d clear values, %d attachments", len(clears), r.renderPass.Attachments)
	}

	d := r.driver
	if err := d.BeginCommandBuffer(cb, false); err != nil {
		return err
	}

	d.CmdBeginRenderPass(cb, r.renderPass, state.Framebuffers[imageIndex], state.Extent, clears)
	d.CmdBindPipeline(cb, r.pipeline)

	if r.config.DynamicViewport {
		d.CmdSetViewport(cb, FullViewport(state.Extent))
		d.CmdSetScissor(cb, vk.Rect2D{Extent: state.Extent})
	}

	d.CmdBindDescriptorSet(cb, r.layout, r.sets[frame])
	d.CmdBindVertexBuffer(cb, r.geometry.Buffer, 0)
	d.CmdBindIndexBuffer(cb, r.geometry.Buffer, r.geometry.IndexOffset, r.config.IndexType)
	d.CmdDrawIndexed(cb, r.geometry.IndexCount)
	d.CmdEndRenderPass(cb)

	return d.EndCommandBuffer(cb)
}

// FullViewport covers extent with the full depth range.
func FullViewport(extent vk.Extent2D) vk.Viewport {
	return vk.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MaxDepth: 1.0,
	}
}
