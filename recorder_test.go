package vkframe

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

type staticSwapchain struct {
	state *SwapchainState
}

func (s staticSwapchain) Current() *SwapchainState { return s.state }

func newTestRecorder(d CommandDriver, attachments int, config RecorderConfig) *CommandRecorder {
	state := &SwapchainState{
		Extent:       vk.Extent2D{Width: 800, Height: 600},
		Framebuffers: []*Framebuffer{{}, {}, {}},
	}
	sets := []*DescriptorSet{{}, {}}
	geometry := Geometry{Buffer: &Buffer{}, IndexOffset: 96, IndexCount: 36}
	return NewCommandRecorder(d, staticSwapchain{state}, &RenderPass{Attachments: attachments},
		&Pipeline{}, &PipelineLayout{}, sets, geometry, config)
}

func TestRecordOrder(t *testing.T) {
	d := newFakeDriver()
	r := newTestRecorder(d, 2, RecorderConfig{Depth: true, DynamicViewport: true, IndexType: vk.IndexTypeUint32})
	cb := &CommandBuffer{}

	require.NoError(t, r.Record(cb, 2, 1))

	assert.Equal(t, []string{
		"beginRenderPass 800x600 clears=2",
		"bindPipeline",
		"setViewport 800x600",
		"setScissor 800x600",
		"bindDescriptorSet",
		"bindVertexBuffer 0",
		"bindIndexBuffer 96",
		"drawIndexed 36",
		"endRenderPass",
		"end",
	}, d.commands[cb])
	d.assertClean(t)
}

func TestRecordStaticViewport(t *testing.T) {
	d := newFakeDriver()
	r := newTestRecorder(d, 1, RecorderConfig{})
	cb := &CommandBuffer{}

	require.NoError(t, r.Record(cb, 0, 0))
	assert.NotContains(t, d.commands[cb], "setViewport 800x600")
	assert.Equal(t, "beginRenderPass 800x600 clears=1", d.commands[cb][0])
}

func TestClearValues(t *testing.T) {
	d := newFakeDriver()
	assert.Len(t, newTestRecorder(d, 1, RecorderConfig{}).ClearValues(), 1)
	assert.Len(t, newTestRecorder(d, 2, RecorderConfig{Depth: true}).ClearValues(), 2)
}

func TestRecordRejects(t *testing.T) {
	d := newFakeDriver()
	cb := &CommandBuffer{}

	mismatch := newTestRecorder(d, 1, RecorderConfig{Depth: true})
	err := mismatch.Record(cb, 0, 0)
	assert.Equal(t, ErrClearValueMismatch, errors.Cause(err))

	r := newTestRecorder(d, 1, RecorderConfig{})
	err = r.Record(cb, 3, 0)
	assert.Equal(t, ErrImageIndex, errors.Cause(err))

	err = r.Record(cb, 0, 2)
	assert.Equal(t, ErrImageIndex, errors.Cause(err))

	assert.Empty(t, d.commands[cb], "nothing recorded on a rejected call")
	assert.False(t, d.recording[cb])
}
