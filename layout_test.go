package vkframe

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestTransitionFor(t *testing.T) {
	tests := []struct {
		name      string
		old, new  vk.ImageLayout
		dstAccess vk.AccessFlags
		dstStage  vk.PipelineStageFlags
	}{
		{
			name: "upload destination",
			old:  vk.ImageLayoutUndefined, new: vk.ImageLayoutTransferDstOptimal,
			dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		},
		{
			name: "sampled after upload",
			old:  vk.ImageLayoutTransferDstOptimal, new: vk.ImageLayoutShaderReadOnlyOptimal,
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		},
		{
			name: "depth attachment",
			old:  vk.ImageLayoutUndefined, new: vk.ImageLayoutDepthStencilAttachmentOptimal,
			dstAccess: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := TransitionFor(tt.old, tt.new)
			require.NoError(t, err)
			assert.Equal(t, tt.dstAccess, tr.DstAccess)
			assert.Equal(t, tt.dstStage, tr.DstStage)
		})
	}
}

func TestTransitionForUnsupported(t *testing.T) {
	_, err := TransitionFor(vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferDstOptimal)
	assert.Equal(t, ErrUnsupportedTransition, errors.Cause(err))

	_, err = TransitionFor(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutUndefined)
	assert.Equal(t, ErrUnsupportedTransition, errors.Cause(err))
}

func TestAspectFor(t *testing.T) {
	depth := vk.ImageLayoutDepthStencilAttachmentOptimal
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit), AspectFor(vk.FormatD32Sfloat, depth))
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit), AspectFor(vk.FormatD32SfloatS8Uint, depth))
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit), AspectFor(vk.FormatD24UnormS8Uint, depth))
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectColorBit), AspectFor(vk.FormatR8g8b8a8Srgb, vk.ImageLayoutTransferDstOptimal))
}

func TestNewImageBarrier(t *testing.T) {
	img := &Image{VKFormat: vk.FormatD24UnormS8Uint}
	b, err := NewImageBarrier(img, vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal)
	require.NoError(t, err)
	assert.Same(t, img, b.Image)
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit), b.Aspect)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), b.SrcStage)

	_, err = NewImageBarrier(img, vk.ImageLayoutDepthStencilAttachmentOptimal, vk.ImageLayoutUndefined)
	assert.Error(t, err)
}
