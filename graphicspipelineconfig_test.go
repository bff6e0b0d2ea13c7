package vkframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestGraphicsPipelineCreateInfo(t *testing.T) {
	shader := &ShaderModule{}
	layout := VertexLayout{
		Binding: vk.VertexInputBindingDescription{Binding: 0, Stride: 32},
		Attributes: []vk.VertexInputAttributeDescription{
			{Location: 0, Format: vk.FormatR32g32b32Sfloat},
			{Location: 1, Format: vk.FormatR32g32Sfloat, Offset: 24},
		},
	}
	g := NewGraphicsPipelineConfig().
		AddShaderStage(shader, "main", vk.ShaderStageVertexBit).
		AddShaderStage(shader, "main", vk.ShaderStageFragmentBit).
		AddVertexLayout(layout).
		SetDepth(false)

	info, err := g.VKGraphicsPipelineCreateInfo(vk.Extent2D{Width: 640, Height: 480})
	require.NoError(t, err)

	assert.Equal(t, uint32(2), info.StageCount)
	assert.Equal(t, "main\x00", info.PStages[0].PName)
	assert.Equal(t, uint32(1), info.PVertexInputState.VertexBindingDescriptionCount)
	assert.Equal(t, uint32(2), info.PVertexInputState.VertexAttributeDescriptionCount)
	assert.Equal(t, vk.Bool32(vk.False), info.PDepthStencilState.DepthTestEnable)
	assert.Equal(t, float32(640), info.PViewportState.PViewports[0].Width)
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, info.PViewportState.PScissors[0].Extent)
	assert.Equal(t, vk.PrimitiveTopologyTriangleList, info.PInputAssemblyState.Topology)
	assert.Zero(t, info.PDynamicState.DynamicStateCount)
	assert.False(t, g.HasDynamicViewport())
}

func TestGraphicsPipelineDynamicViewport(t *testing.T) {
	g := NewGraphicsPipelineConfig().SetDynamicState(vk.DynamicStateViewport)
	assert.False(t, g.HasDynamicViewport(), "scissor must be dynamic too")

	g.SetDynamicState(vk.DynamicStateScissor, vk.DynamicStateViewport)
	assert.True(t, g.HasDynamicViewport())

	_, err := g.VKGraphicsPipelineCreateInfo(vk.Extent2D{})
	assert.Equal(t, ErrNoShaderStages, err)
}

func TestFullViewport(t *testing.T) {
	v := FullViewport(vk.Extent2D{Width: 3, Height: 2})
	assert.Equal(t, vk.Viewport{Width: 3, Height: 2, MaxDepth: 1}, v)
}
