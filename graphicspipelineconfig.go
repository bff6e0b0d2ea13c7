package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ErrNoShaderStages is returned when a pipeline config has no shaders.
var ErrNoShaderStages = errors.New("graphics pipeline has no shader stages")

// VertexLayout describes one interleaved vertex binding.
type VertexLayout struct {
	Binding    vk.VertexInputBindingDescription
	Attributes []vk.VertexInputAttributeDescription
}

// GraphicsPipelineConfig collects the fixed function state of a single
// subpass pipeline. The zero value is not usable; start from
// NewGraphicsPipelineConfig.
type GraphicsPipelineConfig struct {
	ShaderStages   []vk.PipelineShaderStageCreateInfo
	PipelineLayout *PipelineLayout
	Vertices       []VertexLayout

	// Topology defaults to triangle lists.
	Topology vk.PrimitiveTopology
	// CullMode defaults to back faces, with counter clockwise front faces.
	CullMode  vk.CullModeFlagBits
	FrontFace vk.FrontFace

	// Depth enables depth testing and writing with CompareOpLess.
	Depth bool

	// DynamicState lists the state command buffers set. Viewport and scissor
	// are baked from the extent passed to VKGraphicsPipelineCreateInfo
	// unless they are listed here.
	DynamicState []vk.DynamicState

	// Configure runs last and may change anything in the create info.
	Configure func(info *vk.GraphicsPipelineCreateInfo)
}

func NewGraphicsPipelineConfig() *GraphicsPipelineConfig {
	return &GraphicsPipelineConfig{
		Topology:  vk.PrimitiveTopologyTriangleList,
		CullMode:  vk.CullModeBackBit,
		FrontFace: vk.FrontFaceCounterClockwise,
		Depth:     true,
	}
}

// AddShaderStage adds a stage running entryPoint of shader. The module only
// has to live until the pipeline is created.
func (g *GraphicsPipelineConfig) AddShaderStage(shader *ShaderModule, entryPoint string, stageType vk.ShaderStageFlagBits) *GraphicsPipelineConfig {
	g.ShaderStages = append(g.ShaderStages, shader.VKPipelineShaderStageCreateInfo(stageType, entryPoint))
	return g
}

func (g *GraphicsPipelineConfig) AddVertexLayout(v VertexLayout) *GraphicsPipelineConfig {
	g.Vertices = append(g.Vertices, v)
	return g
}

func (g *GraphicsPipelineConfig) SetDepth(enabled bool) *GraphicsPipelineConfig {
	g.Depth = enabled
	return g
}

func (g *GraphicsPipelineConfig) SetDynamicState(states ...vk.DynamicState) *GraphicsPipelineConfig {
	g.DynamicState = states
	return g
}

func (g *GraphicsPipelineConfig) SetPipelineLayout(layout *PipelineLayout) *GraphicsPipelineConfig {
	g.PipelineLayout = layout
	return g
}

// HasDynamicViewport reports whether both viewport and scissor are dynamic
// state, so command buffers must set them.
func (g *GraphicsPipelineConfig) HasDynamicViewport() bool {
	var viewport, scissor bool
	for _, s := range g.DynamicState {
		viewport = viewport || s == vk.DynamicStateViewport
		scissor = scissor || s == vk.DynamicStateScissor
	}
	return viewport && scissor
}

func (g *GraphicsPipelineConfig) vertexInput() *vk.PipelineVertexInputStateCreateInfo {
	var bindings []vk.VertexInputBindingDescription
	var attributes []vk.VertexInputAttributeDescription
	for _, v := range g.Vertices {
		bindings = append(bindings, v.Binding)
		attributes = append(attributes, v.Attributes...)
	}
	return &vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}
}

func viewportState(extent vk.Extent2D) *vk.PipelineViewportStateCreateInfo {
	return &vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{FullViewport(extent)},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{{Extent: extent}},
	}
}

func (g *GraphicsPipelineConfig) depthStencil() *vk.PipelineDepthStencilStateCreateInfo {
	enabled := vk.Bool32(vk.False)
	if g.Depth {
		enabled = vk.True
	}
	return &vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  enabled,
		DepthWriteEnable: enabled,
		DepthCompareOp:   vk.CompareOpLess,
		MaxDepthBounds:   1.0,
	}
}

// VKGraphicsPipelineCreateInfo builds the create info for subpass 0 without
// a render pass, which the caller fills in.
func (g *GraphicsPipelineConfig) VKGraphicsPipelineCreateInfo(extent vk.Extent2D) (vk.GraphicsPipelineCreateInfo, error) {
	if len(g.ShaderStages) == 0 {
		return vk.GraphicsPipelineCreateInfo{}, ErrNoShaderStages
	}

	colorWrite := vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit)
	blend := []vk.PipelineColorBlendAttachmentState{{ColorWriteMask: colorWrite}}

	info := vk.GraphicsPipelineCreateInfo{
		SType:             vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:        uint32(len(g.ShaderStages)),
		PStages:           g.ShaderStages,
		PVertexInputState: g.vertexInput(),
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: g.Topology,
		},
		PViewportState: viewportState(extent),
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			LineWidth:   1.0,
			CullMode:    vk.CullModeFlags(g.CullMode),
			FrontFace:   g.FrontFace,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PDepthStencilState: g.depthStencil(),
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: uint32(len(blend)),
			PAttachments:    blend,
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(g.DynamicState)),
			PDynamicStates:    g.DynamicState,
		},
	}
	if g.PipelineLayout != nil {
		info.Layout = g.PipelineLayout.VKPipelineLayout
	}
	if g.Configure != nil {
		g.Configure(&info)
	}
	return info, nil
}
