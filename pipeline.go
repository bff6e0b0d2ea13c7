package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Pipeline is a compiled graphics pipeline.
type Pipeline struct {
	Device     *Device
	VKPipeline vk.Pipeline
	// DynamicViewport is set when command buffers must set viewport and
	// scissor.
	DynamicViewport bool
}

type PipelineCache struct {
	Device          *Device
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	var pipelineCacheCreate = vk.PipelineCacheCreateInfo{}
	pipelineCacheCreate.SType = vk.StructureTypePipelineCacheCreateInfo

	var pipelineCache vk.PipelineCache
	err := vk.Error(vk.CreatePipelineCache(d.VKDevice, &pipelineCacheCreate, nil, &pipelineCache))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreatePipelineCache")
	}

	return &PipelineCache{Device: d, VKPipelineCache: pipelineCache}, nil
}

func (d *Device) DestroyPipelineCache(c *PipelineCache) {
	vk.DestroyPipelineCache(d.VKDevice, c.VKPipelineCache, nil)
}

// CreateGraphicsPipeline builds config for subpass 0 of rp. The viewport and
// scissor baked into the pipeline cover extent; pipelines that declare them
// dynamic do not depend on it.
func (d *Device) CreateGraphicsPipeline(cache *PipelineCache, config *GraphicsPipelineConfig, rp *RenderPass, extent vk.Extent2D) (*Pipeline, error) {
	createInfo, err := config.VKGraphicsPipelineCreateInfo(extent)
	if err != nil {
		return nil, err
	}
	createInfo.RenderPass = rp.VKRenderPass

	var vkCache vk.PipelineCache
	if cache != nil {
		vkCache = cache.VKPipelineCache
	}

	pipelines := make([]vk.Pipeline, 1)
	err = vk.Error(vk.CreateGraphicsPipelines(d.VKDevice, vkCache, 1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateGraphicsPipelines")
	}

	return &Pipeline{Device: d, VKPipeline: pipelines[0], DynamicViewport: config.HasDynamicViewport()}, nil
}

func (d *Device) DestroyPipeline(p *Pipeline) {
	vk.DestroyPipeline(d.VKDevice, p.VKPipeline, nil)
}
