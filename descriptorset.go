package vkframe

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSet is a binding of resources to a descriptor, per a specific DescriptorSetLayout
type DescriptorSet struct {
	Device               *Device
	DescriptorPool       *DescriptorPool
	VKDescriptorSet      vk.DescriptorSet
	VKWriteDiscriptorSet []vk.WriteDescriptorSet
}

// AddBuffer queues a write of size bytes of b starting at offset to
// dstBinding.
func (ds *DescriptorSet) AddBuffer(dstBinding int, dtype vk.DescriptorType, b *Buffer, offset, size uint64) *DescriptorSet {
	var writeDescriptorSet = vk.WriteDescriptorSet{}
	writeDescriptorSet.SType = vk.StructureTypeWriteDescriptorSet
	writeDescriptorSet.DstBinding = uint32(dstBinding)
	writeDescriptorSet.DescriptorCount = 1
	writeDescriptorSet.DescriptorType = dtype
	writeDescriptorSet.PBufferInfo = []vk.DescriptorBufferInfo{b.DSInfo(offset, size)}

	ds.VKWriteDiscriptorSet = append(ds.VKWriteDiscriptorSet, writeDescriptorSet)
	return ds
}

// AddCombinedImageSampler queues a write of a sampled texture to dstBinding.
func (ds *DescriptorSet) AddCombinedImageSampler(dstBinding int, layout vk.ImageLayout, view *ImageView, sampler *Sampler) *DescriptorSet {
	var descriptorImageInfo = vk.DescriptorImageInfo{}
	descriptorImageInfo.ImageView = view.VKImageView
	descriptorImageInfo.ImageLayout = layout
	descriptorImageInfo.Sampler = sampler.VKSampler

	var writeDescriptorSet = vk.WriteDescriptorSet{}
	writeDescriptorSet.SType = vk.StructureTypeWriteDescriptorSet
	writeDescriptorSet.DstBinding = uint32(dstBinding)
	writeDescriptorSet.DescriptorCount = 1
	writeDescriptorSet.DescriptorType = vk.DescriptorTypeCombinedImageSampler
	writeDescriptorSet.PImageInfo = []vk.DescriptorImageInfo{descriptorImageInfo}

	ds.VKWriteDiscriptorSet = append(ds.VKWriteDiscriptorSet, writeDescriptorSet)
	return ds
}

// Write applies the queued writes and clears them.
func (ds *DescriptorSet) Write() {
	if len(ds.VKWriteDiscriptorSet) == 0 {
		return
	}
	for i := range ds.VKWriteDiscriptorSet {
		ds.VKWriteDiscriptorSet[i].DstSet = ds.VKDescriptorSet
	}
	vk.UpdateDescriptorSets(ds.Device.VKDevice, uint32(len(ds.VKWriteDiscriptorSet)), ds.VKWriteDiscriptorSet, 0, nil)
	ds.VKWriteDiscriptorSet = nil
}
