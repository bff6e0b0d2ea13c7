package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSetLayout describes the layout of a descriptorset
type DescriptorSetLayout struct {
	Device                        *Device
	VKDescriptorSetLayout         vk.DescriptorSetLayout
	VKDescriptorSetLayoutBindings []vk.DescriptorSetLayoutBinding
}

func (d *Device) NewDescriptorSetLayout() *DescriptorSetLayout {
	return &DescriptorSetLayout{Device: d}
}

// AddBinding adds a binding to the descriptor set
func (l *DescriptorSetLayout) AddBinding(binding vk.DescriptorSetLayoutBinding) *DescriptorSetLayout {
	l.VKDescriptorSetLayoutBindings = append(l.VKDescriptorSetLayoutBindings, binding)
	return l
}

// AddUniformBuffer adds a single uniform buffer binding visible to stages.
func (l *DescriptorSetLayout) AddUniformBuffer(binding int, stages vk.ShaderStageFlagBits) *DescriptorSetLayout {
	return l.AddBinding(vk.DescriptorSetLayoutBinding{
		Binding:         uint32(binding),
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(stages),
	})
}

// AddCombinedImageSampler adds a single sampled texture binding visible to
// stages.
func (l *DescriptorSetLayout) AddCombinedImageSampler(binding int, stages vk.ShaderStageFlagBits) *DescriptorSetLayout {
	return l.AddBinding(vk.DescriptorSetLayoutBinding{
		Binding:         uint32(binding),
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(stages),
	})
}

// CreateDescriptorSetLayout creates this descriptor set layout
func (d *Device) CreateDescriptorSetLayout(layout *DescriptorSetLayout) (*DescriptorSetLayout, error) {
	var descriptorSetLayoutCreateInfo = &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(layout.VKDescriptorSetLayoutBindings)),
		PBindings:    layout.VKDescriptorSetLayoutBindings,
	}

	var descriptorSetLayout vk.DescriptorSetLayout
	err := vk.Error(vk.CreateDescriptorSetLayout(d.VKDevice, descriptorSetLayoutCreateInfo, nil, &descriptorSetLayout))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateDescriptorSetLayout")
	}

	layout.Device = d
	layout.VKDescriptorSetLayout = descriptorSetLayout

	return layout, nil
}

func (d *Device) DestroyDescriptorSetLayout(l *DescriptorSetLayout) {
	vk.DestroyDescriptorSetLayout(d.VKDevice, l.VKDescriptorSetLayout, nil)
}
