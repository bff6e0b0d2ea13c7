package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorPool hands out descriptor sets. Pool sizes are declared with
// AddPoolSize before the pool is created.
type DescriptorPool struct {
	Device               *Device
	VKDescriptorPool     vk.DescriptorPool
	VKDescriptorPoolSize []vk.DescriptorPoolSize
}

func (d *Device) NewDescriptorPool() *DescriptorPool {
	return &DescriptorPool{Device: d}
}

// AddPoolSize informs the descriptor pool how many of a certain descriptortype it will contain
func (p *DescriptorPool) AddPoolSize(dtype vk.DescriptorType, count int) *DescriptorPool {
	p.VKDescriptorPoolSize = append(p.VKDescriptorPoolSize, vk.DescriptorPoolSize{
		Type:            dtype,
		DescriptorCount: uint32(count),
	})
	return p
}

// CreateDescriptorPool creates the descriptor pool
func (d *Device) CreateDescriptorPool(pool *DescriptorPool, maxSets int) (*DescriptorPool, error) {
	var descriptorPoolCreateInfo = vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(maxSets),
		PoolSizeCount: uint32(len(pool.VKDescriptorPoolSize)),
		PPoolSizes:    pool.VKDescriptorPoolSize,
	}

	var descriptorPool vk.DescriptorPool
	err := vk.Error(vk.CreateDescriptorPool(d.VKDevice, &descriptorPoolCreateInfo, nil, &descriptorPool))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateDescriptorPool")
	}

	pool.Device = d
	pool.VKDescriptorPool = descriptorPool

	return pool, nil
}

// Allocate allocates count descriptor sets of the same layout. The sets are
// freed together with the pool.
func (p *DescriptorPool) Allocate(layout *DescriptorSetLayout, count int) ([]*DescriptorSet, error) {
	layouts := make([]vk.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout.VKDescriptorSetLayout
	}

	descriptorSetAllocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.VKDescriptorPool,
		DescriptorSetCount: uint32(count),
		PSetLayouts:        layouts,
	}

	sets := make([]vk.DescriptorSet, count)
	err := vk.Error(vk.AllocateDescriptorSets(p.Device.VKDevice, &descriptorSetAllocateInfo, &sets[0]))
	if err != nil {
		return nil, errors.Wrap(err, "vkAllocateDescriptorSets")
	}

	ret := make([]*DescriptorSet, count)
	for i := range sets {
		ret[i] = &DescriptorSet{Device: p.Device, DescriptorPool: p, VKDescriptorSet: sets[i]}
	}
	return ret, nil
}

func (d *Device) DestroyDescriptorPool(p *DescriptorPool) {
	vk.DestroyDescriptorPool(d.VKDevice, p.VKDescriptorPool, nil)
}
