package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Buffer is a linear range of memory used as vertex, index, uniform or
// transfer storage. A buffer must be bound to DeviceMemory before use.
type Buffer struct {
	Device   *Device
	VKBuffer vk.Buffer
	Size     uint64
}

func (d *Device) CreateBuffer(size uint64, usage vk.BufferUsageFlags) (*Buffer, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	err := vk.Error(vk.CreateBuffer(d.VKDevice, &bufferCreateInfo, nil, &buffer))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateBuffer")
	}

	return &Buffer{Device: d, VKBuffer: buffer, Size: size}, nil
}

func (d *Device) DestroyBuffer(b *Buffer) {
	vk.DestroyBuffer(d.VKDevice, b.VKBuffer, nil)
}

func (b *Buffer) memoryRequirements() vk.MemoryRequirements {
	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.Device.VKDevice, b.VKBuffer, &memoryRequirements)
	memoryRequirements.Deref()
	return memoryRequirements
}

// DSInfo describes size bytes of the buffer starting at offset for a
// descriptor write.
func (b *Buffer) DSInfo(offset, size uint64) vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.VKBuffer,
		Offset: vk.DeviceSize(offset),
		Range:  vk.DeviceSize(size),
	}
}
