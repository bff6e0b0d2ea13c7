package vkframe

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DeviceMemory maps to Vulkan DeviceMemory and can either be memory on the host or on the device
type DeviceMemory struct {
	Device         *Device
	VKDeviceMemory vk.DeviceMemory
	Size           uint64
}

// AllocateBufferMemory allocates memory matching b's requirements and binds
// b to it at offset 0.
func (d *Device) AllocateBufferMemory(b *Buffer, props vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	mr := b.memoryRequirements()
	mem, err := d.allocate(uint64(mr.Size), mr.MemoryTypeBits, props)
	if err != nil {
		return nil, err
	}
	err = vk.Error(vk.BindBufferMemory(d.VKDevice, b.VKBuffer, mem.VKDeviceMemory, 0))
	if err != nil {
		d.FreeMemory(mem)
		return nil, errors.Wrap(err, "vkBindBufferMemory")
	}
	return mem, nil
}

// AllocateImageMemory allocates memory matching i's requirements and binds
// i to it at offset 0.
func (d *Device) AllocateImageMemory(i *Image, props vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	mr := i.memoryRequirements()
	mem, err := d.allocate(uint64(mr.Size), mr.MemoryTypeBits, props)
	if err != nil {
		return nil, err
	}
	err = vk.Error(vk.BindImageMemory(d.VKDevice, i.VKImage, mem.VKDeviceMemory, 0))
	if err != nil {
		d.FreeMemory(mem)
		return nil, errors.Wrap(err, "vkBindImageMemory")
	}
	return mem, nil
}

func (d *Device) allocate(size uint64, memoryTypeBits uint32, props vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	typeIndex, err := d.PhysicalDevice.FindMemoryType(memoryTypeBits, props)
	if err != nil {
		return nil, err
	}

	var allocateInfo = vk.MemoryAllocateInfo{}
	allocateInfo.SType = vk.StructureTypeMemoryAllocateInfo
	allocateInfo.AllocationSize = vk.DeviceSize(size)
	allocateInfo.MemoryTypeIndex = typeIndex

	var deviceMemory vk.DeviceMemory
	err = vk.Error(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory))
	if err != nil {
		return nil, errors.Wrap(err, "vkAllocateMemory")
	}

	return &DeviceMemory{Device: d, VKDeviceMemory: deviceMemory, Size: size}, nil
}

func (d *Device) FreeMemory(m *DeviceMemory) {
	vk.FreeMemory(d.VKDevice, m.VKDeviceMemory, nil)
}

// MapMemory maps size bytes at offset and returns them as a byte slice that
// stays valid until UnmapMemory.
func (d *Device) MapMemory(m *DeviceMemory, offset, size uint64) ([]byte, error) {
	var ptr unsafe.Pointer
	err := vk.Error(vk.MapMemory(d.VKDevice, m.VKDeviceMemory, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &ptr))
	if err != nil {
		return nil, errors.Wrap(err, "vkMapMemory")
	}
	return ToBytes(ptr, int(size)), nil
}

func (d *Device) UnmapMemory(m *DeviceMemory) {
	vk.UnmapMemory(d.VKDevice, m.VKDeviceMemory)
}
