package vkframe

import (
	vk "github.com/vulkan-go/vulkan"
)

// Memory property sets used by the transfer engine and uniform stream.
var (
	HostVisibleCoherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	DeviceLocal         = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
)

// BoundBuffer is a buffer together with the memory it owns.
type BoundBuffer struct {
	*Buffer
	Memory *DeviceMemory
}

// CreateBoundBuffer creates a buffer of size bytes and binds freshly
// allocated memory with props to it. The returned destroy function releases
// both, buffer first.
func CreateBoundBuffer(d MemoryDriver, size uint64, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (*BoundBuffer, func(*BoundBuffer), error) {
	buffer, err := d.CreateBuffer(size, usage)
	if err != nil {
		return nil, nil, err
	}
	memory, err := d.AllocateBufferMemory(buffer, props)
	if err != nil {
		d.DestroyBuffer(buffer)
		return nil, nil, err
	}
	destroy := func(b *BoundBuffer) {
		d.DestroyBuffer(b.Buffer)
		d.FreeMemory(b.Memory)
	}
	return &BoundBuffer{Buffer: buffer, Memory: memory}, destroy, nil
}

// Fill maps size bytes at offset, copies data in and unmaps again.
func (b *BoundBuffer) Fill(d MemoryDriver, offset uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	mapped, err := d.MapMemory(b.Memory, offset, uint64(len(data)))
	if err != nil {
		return err
	}
	copy(mapped, data)
	d.UnmapMemory(b.Memory)
	return nil
}
