package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CommandPool hands out command buffers for one queue family. Buffers from it
// can be reset individually.
type CommandPool struct {
	Device        *Device
	QueueFamily   *QueueFamily
	VKCommandPool vk.CommandPool
}

func (d *Device) CreateCommandPool(q *QueueFamily) (*CommandPool, error) {
	var commandPoolCreateInfo = vk.CommandPoolCreateInfo{}
	commandPoolCreateInfo.SType = vk.StructureTypeCommandPoolCreateInfo
	commandPoolCreateInfo.Flags = vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit)
	commandPoolCreateInfo.QueueFamilyIndex = uint32(q.Index)

	var commandPool vk.CommandPool
	err := vk.Error(vk.CreateCommandPool(d.VKDevice, &commandPoolCreateInfo, nil, &commandPool))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateCommandPool")
	}

	return &CommandPool{Device: d, QueueFamily: q, VKCommandPool: commandPool}, nil
}

func (d *Device) DestroyCommandPool(c *CommandPool) {
	vk.DestroyCommandPool(d.VKDevice, c.VKCommandPool, nil)
}

// AllocateCommandBuffers allocates count primary command buffers from pool.
func (d *Device) AllocateCommandBuffers(pool *CommandPool, count int) ([]*CommandBuffer, error) {
	var commandBufferAllocateInfo = vk.CommandBufferAllocateInfo{}
	commandBufferAllocateInfo.SType = vk.StructureTypeCommandBufferAllocateInfo
	commandBufferAllocateInfo.CommandPool = pool.VKCommandPool
	commandBufferAllocateInfo.Level = vk.CommandBufferLevelPrimary
	commandBufferAllocateInfo.CommandBufferCount = uint32(count)

	cmdBuffers := make([]vk.CommandBuffer, count)
	err := vk.Error(vk.AllocateCommandBuffers(d.VKDevice, &commandBufferAllocateInfo, cmdBuffers))
	if err != nil {
		return nil, errors.Wrap(err, "vkAllocateCommandBuffers")
	}

	ret := make([]*CommandBuffer, count)
	for i := range ret {
		ret[i] = &CommandBuffer{Pool: pool, VKCommandBuffer: cmdBuffers[i]}
	}
	return ret, nil
}

func (d *Device) FreeCommandBuffers(pool *CommandPool, buffers ...*CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	b := make([]vk.CommandBuffer, len(buffers))
	for i := range buffers {
		b[i] = buffers[i].VKCommandBuffer
	}
	vk.FreeCommandBuffers(d.VKDevice, pool.VKCommandPool, uint32(len(b)), b)
}
