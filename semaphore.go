package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Semaphore orders work between queue operations on the GPU.
type Semaphore struct {
	Device      *Device
	VKSemaphore vk.Semaphore
}

func (d *Device) CreateSemaphore() (*Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var sema vk.Semaphore
	err := vk.Error(vk.CreateSemaphore(d.VKDevice, &semaphoreCreateInfo, nil, &sema))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateSemaphore")
	}
	return &Semaphore{Device: d, VKSemaphore: sema}, nil
}

func (d *Device) DestroySemaphore(s *Semaphore) {
	vk.DestroySemaphore(d.VKDevice, s.VKSemaphore, nil)
}
