package vkframe

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Device is the logical device. Its methods implement Driver.
type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.VKDevice, nil)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

// WaitIdle blocks until every queue on the device is idle.
func (d *Device) WaitIdle() error {
	return errors.Wrap(vk.Error(vk.DeviceWaitIdle(d.VKDevice)), "vkDeviceWaitIdle")
}

func (d *Device) GetQueue(qf *QueueFamily) *Queue {
	var vkq vk.Queue
	vk.GetDeviceQueue(d.VKDevice, uint32(qf.Index), 0, &vkq)
	return &Queue{Device: d, QueueFamily: qf, VKQueue: vkq}
}

// FormatSupported reports whether format supports features with the given
// tiling on this device.
func (d *Device) FormatSupported(format vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) bool {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.PhysicalDevice.VKPhysicalDevice, format, &props)
	props.Deref()
	switch tiling {
	case vk.ImageTilingLinear:
		return props.LinearTilingFeatures&features == features
	case vk.ImageTilingOptimal:
		return props.OptimalTilingFeatures&features == features
	}
	return false
}
