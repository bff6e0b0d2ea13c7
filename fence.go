package vkframe

import (
	"time"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Fence lets the host wait for a queue submission to finish.
type Fence struct {
	Device  *Device
	VKFence vk.Fence
}

// CreateFence creates a fence, optionally already signaled so the first wait
// on it returns immediately.
func (d *Device) CreateFence(signaled bool) (*Fence, error) {
	var fenceCreateInfo = vk.FenceCreateInfo{}
	fenceCreateInfo.SType = vk.StructureTypeFenceCreateInfo
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	err := vk.Error(vk.CreateFence(d.VKDevice, &fenceCreateInfo, nil, &fence))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateFence")
	}

	return &Fence{Device: d, VKFence: fence}, nil
}

func (d *Device) DestroyFence(f *Fence) {
	vk.DestroyFence(d.VKDevice, f.VKFence, nil)
}

// WaitForFence blocks until f is signaled or timeout nanoseconds elapse.
func (d *Device) WaitForFence(f *Fence, timeout uint64) error {
	err := vk.Error(vk.WaitForFences(d.VKDevice, 1, []vk.Fence{f.VKFence}, vk.True, timeout))
	return errors.Wrap(err, "vkWaitForFences")
}

// WaitForFences waits on several fences at once.
func (d *Device) WaitForFences(waitForAll bool, ts time.Duration, fences ...*Fence) error {
	f := make([]vk.Fence, len(fences))
	for i := range fences {
		f[i] = fences[i].VKFence
	}

	wait := vk.Bool32(vk.False)
	if waitForAll {
		wait = vk.True
	}

	err := vk.Error(vk.WaitForFences(d.VKDevice, uint32(len(fences)), f, wait, uint64(ts.Nanoseconds())))
	return errors.Wrap(err, "vkWaitForFences")
}

func (d *Device) ResetFence(f *Fence) error {
	err := vk.Error(vk.ResetFences(d.VKDevice, 1, []vk.Fence{f.VKFence}))
	return errors.Wrap(err, "vkResetFences")
}

// FenceSignaled polls the fence without blocking.
func (d *Device) FenceSignaled(f *Fence) bool {
	return vk.GetFenceStatus(d.VKDevice, f.VKFence) == vk.Success
}
