package vkframe

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ErrNoQueueFamily is returned when no family can render or none can present.
var ErrNoQueueFamily = errors.New("no graphics and present capable queue families")

// QueueFamily is one family of queues on a physical device.
type QueueFamily struct {
	Index                   int
	PhysicalDevice          *PhysicalDevice
	VKQueueFamilyProperties vk.QueueFamilyProperties
}

// Has reports whether the family supports every bit in flags.
func (q *QueueFamily) Has(flags vk.QueueFlagBits) bool {
	want := vk.QueueFlags(flags)
	return q.VKQueueFamilyProperties.QueueFlags&want == want
}

func (q *QueueFamily) IsGraphics() bool { return q.Has(vk.QueueGraphicsBit) }

// SupportsPresent asks the driver whether queues of this family can present
// to surface.
func (q *QueueFamily) SupportsPresent(surface vk.Surface) bool {
	var supported vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(q.PhysicalDevice.VKPhysicalDevice, uint32(q.Index), surface, &supported)
	return supported == vk.True
}

func (q *QueueFamily) String() string {
	var caps []string
	for _, c := range []struct {
		bit  vk.QueueFlagBits
		name string
	}{
		{vk.QueueGraphicsBit, "graphics"},
		{vk.QueueComputeBit, "compute"},
		{vk.QueueTransferBit, "transfer"},
		{vk.QueueSparseBindingBit, "sparse"},
	} {
		if q.Has(c.bit) {
			caps = append(caps, c.name)
		}
	}
	return fmt.Sprintf("#%d x%d [%s]", q.Index, q.VKQueueFamilyProperties.QueueCount, strings.Join(caps, " "))
}

type QueueFamilySlice []*QueueFamily

// Where returns the families for which keep is true, in order.
func (ql QueueFamilySlice) Where(keep func(q *QueueFamily) bool) QueueFamilySlice {
	var ret QueueFamilySlice
	for _, q := range ql {
		if keep(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

// GraphicsAndPresent picks the families to render and present with.
func (ql QueueFamilySlice) GraphicsAndPresent(surface vk.Surface) (graphics, present *QueueFamily, err error) {
	return pickGraphicsAndPresent(ql, func(q *QueueFamily) bool {
		return q.SupportsPresent(surface)
	})
}

// pickGraphicsAndPresent prefers one family that does both. Otherwise the
// first graphics family and the first presenting family are returned.
func pickGraphicsAndPresent(ql QueueFamilySlice, presents func(*QueueFamily) bool) (graphics, present *QueueFamily, err error) {
	for _, q := range ql {
		if !q.IsGraphics() {
			continue
		}
		if presents(q) {
			return q, q, nil
		}
		if graphics == nil {
			graphics = q
		}
	}
	for _, q := range ql {
		if presents(q) {
			present = q
			break
		}
	}
	if graphics == nil || present == nil {
		return nil, nil, ErrNoQueueFamily
	}
	return graphics, present, nil
}
