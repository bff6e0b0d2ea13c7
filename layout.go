package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ErrUnsupportedTransition is returned for a layout pair missing from the
// transition table.
var ErrUnsupportedTransition = errors.New("unsupported layout transition")

// Transition holds the access and stage masks of one layout transition
// barrier.
type Transition struct {
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
	SrcStage  vk.PipelineStageFlags
	DstStage  vk.PipelineStageFlags
}

type layoutPair struct {
	old, new vk.ImageLayout
}

var transitions = map[layoutPair]Transition{
	{vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal}: {
		SrcAccess: 0,
		DstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	},
	{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal}: {
		SrcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
	},
	{vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal}: {
		SrcAccess: 0,
		DstAccess: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
	},
}

// TransitionFor looks up the barrier masks for moving an image from old to
// new layout.
func TransitionFor(old, new vk.ImageLayout) (Transition, error) {
	t, ok := transitions[layoutPair{old, new}]
	if !ok {
		return Transition{}, errors.Wrapf(ErrUnsupportedTransition, "%d -> %d", old, new)
	}
	return t, nil
}

// AspectFor returns the aspect mask a barrier into layout must cover for an
// image of the given format.
func AspectFor(format vk.Format, layout vk.ImageLayout) vk.ImageAspectFlags {
	if layout != vk.ImageLayoutDepthStencilAttachmentOptimal {
		return vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
	if HasStencil(format) {
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
}

// HasStencil reports whether a depth format also carries a stencil component.
func HasStencil(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}

// NewImageBarrier resolves the transition of img from old to new.
func NewImageBarrier(img *Image, old, new vk.ImageLayout) (ImageBarrier, error) {
	t, err := TransitionFor(old, new)
	if err != nil {
		return ImageBarrier{}, err
	}
	return ImageBarrier{
		Image:      img,
		Aspect:     AspectFor(img.VKFormat, new),
		OldLayout:  old,
		NewLayout:  new,
		Transition: t,
	}, nil
}
