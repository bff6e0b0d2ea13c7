package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type ImageView struct {
	Device      *Device
	Image       *Image
	VKImageView vk.ImageView
}

// CreateImageView creates a 2D view of i covering the aspect in mask.
func (d *Device) CreateImageView(i *Image, mask vk.ImageAspectFlags) (*ImageView, error) {
	createImage := &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    i.VKImage,
		ViewType: vk.ImageViewType2d,
		Format:   i.VKFormat,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: mask,
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var view vk.ImageView
	err := vk.Error(vk.CreateImageView(d.VKDevice, createImage, nil, &view))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateImageView")
	}
	return &ImageView{Device: d, Image: i, VKImageView: view}, nil
}

func (d *Device) DestroyImageView(v *ImageView) {
	vk.DestroyImageView(d.VKDevice, v.VKImageView, nil)
}
