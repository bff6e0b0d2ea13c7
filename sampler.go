package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Sampler describes how shaders read a texture.
type Sampler struct {
	Device    *Device
	VKSampler vk.Sampler
}

// SamplerOptions configures CreateSampler. The zero value is a linear,
// repeating sampler without anisotropy.
type SamplerOptions struct {
	AddressMode vk.SamplerAddressMode
	// Anisotropy enables anisotropic filtering when the device supports it,
	// using the device's maximum.
	Anisotropy bool
}

func (d *Device) CreateSampler(options SamplerOptions) (*Sampler, error) {
	anisotropy := vk.Bool32(vk.False)
	maxAnisotropy := float32(1.0)
	if options.Anisotropy && d.PhysicalDevice.SupportsAnisotropy() {
		anisotropy = vk.True
		maxAnisotropy = d.PhysicalDevice.MaxSamplerAnisotropy()
	}

	var sampler vk.Sampler
	err := vk.Error(vk.CreateSampler(d.VKDevice, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            options.AddressMode,
		AddressModeV:            options.AddressMode,
		AddressModeW:            options.AddressMode,
		AnisotropyEnable:        anisotropy,
		MaxAnisotropy:           maxAnisotropy,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}, nil, &sampler))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateSampler")
	}
	return &Sampler{Device: d, VKSampler: sampler}, nil
}

func (d *Device) DestroySampler(s *Sampler) {
	vk.DestroySampler(d.VKDevice, s.VKSampler, nil)
}
