package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	ErrNoSurfaceFormats = errors.New("surface reports no formats")
	ErrNoPresentModes   = errors.New("surface reports no present modes")
)

// Swapchain is the ring of presentable images negotiated with a surface.
type Swapchain struct {
	Device      *Device
	VKSwapchain vk.Swapchain
	Extent      vk.Extent2D
	Format      vk.Format
}

// SurfaceSupport is what a surface allows a swapchain to be built with.
type SurfaceSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// QuerySupport collects the capabilities, formats and present modes of
// surface. A surface with no formats or no present modes cannot be used.
func QuerySupport(d SwapchainDriver, surface vk.Surface) (SurfaceSupport, error) {
	var s SurfaceSupport
	var err error

	s.Capabilities, err = d.SurfaceCapabilities(surface)
	if err != nil {
		return s, err
	}
	s.Formats, err = d.SurfaceFormats(surface)
	if err != nil {
		return s, err
	}
	if len(s.Formats) == 0 {
		return s, ErrNoSurfaceFormats
	}
	s.PresentModes, err = d.SurfacePresentModes(surface)
	if err != nil {
		return s, err
	}
	if len(s.PresentModes) == 0 {
		return s, ErrNoPresentModes
	}
	return s, nil
}

// ChooseSurfaceFormat prefers 8 bit BGRA sRGB with a non-linear sRGB color
// space and otherwise takes the first format the surface listed.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

// ChoosePresentMode prefers mailbox and falls back to FIFO, which every
// surface supports.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// ChoosePresentModeVsync is ChoosePresentMode unless vsync is requested, in
// which case FIFO is used.
func ChoosePresentModeVsync(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	return ChoosePresentMode(modes)
}

// ChooseExtent uses the surface's current extent when it is defined. When the
// surface leaves it to the application (width set to max uint32) the
// framebuffer size is clamped into the allowed range.
func ChooseExtent(caps vk.SurfaceCapabilities, width, height int) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(uint32(max(width, 0)), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(max(height, 0)), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ChooseImageCount asks for one image more than the minimum, capped by the
// maximum. A maximum of zero means there is no limit.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	n := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return n
}

// SwapchainInfo is everything needed to create a swapchain.
type SwapchainInfo struct {
	Surface            vk.Surface
	Format             vk.SurfaceFormat
	PresentMode        vk.PresentMode
	Extent             vk.Extent2D
	MinImageCount      uint32
	PreTransform       vk.SurfaceTransformFlagBits
	SharingMode        vk.SharingMode
	QueueFamilyIndices []uint32
}

// NewSwapchainInfo picks format, present mode, extent and image count from
// support. Images are shared concurrently between the graphics and present
// families when they differ, which avoids ownership transfer barriers.
func NewSwapchainInfo(surface vk.Surface, support SurfaceSupport, width, height int, graphicsFamily, presentFamily uint32, vsync bool) SwapchainInfo {
	info := SwapchainInfo{
		Surface:       surface,
		Format:        ChooseSurfaceFormat(support.Formats),
		PresentMode:   ChoosePresentModeVsync(support.PresentModes, vsync),
		Extent:        ChooseExtent(support.Capabilities, width, height),
		MinImageCount: ChooseImageCount(support.Capabilities),
		PreTransform:  support.Capabilities.CurrentTransform,
		SharingMode:   vk.SharingModeExclusive,
	}
	if graphicsFamily != presentFamily {
		info.SharingMode = vk.SharingModeConcurrent
		info.QueueFamilyIndices = []uint32{graphicsFamily, presentFamily}
	}
	return info
}

func (d *Device) SurfaceCapabilities(surface vk.Surface) (vk.SurfaceCapabilities, error) {
	caps, err := d.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return vk.SurfaceCapabilities{}, err
	}
	return *caps, nil
}

func (d *Device) SurfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error) {
	return d.PhysicalDevice.GetSurfaceFormats(surface)
}

func (d *Device) SurfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error) {
	return d.PhysicalDevice.GetSurfacePresentModes(surface)
}

func (d *Device) CreateSwapchain(info SwapchainInfo) (*Swapchain, error) {
	createInfo := &vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               info.Surface,
		MinImageCount:         info.MinImageCount,
		ImageFormat:           info.Format.Format,
		ImageColorSpace:       info.Format.ColorSpace,
		ImageExtent:           info.Extent,
		PresentMode:           info.PresentMode,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageArrayLayers:      1,
		ImageSharingMode:      info.SharingMode,
		QueueFamilyIndexCount: uint32(len(info.QueueFamilyIndices)),
		PQueueFamilyIndices:   info.QueueFamilyIndices,
		Clipped:               vk.True,
		PreTransform:          info.PreTransform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		OldSwapchain:          vk.NullSwapchain,
	}

	var swapchain vk.Swapchain
	err := vk.Error(vk.CreateSwapchain(d.VKDevice, createInfo, nil, &swapchain))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateSwapchainKHR")
	}

	return &Swapchain{
		Device:      d,
		VKSwapchain: swapchain,
		Extent:      info.Extent,
		Format:      info.Format.Format,
	}, nil
}

func (d *Device) SwapchainImages(s *Swapchain) ([]*Image, error) {
	var imageCount uint32
	err := vk.Error(vk.GetSwapchainImages(d.VKDevice, s.VKSwapchain, &imageCount, nil))
	if err != nil {
		return nil, errors.Wrap(err, "vkGetSwapchainImagesKHR")
	}

	swapchainImages := make([]vk.Image, imageCount)
	err = vk.Error(vk.GetSwapchainImages(d.VKDevice, s.VKSwapchain, &imageCount, swapchainImages))
	if err != nil {
		return nil, errors.Wrap(err, "vkGetSwapchainImagesKHR")
	}

	ret := make([]*Image, imageCount)
	for i := range swapchainImages {
		ret[i] = &Image{Device: d, VKImage: swapchainImages[i], VKFormat: s.Format, Extent: s.Extent}
	}
	return ret, nil
}

func (d *Device) DestroySwapchain(s *Swapchain) {
	vk.DestroySwapchain(d.VKDevice, s.VKSwapchain, nil)
}
