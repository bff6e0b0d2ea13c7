package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Image is a 2D image. Swapchain images belong to their swapchain and are
// never destroyed through the device.
type Image struct {
	Device   *Device
	VKImage  vk.Image
	VKFormat vk.Format
	Extent   vk.Extent2D
}

func (i *Image) memoryRequirements() vk.MemoryRequirements {
	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(i.Device.VKDevice, i.VKImage, &memRequirements)
	memRequirements.Deref()
	return memRequirements
}

func (d *Device) CreateImage(info ImageInfo) (*Image, error) {
	var imageInfo = vk.ImageCreateInfo{}
	imageInfo.SType = vk.StructureTypeImageCreateInfo
	imageInfo.ImageType = vk.ImageType2d
	imageInfo.Extent.Width = info.Extent.Width
	imageInfo.Extent.Height = info.Extent.Height
	imageInfo.Extent.Depth = 1
	imageInfo.MipLevels = 1
	imageInfo.ArrayLayers = 1
	imageInfo.Format = info.Format
	imageInfo.Tiling = info.Tiling
	imageInfo.InitialLayout = vk.ImageLayoutUndefined
	imageInfo.Usage = info.Usage
	imageInfo.Samples = vk.SampleCount1Bit
	imageInfo.SharingMode = vk.SharingModeExclusive

	var image vk.Image
	err := vk.Error(vk.CreateImage(d.VKDevice, &imageInfo, nil, &image))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateImage")
	}

	return &Image{Device: d, VKImage: image, VKFormat: info.Format, Extent: info.Extent}, nil
}

func (d *Device) DestroyImage(i *Image) {
	vk.DestroyImage(d.VKDevice, i.VKImage, nil)
}

// BoundImage is an image together with the memory it owns.
type BoundImage struct {
	*Image
	Memory *DeviceMemory
}

// CreateBoundImage creates an image and binds freshly allocated memory to it.
// The returned destroy function releases both, image first.
func CreateBoundImage(d Driver, info ImageInfo, props vk.MemoryPropertyFlags) (*BoundImage, func(*BoundImage), error) {
	img, err := d.CreateImage(info)
	if err != nil {
		return nil, nil, err
	}
	mem, err := d.AllocateImageMemory(img, props)
	if err != nil {
		d.DestroyImage(img)
		return nil, nil, err
	}
	destroy := func(b *BoundImage) {
		d.DestroyImage(b.Image)
		d.FreeMemory(b.Memory)
	}
	return &BoundImage{Image: img, Memory: mem}, destroy, nil
}
