package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ErrNoMemoryType is returned when no memory type matches both the resource's
// type bits and the requested properties.
var ErrNoMemoryType = errors.New("no matching memory type found")

// SwapchainExtension is the device extension every presenting device needs.
const SwapchainExtension = "VK_KHR_swapchain"

type PhysicalDevice struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
}

func (p *PhysicalDevice) GetSurfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error) {
	var count uint32
	err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, nil))
	if err != nil {
		return nil, errors.Wrap(err, "vkGetPhysicalDeviceSurfacePresentModesKHR")
	}

	f := make([]vk.PresentMode, count)
	err = vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, f))
	if err != nil {
		return nil, errors.Wrap(err, "vkGetPhysicalDeviceSurfacePresentModesKHR")
	}

	return f[:count], nil
}

func (p *PhysicalDevice) GetSurfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, nil))
	if err != nil {
		return nil, errors.Wrap(err, "vkGetPhysicalDeviceSurfaceFormatsKHR")
	}

	f := make([]vk.SurfaceFormat, count)
	err = vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, f))
	if err != nil {
		return nil, errors.Wrap(err, "vkGetPhysicalDeviceSurfaceFormatsKHR")
	}

	f = f[:count]
	for i := range f {
		f[i].Deref()
	}
	return f, nil
}

func (p *PhysicalDevice) GetSurfaceCapabilities(surface vk.Surface) (*vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(p.VKPhysicalDevice, surface, &caps))
	if err != nil {
		return nil, errors.Wrap(err, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR")
	}

	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	return &caps, nil
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

func (p *PhysicalDevice) QueueFamilies() (QueueFamilySlice, error) {
	var queueFamilyCount uint32

	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &queueFamilyCount, nil)

	if queueFamilyCount == 0 {
		return nil, nil
	}

	queues := make([]vk.QueueFamilyProperties, queueFamilyCount)

	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &queueFamilyCount, queues)

	ret := make([]*QueueFamily, queueFamilyCount)
	for i, queue := range queues {
		ret[i] = &QueueFamily{Index: i, PhysicalDevice: p, VKQueueFamilyProperties: queue}
		ret[i].VKQueueFamilyProperties.Deref()
	}

	return ret, nil
}

type CreateDeviceOptions struct {
	EnabledExtensions []string
	EnabledLayers     []string
	// SamplerAnisotropy turns the feature on when the device has it.
	SamplerAnisotropy bool
}

// CreateLogicalDeviceWithOptions creates a device with one queue from each
// distinct family in qfs.
func (p *PhysicalDevice) CreateLogicalDeviceWithOptions(qfs QueueFamilySlice, options *CreateDeviceOptions) (*Device, error) {
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, 0, len(qfs))
	seen := make(map[int]bool)
	for _, q := range qfs {
		if seen[q.Index] {
			continue
		}
		seen[q.Index] = true
		queueCreateInfos = append(queueCreateInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(q.Index),
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	var deviceFeatures vk.PhysicalDeviceFeatures
	if options != nil && options.SamplerAnisotropy && p.SupportsAnisotropy() {
		deviceFeatures.SamplerAnisotropy = vk.True
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),
		PQueueCreateInfos:    queueCreateInfos,
		PEnabledFeatures:     []vk.PhysicalDeviceFeatures{deviceFeatures},
	}

	if options != nil {
		if options.EnabledExtensions != nil {
			deviceCreateInfo.EnabledExtensionCount = uint32(len(options.EnabledExtensions))
			deviceCreateInfo.PpEnabledExtensionNames = safeStrings(options.EnabledExtensions)
		}
		if options.EnabledLayers != nil {
			deviceCreateInfo.EnabledLayerCount = uint32(len(options.EnabledLayers))
			deviceCreateInfo.PpEnabledLayerNames = safeStrings(options.EnabledLayers)
		}
	}

	var ldevice vk.Device
	err := vk.Error(vk.CreateDevice(p.VKPhysicalDevice, &deviceCreateInfo, nil, &ldevice))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateDevice")
	}

	return &Device{PhysicalDevice: p, VKDevice: ldevice}, nil
}

func (p *PhysicalDevice) VKPhysicalDeviceFeatures() vk.PhysicalDeviceFeatures {
	var deviceFeatures vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.VKPhysicalDevice, &deviceFeatures)
	deviceFeatures.Deref()
	return deviceFeatures
}

// SupportsAnisotropy reports whether samplers may enable anisotropic
// filtering on this device.
func (p *PhysicalDevice) SupportsAnisotropy() bool {
	return p.VKPhysicalDeviceFeatures().SamplerAnisotropy == vk.True
}

func (p *PhysicalDevice) limits() vk.PhysicalDeviceLimits {
	limits := p.VKPhysicalDeviceProperties.Limits
	limits.Deref()
	return limits
}

// MaxSamplerAnisotropy is the largest anisotropy a sampler can ask for.
func (p *PhysicalDevice) MaxSamplerAnisotropy() float32 {
	return p.limits().MaxSamplerAnisotropy
}

// MinUniformBufferOffsetAlignment is the alignment of uniform buffer regions
// bound through descriptors.
func (p *PhysicalDevice) MinUniformBufferOffsetAlignment() uint64 {
	return uint64(p.limits().MinUniformBufferOffsetAlignment)
}

func (p *PhysicalDevice) VKPhysicalDeviceMemoryProperties() vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &memoryProperties)
	memoryProperties.Deref()
	return memoryProperties
}

// FindMemoryType returns the first memory type allowed by memoryTypeBits that
// has every flag in properties.
func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	mp := p.VKPhysicalDeviceMemoryProperties()

	var i uint32
	for i = 0; i < mp.MemoryTypeCount; i++ {
		mt := mp.MemoryTypes[i]
		mt.Deref()
		if memoryTypeBits&(1<<i) != 0 && mt.PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrNoMemoryType, "bits %#x properties %#x", memoryTypeBits, properties)
}

// SupportedExtensions lists the names of the device extensions.
func (p *PhysicalDevice) SupportedExtensions() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil))
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumerateDeviceExtensionProperties")
	}

	ext := make([]vk.ExtensionProperties, count)
	err = vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, ext))
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumerateDeviceExtensionProperties")
	}

	names := make([]string, 0, count)
	for _, e := range ext[:count] {
		e.Deref()
		names = append(names, vk.ToString(e.ExtensionName[:]))
	}
	return names, nil
}

// Suitable reports why the device cannot present to surface, or nil when it
// can: it needs the swapchain extension, a graphics queue, a queue that can
// present and at least one surface format and present mode.
func (p *PhysicalDevice) Suitable(surface vk.Surface) error {
	exts, err := p.SupportedExtensions()
	if err != nil {
		return err
	}
	found := false
	for _, e := range exts {
		if e == SwapchainExtension {
			found = true
			break
		}
	}
	if !found {
		return errors.Errorf("%s: missing %s", p.DeviceName, SwapchainExtension)
	}

	families, err := p.QueueFamilies()
	if err != nil {
		return err
	}
	if _, _, err := families.GraphicsAndPresent(surface); err != nil {
		return errors.Wrap(err, p.DeviceName)
	}

	formats, err := p.GetSurfaceFormats(surface)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		return ErrNoSurfaceFormats
	}
	modes, err := p.GetSurfacePresentModes(surface)
	if err != nil {
		return err
	}
	if len(modes) == 0 {
		return ErrNoPresentModes
	}
	return nil
}
