package vkframe

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ValidationLayer is the Khronos validation layer enabled by EnableDebugging.
const ValidationLayer = "VK_LAYER_KHRONOS_validation"

// Initialize loads the Vulkan loader through its default entry point. Windowed
// programs should instead pass the window system's proc address to
// vk.SetGetInstanceProcAddr and call vk.Init themselves.
func Initialize() error {
	err := vk.SetDefaultGetInstanceProcAddr()
	if err != nil {
		return errors.Wrap(err, "vkGetInstanceProcAddr")
	}
	return errors.Wrap(vk.Init(), "vulkan init")
}

// Version is used to specify versions of components
type Version struct {
	Major int
	Minor int
	Patch int
}

// VKVersion returns a Vulkan compatible version representation
func (v *Version) VKVersion() uint32 {
	return vk.MakeVersion(v.Major, v.Minor, v.Patch)
}

// App is used to provide information about this specific application to Vulkan
type App struct {
	// Name the name of the application
	Name string
	// Engine the name of the engine associated with the application
	EngineName string
	// Version the version of the application
	Version Version
	// APIVersion the expected minimum version of the Vulkan API (i.e. 1.0.0)
	APIVersion Version

	EnabledLayers     []string
	EnabledExtensions []string

	debug bool
}

// SupportedLayers returns a list of supported layers for use by Vulkan.
// Vulkan must have been initialized.
func SupportedLayers() ([]string, error) {
	var instanceLayerLen uint32
	err := vk.Error(vk.EnumerateInstanceLayerProperties(&instanceLayerLen, nil))
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumerateInstanceLayerProperties")
	}
	instanceLayer := make([]vk.LayerProperties, instanceLayerLen)
	err = vk.Error(vk.EnumerateInstanceLayerProperties(&instanceLayerLen, instanceLayer))
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumerateInstanceLayerProperties")
	}
	layerNames := make([]string, 0, instanceLayerLen)
	for _, layer := range instanceLayer {
		layer.Deref()
		layerNames = append(layerNames, vk.ToString(layer.LayerName[:]))
	}
	return layerNames, nil
}

// SupportedExtensions returns a list of supported instance extensions.
// Vulkan must have been initialized.
func SupportedExtensions() ([]string, error) {
	var instanceExtLen uint32
	err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &instanceExtLen, nil))
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumerateInstanceExtensionProperties")
	}
	instanceExt := make([]vk.ExtensionProperties, instanceExtLen)
	err = vk.Error(vk.EnumerateInstanceExtensionProperties("", &instanceExtLen, instanceExt))
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumerateInstanceExtensionProperties")
	}
	extNames := make([]string, 0, instanceExtLen)
	for _, ext := range instanceExt {
		ext.Deref()
		extNames = append(extNames, vk.ToString(ext.ExtensionName[:]))
	}
	return extNames, nil
}

// EnableDebugging turns on the validation layer and the debug report
// extension. Messages are routed to the package logger once the instance
// exists. It reports false when the layer is not installed.
func (a *App) EnableDebugging() bool {
	if _, err := a.EnableLayer(ValidationLayer); err != nil {
		Logger().Warn("validation requested but unavailable", "error", err)
		return false
	}
	a.EnableExtension("VK_EXT_debug_report")
	a.debug = true
	return true
}

// EnableLayer enables a specific layer if Vulkan supports it.
func (a *App) EnableLayer(layer string) (*App, error) {
	layers, err := SupportedLayers()
	if err != nil {
		return a, err
	}
	for _, l := range layers {
		if l == layer {
			a.EnabledLayers = append(a.EnabledLayers, layer)
			return a, nil
		}
	}
	return a, errors.Errorf("layer '%s' not found", layer)
}

// EnableExtension enables an extension for use by the application
func (a *App) EnableExtension(extension string) *App {
	for _, e := range a.EnabledExtensions {
		if e == extension {
			return a
		}
	}
	a.EnabledExtensions = append(a.EnabledExtensions, extension)
	return a
}

// VKApplicationInfo creates a structure representing this application in a Vulkan friendly format
func (a *App) VKApplicationInfo() vk.ApplicationInfo {
	if a.APIVersion.Major < 1 {
		a.APIVersion.Major = 1
	}

	return vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         a.APIVersion.VKVersion(),
		ApplicationVersion: a.Version.VKVersion(),
		PApplicationName:   safeString(a.Name),
		PEngineName:        safeString(a.EngineName),
	}
}

// CreateInstance creates the Vulkan instance. With debugging enabled the
// debug report callback is installed as well.
func (a *App) CreateInstance() (*Instance, error) {
	appInfo := a.VKApplicationInfo()

	extensions := safeStrings(a.EnabledExtensions)
	layers := safeStrings(a.EnabledLayers)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	instance := &Instance{}

	err := vk.Error(vk.CreateInstance(&createInfo, nil, &instance.VKInstance))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateInstance")
	}
	if err := vk.InitInstance(instance.VKInstance); err != nil {
		vk.DestroyInstance(instance.VKInstance, nil)
		return nil, errors.Wrap(err, "vulkan init instance")
	}

	if a.debug {
		if err := instance.SetDebugCallback(LoggerDebugCallback); err != nil {
			Logger().Warn("debug report callback not installed", "error", err)
		}
	}

	return instance, nil
}

// Instance is an instance of the Vulkan subsystem
type Instance struct {
	// VKInstance is the native Vulkan instance object
	VKInstance vk.Instance

	debugCallback vk.DebugReportCallback
}

// PhysicalDevices returns a list of physical devices known to Vulkan
func (i *Instance) PhysicalDevices() ([]*PhysicalDevice, error) {
	var deviceCount uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(i.VKInstance, &deviceCount, nil))
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumeratePhysicalDevices")
	}

	if deviceCount == 0 {
		return nil, nil
	}

	devices := make([]vk.PhysicalDevice, deviceCount)
	err = vk.Error(vk.EnumeratePhysicalDevices(i.VKInstance, &deviceCount, devices))
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumeratePhysicalDevices")
	}

	ret := make([]*PhysicalDevice, deviceCount)
	for i, device := range devices {
		ret[i] = &PhysicalDevice{}
		ret[i].VKPhysicalDevice = device

		vk.GetPhysicalDeviceProperties(device, &ret[i].VKPhysicalDeviceProperties)

		ret[i].VKPhysicalDeviceProperties.Deref()
		ret[i].DeviceName = vk.ToString(ret[i].VKPhysicalDeviceProperties.DeviceName[:])
	}
	return ret, nil
}

// SetDebugCallback installs callback for validation errors and warnings.
func (i *Instance) SetDebugCallback(callback vk.DebugReportCallbackFunc) error {
	ret := vk.CreateDebugReportCallback(i.VKInstance, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: callback,
	}, nil, &i.debugCallback)
	return errors.Wrap(vk.Error(ret), "vkCreateDebugReportCallbackEXT")
}

// LoggerDebugCallback forwards validation layer reports to the package
// logger.
func LoggerDebugCallback(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	log := Logger().With("layer", pLayerPrefix, "code", messageCode)
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		log.Error(pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		log.Warn(pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		log.Warn(pMessage, "performance", true)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		log.Debug(pMessage)
	default:
		log.Info(pMessage)
	}
	return vk.Bool32(vk.False)
}

// DestroySurface destroys a surface created for this instance.
func (i *Instance) DestroySurface(surface vk.Surface) {
	vk.DestroySurface(i.VKInstance, surface, nil)
}

func (i *Instance) Destroy() {
	if i.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(i.VKInstance, i.debugCallback, nil)
	}
	vk.DestroyInstance(i.VKInstance, nil)
}

func (i *Instance) String() string {
	return fmt.Sprintf("{Instance debug: %v}", i.debugCallback != vk.NullDebugReportCallback)
}
