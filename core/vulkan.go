package core

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"
)

// Errors that can come out of instance capability negotiation
var (
	// ErrMissingLayer means a required instance layer is not installed
	ErrMissingLayer = errors.New("a required instance layer is missing")

	// ErrMissingExtension means the driver does not carry a required instance extension
	ErrMissingExtension = errors.New("a required instance extension is missing")
)

// DefaultVulkanApplicationInfo application info describes a Vulkan application
var DefaultVulkanApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 1, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   "Puna\x00",
	PEngineName:        "Koru3D\x00",
}

// validationLayerName is loaded in addition to configured layers in debug mode
const validationLayerName = "VK_LAYER_KHRONOS_validation"

// NewVulkanInstance creates a Vulkan instance. Required layers are
// negotiated against the installed ones before creation, required
// extensions are not checked here and surface as a creation error
// instead. In debug mode the validation layer and the diagnostics
// callback are attached as well.
func NewVulkanInstance(appInfo *vk.ApplicationInfo, window unsafe.Pointer, cfg InstanceConfiguration) (Instance, error) {
	if cfg.DebugMode {
		cfg.Layers = append(cfg.Layers, validationLayerName)
		cfg.Extensions = append(cfg.Extensions, "VK_EXT_debug_report")
	}
	cfg.Layers = safeStrings(cfg.Layers)
	cfg.Extensions = safeStrings(cfg.Extensions)

	if window == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.New("vk.InstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(window)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.New("vk.Init(): " + err.Error())
	}

	/* Layer negotiation */
	installedLayers, err := installedInstanceLayers()
	if err != nil {
		return nil, errors.New("core.installedInstanceLayers(): " + err.Error())
	}
	for _, layer := range installedLayers {
		log.WithField("layer", layer).Debug("instance layer installed")
	}
	for _, required := range cfg.Layers {
		if !containsName(installedLayers, required) {
			log.WithField("layer", unsafeString(required)).Error("instance layer not installed")
			return nil, ErrMissingLayer
		}
	}

	/* Create instance */
	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: cfg.Extensions,
		EnabledLayerCount:       uint32(len(cfg.Layers)),
		PpEnabledLayerNames:     cfg.Layers,
	}

	var instance vk.Instance
	switch result := vk.CreateInstance(&instanceInfo, nil, &instance); result {
	case vk.Success:
	case vk.ErrorLayerNotPresent:
		return nil, ErrMissingLayer
	case vk.ErrorExtensionNotPresent:
		return nil, ErrMissingExtension
	default:
		return nil, errors.New("vk.CreateInstance(): " + vk.Error(result).Error())
	}
	vk.InitInstance(instance)

	v := &VulkanInstance{
		configuration:   cfg,
		instance:        instance,
		installedLayers: installedLayers,
	}
	v.teardown.Push("instance", func() {
		vk.DestroyInstance(v.instance, nil)
	})

	/* Diagnostics callback, sits between device and instance teardown */
	if cfg.DebugMode {
		if err := v.setupDiagnostics(); err != nil {
			v.teardown.Run()
			return nil, err
		}
	}

	/* Enumerate devices */
	physicalDevices, err := enumerateDevices(instance)
	if err != nil {
		v.teardown.Run()
		return nil, errors.New("core.enumerateDevices(): " + err.Error())
	}
	v.availableDevices = physicalDevices

	return v, nil
}

// VulkanInstance describes a Vulkan API Instance
type VulkanInstance struct {
	Destroyable

	configuration InstanceConfiguration

	availableDevices []vk.PhysicalDevice
	installedLayers  []string
	surface          vk.Surface
	debugCallback    vk.DebugReportCallback
	instance         vk.Instance

	teardown Teardown
}

func installedInstanceLayers() ([]string, error) {
	var layerCount uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&layerCount, nil)); err != nil {
		return nil, err
	}
	layers := make([]vk.LayerProperties, layerCount)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&layerCount, layers)); err != nil {
		return nil, err
	}

	names := make([]string, 0, layerCount)
	for _, layer := range layers {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

func containsName(haystack []string, name string) bool {
	for _, candidate := range haystack {
		if unsafeString(candidate) == unsafeString(name) {
			return true
		}
	}
	return false
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	availableDevices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, availableDevices)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	return availableDevices, nil
}

// setupDiagnostics wires the process wide debug report callback.
// The binding only supports Go callbacks registered on a live instance,
// so this is the earliest point it can exist. It is released after all
// device level resources but before the instance itself.
func (v *VulkanInstance) setupDiagnostics() error {
	drci := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: debugReportCallback,
	}

	var callback vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(v.instance, &drci, nil, &callback)); err != nil {
		return errors.New("vk.CreateDebugReportCallback(): " + err.Error())
	}
	v.debugCallback = callback
	v.teardown.Push("debug callback", func() {
		vk.DestroyDebugReportCallback(v.instance, v.debugCallback, nil)
	})
	return nil
}

// debugReportCallback forwards driver diagnostics to the logger.
// Report flags carry both the severity and what little category
// information the extension has, performance problems come in on
// their own bit, everything else from the validation layers is
// either a warning or an error.
func debugReportCallback(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	entry := log.WithField("layer", pLayerPrefix)
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		entry.WithField("category", "validation").Error(pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		entry.WithField("category", "performance").Warn(pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		entry.WithField("category", "validation").Warn(pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		entry.WithField("category", "general").Info(pMessage)
	default:
		entry.WithField("category", "general").Debug(pMessage)
	}
	return vk.Bool32(vk.False)
}

// SetSurface implements interface
func (v *VulkanInstance) SetSurface(pSurface unsafe.Pointer) {
	if v.surface != vk.NullSurface {
		return
	}
	v.surface = vk.SurfaceFromPointer(uintptr(pSurface))
	v.teardown.Push("surface", func() {
		vk.DestroySurface(v.instance, v.surface, nil)
	})
}

// Surface implements interface
func (v VulkanInstance) Surface() vk.Surface {
	if v.surface == vk.NullSurface {
		return vk.NullSurface
	}
	return v.surface
}

// Instance returns internal vk.Instance
func (v *VulkanInstance) Instance() interface{} {
	return v.instance
}

// Extensions implements interface
func (v VulkanInstance) Extensions() []string {
	return v.configuration.Extensions
}

// AvailableLayers implements interface
func (v VulkanInstance) AvailableLayers() []string {
	return v.installedLayers
}

// AvailableDevices implements interface
func (v VulkanInstance) AvailableDevices() []vk.PhysicalDevice {
	return v.availableDevices
}

// Destroy implements interface
func (v *VulkanInstance) Destroy() {
	if v == nil {
		return
	}
	v.availableDevices = nil
	v.teardown.Run()
}
