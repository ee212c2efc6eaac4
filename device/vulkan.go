package device

import (
	"errors"
	"strings"

	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrNoSuitableDevice is returned when none of the installed
	// physical devices can drive the rendering surface
	ErrNoSuitableDevice = errors.New("no suitable physical device found")

	// ErrDeviceCreationFailed is returned when the logical device
	// could not be provisioned on the selected physical device
	ErrDeviceCreationFailed = errors.New("logical device creation failed")
)

// ResolveQueueFamilies scans the queue families of a physical device
// for graphics and surface presentation support
func ResolveQueueFamilies(physical vk.PhysicalDevice, surface vk.Surface) QueueFamilies {
	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &familyCount, families)

	return scanQueueFamilies(families, func(family uint32) bool {
		var supported vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(physical, family, surface, &supported)
		return supported == vk.Bool32(vk.True)
	})
}

// scanQueueFamilies walks the family list in index order and records the
// first graphics capable and the first present capable family. Families
// that expose no queues are skipped. The scan stops as soon as both
// capabilities are found, so the lowest indices always win.
func scanQueueFamilies(families []vk.QueueFamilyProperties, presents func(family uint32) bool) QueueFamilies {
	var resolved QueueFamilies
	for idx := range families {
		families[idx].Deref()
		if families[idx].QueueCount == 0 {
			continue
		}
		family := uint32(idx)
		if !resolved.GraphicsFound && families[idx].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			resolved.Graphics = family
			resolved.GraphicsFound = true
		}
		if !resolved.PresentFound && presents(family) {
			resolved.Present = family
			resolved.PresentFound = true
		}
		if resolved.Complete() {
			break
		}
	}
	return resolved
}

// Suitable reports whether a physical device can drive the given surface
// with all required device extensions. When it cannot, reason names the
// first check that failed.
func Suitable(physical vk.PhysicalDevice, surface vk.Surface, extensions []string) (ok bool, reason string) {
	families := ResolveQueueFamilies(physical, surface)
	switch {
	case !families.GraphicsFound:
		return false, "no graphics capable queue family"
	case !families.PresentFound:
		return false, "no present capable queue family"
	}

	available, err := deviceExtensionNames(physical)
	if err != nil {
		return false, err.Error()
	}
	if missing := missingExtensions(extensions, available); len(missing) > 0 {
		return false, "device extensions missing: " + strings.Join(missing, ", ")
	}

	formatCount, presentModeCount, err := surfaceSupportCounts(physical, surface)
	if err != nil {
		return false, err.Error()
	}
	if formatCount == 0 || presentModeCount == 0 {
		return false, "no surface formats or present modes for the swapchain"
	}
	return true, ""
}

// Select picks the first physical device in enumeration order that is
// suitable for the surface and extension set
func Select(devices []vk.PhysicalDevice, surface vk.Surface, extensions []string) (vk.PhysicalDevice, error) {
	selected := firstSuitable(len(devices), func(idx int) bool {
		ok, reason := Suitable(devices[idx], surface, extensions)
		if !ok {
			log.WithFields(log.Fields{
				"device": idx,
				"reason": reason,
			}).Debug("physical device rejected")
		}
		return ok
	})
	if selected < 0 {
		log.Error(ErrNoSuitableDevice.Error())
		return nil, ErrNoSuitableDevice
	}

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(devices[selected], &properties)
	properties.Deref()
	log.WithFields(log.Fields{
		"device": selected,
		"name":   vk.ToString(properties.DeviceName[:]),
	}).Info("physical device selected")
	return devices[selected], nil
}

// firstSuitable returns the index of the first candidate that passes,
// or -1. Candidates past the first pass are never evaluated.
func firstSuitable(count int, passes func(idx int) bool) int {
	for idx := 0; idx < count; idx++ {
		if passes(idx) {
			return idx
		}
	}
	return -1
}

// missingExtensions returns the required extension names that do not
// appear in the available set. Terminating null bytes are ignored on
// both sides of the comparison.
func missingExtensions(required, available []string) []string {
	var missing []string
	for _, req := range required {
		found := false
		for _, avail := range available {
			if strings.TrimRight(req, "\x00") == strings.TrimRight(avail, "\x00") {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, strings.TrimRight(req, "\x00"))
		}
	}
	return missing
}

func deviceExtensionNames(physical vk.PhysicalDevice) ([]string, error) {
	var extensionCount uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(physical, "", &extensionCount, nil)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}
	extensions := make([]vk.ExtensionProperties, extensionCount)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(physical, "", &extensionCount, extensions)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}

	names := make([]string, 0, extensionCount)
	for _, extension := range extensions {
		extension.Deref()
		names = append(names, vk.ToString(extension.ExtensionName[:]))
	}
	return names, nil
}

func surfaceSupportCounts(physical vk.PhysicalDevice, surface vk.Surface) (uint32, uint32, error) {
	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &formatCount, nil)); err != nil {
		return 0, 0, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	var presentModeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &presentModeCount, nil)); err != nil {
		return 0, 0, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	return formatCount, presentModeCount, nil
}

// Logical wraps a provisioned logical device together with the queue
// handles retrieved from it
type Logical struct {
	Physical vk.PhysicalDevice
	Device   vk.Device

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	Families QueueFamilies
}

// NewLogical provisions a logical device on the given physical device
// with one queue per unique family. Calling it with incomplete queue
// families is a programming error and panics.
func NewLogical(physical vk.PhysicalDevice, families QueueFamilies, cfg Configuration) (*Logical, error) {
	if !families.Complete() {
		panic("device: NewLogical called with incomplete queue families")
	}

	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, 2)
	for _, family := range families.Unique() {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	extensions := terminated(cfg.Extensions)
	layers := terminated(cfg.Layers)

	var device vk.Device
	result := vk.CreateDevice(physical, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &device)
	if result != vk.Success {
		log.WithField("result", result).Error(ErrDeviceCreationFailed.Error())
		return nil, ErrDeviceCreationFailed
	}

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(device, families.Graphics, 0, &graphicsQueue)
	vk.GetDeviceQueue(device, families.Present, 0, &presentQueue)

	return &Logical{
		Physical:      physical,
		Device:        device,
		GraphicsQueue: graphicsQueue,
		PresentQueue:  presentQueue,
		Families:      families,
	}, nil
}

// Destroy releases the logical device. Queue handles die with it.
func (l *Logical) Destroy() {
	if l == nil {
		return
	}
	vk.DestroyDevice(l.Device, nil)
}

// terminated null terminates every name that does not carry a
// terminator yet, the driver expects C strings
func terminated(names []string) []string {
	safe := make([]string, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, "\x00") {
			name += "\x00"
		}
		safe = append(safe, name)
	}
	return safe
}

// Info assembles the exposed properties of every given physical device
func Info(devices []vk.PhysicalDevice) []PhysicalDeviceInfo {
	pdi := make([]PhysicalDeviceInfo, len(devices))
	for i := 0; i < len(devices); i++ {
		// Get extension info
		extensions, err := deviceExtensionNames(devices[i])
		if err != nil {
			pdi[i].Invalid = true
		}
		pdi[i].Extensions = extensions

		// Get layers info
		var numDeviceLayers uint32
		if err := vk.Error(vk.EnumerateDeviceLayerProperties(devices[i], &numDeviceLayers, nil)); err != nil {
			pdi[i].Invalid = true
		}
		deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
		if err := vk.Error(vk.EnumerateDeviceLayerProperties(devices[i], &numDeviceLayers, deviceLayers)); err != nil {
			pdi[i].Invalid = true
		}
		for _, layer := range deviceLayers {
			layer.Deref()
			pdi[i].Layers = append(pdi[i].Layers, vk.ToString(layer.LayerName[:]))
		}

		// Get memory info
		var memoryProperties vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(devices[i], &memoryProperties)
		memoryProperties.Deref()
		for iMem := (uint32)(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
			memoryProperties.MemoryHeaps[iMem].Deref()
			pdi[i].Memory = pdi[i].Memory + uint(memoryProperties.MemoryHeaps[iMem].Size)
		}

		// Get general device info
		var physicalDeviceProperties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(devices[i], &physicalDeviceProperties)
		physicalDeviceProperties.Deref()
		pdi[i].ID = (int)(physicalDeviceProperties.DeviceID)
		pdi[i].VendorID = (int)(physicalDeviceProperties.VendorID)
		pdi[i].Name = vk.ToString(physicalDeviceProperties.DeviceName[:])
		pdi[i].DriverVersion = (int)(physicalDeviceProperties.DriverVersion)
	}
	return pdi
}
