package main

import (
	"github.com/koru3d/puna/core"
	"github.com/koru3d/puna/device"
)

// snapshot holds everything the inspector displays.
type snapshot struct {
	Layers  []string
	Devices []device.PhysicalDeviceInfo
}

// takeSnapshot creates a headless instance without a surface, collects
// the installed layers and the accelerator inventory, then destroys
// the instance again.
func takeSnapshot() (snapshot, error) {
	cfg := core.InstanceConfiguration{
		Extensions: []string{},
		Layers:     []string{},
	}

	instance, err := core.NewVulkanInstance(core.DefaultVulkanApplicationInfo, nil, cfg)
	if err != nil {
		return snapshot{}, err
	}
	defer instance.Destroy()

	return snapshot{
		Layers:  instance.AvailableLayers(),
		Devices: device.Info(instance.AvailableDevices()),
	}, nil
}
