package renderer

import (
	vk "github.com/devblok/vulkan"

	"github.com/koru3d/puna/device"
)

// selectSurfaceFormat prefers an R8G8B8A8 unorm format with sRGB
// nonlinear color space and settles for the first advertised format
// otherwise. The format list is never empty for a suitable device.
func selectSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatR8g8b8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

// selectPresentMode prefers mailbox and falls back to fifo, which
// every conforming driver has to support
func selectPresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// selectExtent adopts the surface extent when the driver defines one.
// A width of MaxUint32 means the surface lets the swapchain decide, in
// which case the requested dimensions are clamped into the supported
// range per axis.
func selectExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != vk.MaxUint32 {
		return capabilities.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampUint32(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clampUint32(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func clampUint32(value, min, max uint32) uint32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// selectImageCount asks for one image over the supported minimum to
// avoid waiting on the driver. A maximum of zero means unbounded.
func selectImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

// selectSharingMode picks concurrent sharing with both family indices
// when graphics and present queues live in different families, and
// exclusive mode with no explicit indices otherwise
func selectSharingMode(families device.QueueFamilies) (vk.SharingMode, []uint32) {
	if families.Concurrent() {
		return vk.SharingModeConcurrent, families.Indices()
	}
	return vk.SharingModeExclusive, nil
}
