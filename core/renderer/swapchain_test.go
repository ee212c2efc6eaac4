package renderer

import (
	"testing"

	vk "github.com/devblok/vulkan"

	"github.com/koru3d/puna/device"
)

func TestSelectSurfaceFormatPreferred(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	if selected := selectSurfaceFormat(formats); selected.Format != vk.FormatR8g8b8a8Unorm {
		t.Fatalf("expected the preferred format, got %d", selected.Format)
	}
}

func TestSelectSurfaceFormatFallback(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	if selected := selectSurfaceFormat(formats); selected.Format != vk.FormatB8g8r8a8Unorm {
		t.Fatalf("expected the first advertised format, got %d", selected.Format)
	}
}

func TestSelectSurfaceFormatSingle(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	if selected := selectSurfaceFormat(formats); selected.Format != vk.FormatB8g8r8a8Srgb {
		t.Fatalf("expected the only advertised format, got %d", selected.Format)
	}
}

func TestSelectPresentModePreferred(t *testing.T) {
	modes := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeMailbox, vk.PresentModeFifo}
	if mode := selectPresentMode(modes); mode != vk.PresentModeMailbox {
		t.Fatalf("expected mailbox, got %d", mode)
	}
}

func TestSelectPresentModeFallback(t *testing.T) {
	modes := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifoRelaxed}
	if mode := selectPresentMode(modes); mode != vk.PresentModeFifo {
		t.Fatalf("expected fifo, got %d", mode)
	}
}

func TestSelectPresentModeEmpty(t *testing.T) {
	if mode := selectPresentMode(nil); mode != vk.PresentModeFifo {
		t.Fatalf("expected fifo, got %d", mode)
	}
}

func TestSelectExtentDefined(t *testing.T) {
	capabilities := vk.SurfaceCapabilities{
		CurrentExtent: vk.Extent2D{Width: 1024, Height: 768},
	}
	extent := selectExtent(capabilities, 800, 600)
	if extent.Width != 1024 || extent.Height != 768 {
		t.Fatalf("expected the surface extent, got %dx%d", extent.Width, extent.Height)
	}
}

func TestSelectExtentRequested(t *testing.T) {
	capabilities := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 2000, Height: 2000},
	}
	extent := selectExtent(capabilities, 800, 600)
	if extent.Width != 800 || extent.Height != 600 {
		t.Fatalf("expected the requested extent, got %dx%d", extent.Width, extent.Height)
	}
}

func TestSelectExtentClamped(t *testing.T) {
	capabilities := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 2000, Height: 2000},
	}
	extent := selectExtent(capabilities, 50, 4000)
	if extent.Width != 100 || extent.Height != 2000 {
		t.Fatalf("expected per axis clamping, got %dx%d", extent.Width, extent.Height)
	}
}

func TestSelectImageCountUnbounded(t *testing.T) {
	capabilities := vk.SurfaceCapabilities{MinImageCount: 2}
	if count := selectImageCount(capabilities); count != 3 {
		t.Fatalf("expected one image over the minimum, got %d", count)
	}
}

func TestSelectImageCountClamped(t *testing.T) {
	capabilities := vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}
	if count := selectImageCount(capabilities); count != 2 {
		t.Fatalf("expected the supported maximum, got %d", count)
	}
}

func TestSelectSharingModeConcurrent(t *testing.T) {
	families := device.QueueFamilies{
		Graphics:      0,
		GraphicsFound: true,
		Present:       1,
		PresentFound:  true,
	}
	mode, indices := selectSharingMode(families)
	if mode != vk.SharingModeConcurrent {
		t.Fatalf("split families should share concurrently, got mode %d", mode)
	}
	if len(indices) != 2 || indices[0] != 0 || indices[1] != 1 {
		t.Fatalf("unexpected family indices %v", indices)
	}
}

func TestSelectSharingModeExclusive(t *testing.T) {
	families := device.QueueFamilies{
		Graphics:      0,
		GraphicsFound: true,
		Present:       0,
		PresentFound:  true,
	}
	mode, indices := selectSharingMode(families)
	if mode != vk.SharingModeExclusive {
		t.Fatalf("a shared family should be exclusive, got mode %d", mode)
	}
	if indices != nil {
		t.Fatalf("exclusive mode needs no explicit indices, got %v", indices)
	}
}
