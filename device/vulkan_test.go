package device

import (
	"reflect"
	"testing"

	vk "github.com/devblok/vulkan"
)

func graphicsFamily(queues uint32) vk.QueueFamilyProperties {
	return vk.QueueFamilyProperties{
		QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit),
		QueueCount: queues,
	}
}

func computeFamily(queues uint32) vk.QueueFamilyProperties {
	return vk.QueueFamilyProperties{
		QueueFlags: vk.QueueFlags(vk.QueueComputeBit),
		QueueCount: queues,
	}
}

func presentsOnly(families ...uint32) func(uint32) bool {
	return func(family uint32) bool {
		for _, f := range families {
			if f == family {
				return true
			}
		}
		return false
	}
}

func TestScanSplitFamilies(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		computeFamily(1),
		graphicsFamily(1),
		graphicsFamily(1),
	}
	resolved := scanQueueFamilies(families, presentsOnly(2))
	if !resolved.Complete() {
		t.Fatal("expected complete queue families")
	}
	if resolved.Graphics != 1 || resolved.Present != 2 {
		t.Fatalf("expected graphics 1 and present 2, got %d and %d", resolved.Graphics, resolved.Present)
	}
	if !resolved.Concurrent() {
		t.Fatal("split families should need concurrent sharing")
	}
	if unique := resolved.Unique(); !reflect.DeepEqual(unique, []uint32{1, 2}) {
		t.Fatalf("unexpected unique set %v", unique)
	}
	if indices := resolved.Indices(); !reflect.DeepEqual(indices, []uint32{1, 2}) {
		t.Fatalf("unexpected index set %v", indices)
	}
}

func TestScanSharedFamily(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		graphicsFamily(4),
		graphicsFamily(1),
	}
	resolved := scanQueueFamilies(families, presentsOnly(0, 1))
	if !resolved.Complete() {
		t.Fatal("expected complete queue families")
	}
	if resolved.Graphics != 0 || resolved.Present != 0 {
		t.Fatalf("expected the shared family 0, got %d and %d", resolved.Graphics, resolved.Present)
	}
	if resolved.Concurrent() {
		t.Fatal("a shared family must not need concurrent sharing")
	}
	if unique := resolved.Unique(); !reflect.DeepEqual(unique, []uint32{0}) {
		t.Fatalf("unexpected unique set %v", unique)
	}
}

func TestScanSkipsEmptyFamilies(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		graphicsFamily(0),
		graphicsFamily(1),
	}
	resolved := scanQueueFamilies(families, presentsOnly(0, 1))
	if !resolved.Complete() {
		t.Fatal("expected complete queue families")
	}
	if resolved.Graphics != 1 || resolved.Present != 1 {
		t.Fatalf("family without queues should be skipped, got %d and %d", resolved.Graphics, resolved.Present)
	}
}

func TestScanStopsOnceComplete(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		graphicsFamily(1),
		graphicsFamily(1),
		graphicsFamily(1),
	}
	probed := 0
	resolved := scanQueueFamilies(families, func(family uint32) bool {
		probed++
		return true
	})
	if !resolved.Complete() {
		t.Fatal("expected complete queue families")
	}
	if probed != 1 {
		t.Fatalf("scan should stop after the first complete family, probed %d", probed)
	}
}

func TestScanIncomplete(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		computeFamily(1),
		computeFamily(2),
	}
	resolved := scanQueueFamilies(families, presentsOnly())
	if resolved.Complete() {
		t.Fatal("expected incomplete queue families")
	}
	if resolved.Concurrent() {
		t.Fatal("incomplete families must not report concurrent sharing")
	}
}

func TestZeroQueueFamilies(t *testing.T) {
	var zero QueueFamilies
	if zero.Complete() {
		t.Fatal("zero value must not be complete")
	}
}

func TestFirstSuitablePicksFirstPass(t *testing.T) {
	var evaluated []int
	selected := firstSuitable(5, func(idx int) bool {
		evaluated = append(evaluated, idx)
		return idx == 2
	})
	if selected != 2 {
		t.Fatalf("expected index 2, got %d", selected)
	}
	if !reflect.DeepEqual(evaluated, []int{0, 1, 2}) {
		t.Fatalf("candidates past the first pass were evaluated: %v", evaluated)
	}
}

func TestFirstSuitableNonePass(t *testing.T) {
	selected := firstSuitable(3, func(idx int) bool { return false })
	if selected != -1 {
		t.Fatalf("expected -1, got %d", selected)
	}
}

func TestMissingExtensions(t *testing.T) {
	required := []string{"VK_KHR_swapchain\x00", "VK_EXT_descriptor_indexing"}
	available := []string{"VK_KHR_swapchain", "VK_KHR_maintenance1\x00"}
	missing := missingExtensions(required, available)
	if !reflect.DeepEqual(missing, []string{"VK_EXT_descriptor_indexing"}) {
		t.Fatalf("unexpected missing set %v", missing)
	}
}

func TestMissingExtensionsAllPresent(t *testing.T) {
	required := []string{"VK_KHR_swapchain\x00"}
	available := []string{"VK_KHR_maintenance1", "VK_KHR_swapchain"}
	if missing := missingExtensions(required, available); len(missing) != 0 {
		t.Fatalf("expected no missing extensions, got %v", missing)
	}
}

func TestTerminated(t *testing.T) {
	names := terminated([]string{"VK_KHR_swapchain", "VK_KHR_maintenance1\x00"})
	for _, name := range names {
		if name[len(name)-1] != '\x00' {
			t.Fatalf("name %q is not null terminated", name)
		}
		if name[len(name)-2] == '\x00' {
			t.Fatalf("name %q is terminated twice", name)
		}
	}
}

func TestNewLogicalPanicsOnIncompleteFamilies(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for incomplete queue families")
		}
	}()
	NewLogical(nil, QueueFamilies{}, Configuration{})
}
