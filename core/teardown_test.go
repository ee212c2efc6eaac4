package core_test

import (
	"testing"

	"github.com/koru3d/puna/core"
)

func pushAll(t *core.Teardown, observed *[]string, names ...string) {
	for _, name := range names {
		name := name
		t.Push(name, func() {
			*observed = append(*observed, name)
		})
	}
}

func TestTeardownReverseOrder(t *testing.T) {
	var (
		teardown core.Teardown
		observed []string
	)

	pushAll(&teardown, &observed,
		"instance",
		"debug callback",
		"surface",
		"logical device",
		"swapchain",
		"image views",
		"render pass",
		"pipeline layout",
		"pipeline",
		"framebuffers",
	)
	teardown.Run()

	expected := []string{
		"framebuffers",
		"pipeline",
		"pipeline layout",
		"render pass",
		"image views",
		"swapchain",
		"logical device",
		"surface",
		"debug callback",
		"instance",
	}
	if len(observed) != len(expected) {
		t.Fatalf("ran %d steps, expected %d", len(observed), len(expected))
	}
	for i, name := range expected {
		if observed[i] != name {
			t.Errorf("step %d: got %s, expected %s", i, observed[i], name)
		}
	}
}

func TestTeardownPartialSetup(t *testing.T) {
	var (
		teardown core.Teardown
		observed []string
	)

	pushAll(&teardown, &observed, "instance", "surface", "swapchain")
	teardown.Run()

	expected := []string{"swapchain", "surface", "instance"}
	if len(observed) != len(expected) {
		t.Fatalf("ran %d steps, expected %d", len(observed), len(expected))
	}
	for i, name := range expected {
		if observed[i] != name {
			t.Errorf("step %d: got %s, expected %s", i, observed[i], name)
		}
	}
}

func TestTeardownRunsOnce(t *testing.T) {
	var (
		teardown core.Teardown
		count    int
	)

	teardown.Push("instance", func() {
		count++
	})

	teardown.Run()
	teardown.Run()
	teardown.Run()

	if count != 1 {
		t.Errorf("step ran %d times, expected exactly once", count)
	}
}

func TestTeardownDropsLatePushes(t *testing.T) {
	var (
		teardown core.Teardown
		ran      bool
	)

	teardown.Run()
	teardown.Push("instance", func() {
		ran = true
	})
	teardown.Run()

	if ran {
		t.Error("step pushed after Run must not execute")
	}
}

func TestTeardownSteps(t *testing.T) {
	var teardown core.Teardown

	teardown.Push("instance", func() {})
	teardown.Push("surface", func() {})

	steps := teardown.Steps()
	if len(steps) != 2 || steps[0] != "instance" || steps[1] != "surface" {
		t.Errorf("unexpected step names: %v", steps)
	}

	teardown.Run()
	if len(teardown.Steps()) != 0 {
		t.Error("steps must be empty after Run")
	}
}
