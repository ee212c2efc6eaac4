package model_test

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"unsafe"

	vk "github.com/devblok/vulkan"

	"github.com/koru3d/puna/model"
)

type stubObject struct {
	model.Object
}

func TestVertexDescriptions(t *testing.T) {
	bindings := model.VertexBindingDescriptions()
	if len(bindings) != 1 {
		t.Fatalf("expected one vertex binding, got %d", len(bindings))
	}
	if bindings[0].Binding != 0 {
		t.Fatalf("unexpected binding index %d", bindings[0].Binding)
	}
	if bindings[0].Stride != uint32(unsafe.Sizeof(model.Vertex{})) {
		t.Fatalf("binding stride %d does not cover the vertex", bindings[0].Stride)
	}

	attributes := model.VertexAttributeDescriptions()
	if len(attributes) != 2 {
		t.Fatalf("expected two vertex attributes, got %d", len(attributes))
	}
	if attributes[0].Offset != uint32(unsafe.Offsetof(model.Vertex{}.Pos)) {
		t.Fatalf("position attribute offset %d does not match the field", attributes[0].Offset)
	}
	if attributes[0].Format != vk.FormatR32g32b32Sfloat {
		t.Fatalf("unexpected position format %d", attributes[0].Format)
	}
	if attributes[1].Offset != uint32(unsafe.Offsetof(model.Vertex{}.Color)) {
		t.Fatalf("color attribute offset %d does not match the field", attributes[1].Offset)
	}
	if attributes[1].Format != vk.FormatR32g32b32a32Sfloat {
		t.Fatalf("unexpected color format %d", attributes[1].Format)
	}
	for idx, attribute := range attributes {
		if attribute.Location != uint32(idx) {
			t.Fatalf("attribute %d bound to location %d", idx, attribute.Location)
		}
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	registry := model.NewRegistry()
	if err := registry.Register("cube", stubObject{}); err != nil {
		t.Fatal(err)
	}

	if _, ok := registry.Lookup("cube"); !ok {
		t.Fatal("registered model not found")
	}
	if _, ok := registry.Lookup("sphere"); ok {
		t.Fatal("lookup invented a model")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := model.NewRegistry()
	if err := registry.Register("cube", stubObject{}); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register("cube", stubObject{}); err != model.ErrModelExists {
		t.Fatalf("expected ErrModelExists, got %v", err)
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	registry := model.NewRegistry()
	for _, name := range []string{"zeppelin", "anvil", "mill"} {
		if err := registry.Register(name, stubObject{}); err != nil {
			t.Fatal(err)
		}
	}
	names := registry.Names()
	if !reflect.DeepEqual(names, []string{"anvil", "mill", "zeppelin"}) {
		t.Fatalf("unexpected name order %v", names)
	}
}

func TestRegistryConcurrentUse(t *testing.T) {
	registry := model.NewRegistry()

	var group sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		group.Add(1)
		go func(worker int) {
			defer group.Done()
			for i := 0; i < 100; i++ {
				name := fmt.Sprintf("object-%d-%d", worker, i)
				if err := registry.Register(name, stubObject{}); err != nil {
					t.Error(err)
					return
				}
				if _, ok := registry.Lookup(name); !ok {
					t.Errorf("%s vanished after registration", name)
					return
				}
				registry.Names()
			}
		}(worker)
	}
	group.Wait()

	if len(registry.Names()) != 8*100 {
		t.Fatalf("expected %d models, got %d", 8*100, len(registry.Names()))
	}
}

func TestRegistryRegisterCollada(t *testing.T) {
	registry := model.NewRegistry()
	if err := registry.RegisterCollada("plane", []byte(planeDocument)); err != nil {
		t.Fatal(err)
	}

	object, ok := registry.Lookup("plane")
	if !ok {
		t.Fatal("imported model not found")
	}
	if len(object.Vertices()) != 6 {
		t.Fatalf("expected 6 vertices, got %d", len(object.Vertices()))
	}
}

func TestRegistryRegisterColladaInvalid(t *testing.T) {
	registry := model.NewRegistry()
	if err := registry.RegisterCollada("broken", []byte("not xml at all")); err == nil {
		t.Fatal("expected an import error")
	}
	if _, ok := registry.Lookup("broken"); ok {
		t.Fatal("a failed import should not register anything")
	}
}
