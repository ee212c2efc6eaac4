package model

import (
	"errors"
	"sort"
	"sync"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"

	vk "github.com/devblok/vulkan"
)

// ErrModelExists is returned when a model name is already taken in a Registry
var ErrModelExists = errors.New("a model with this name is already registered")

// Object represents the engine supported model
type Object interface {

	// SetPosition sets the object's current position in space.
	// Has to be thread-safe
	SetPosition(glm.Mat4)

	// Position gets the object's current position in space.
	// Has to be thread-safe
	Position() glm.Mat4

	// SetRotation sets the object's rotation matrix.
	// Has to be thread-safe
	SetRotation(glm.Mat4)

	// Rotation gets the object's rotation matrix.
	// Has to be thread-safe
	Rotation() glm.Mat4

	// Vertices returns the vertices for Renderer use,
	// so it has to match the descriptors exactly
	Vertices() []Vertex
}

// Vertex is a model vertex
type Vertex struct {
	Pos   glm.Vec3
	Color glm.Vec4
}

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}

// NewRegistry creates an empty model registry
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]Object),
	}
}

// Registry keeps loaded models by name for the rest of the
// engine to look up. Safe for concurrent use.
type Registry struct {
	mutex  sync.RWMutex
	models map[string]Object
}

// Register stores an object under a name, names are taken once
func (r *Registry) Register(name string, object Object) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, taken := r.models[name]; taken {
		return ErrModelExists
	}
	r.models[name] = object
	return nil
}

// RegisterCollada imports a collada document and registers
// the resulting object under a name
func (r *Registry) RegisterCollada(name string, fileContents []byte) error {
	object, err := ImportColladaObject(fileContents)
	if err != nil {
		return err
	}
	return r.Register(name, object)
}

// Lookup finds a registered model by name
func (r *Registry) Lookup(name string) (Object, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	object, ok := r.models[name]
	return object, ok
}

// Names lists the registered model names in sorted order
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
