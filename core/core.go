package core

import (
	"unsafe"

	vk "github.com/devblok/vulkan"
)

// Instance describes a Vulkan instance and supporting methods.
// Once created it is ready to use.
type Instance interface {
	// AvailableDevices returns handles of Physical Devices
	// from the Vulkan API
	AvailableDevices() []vk.PhysicalDevice

	// AvailableLayers returns the instance layers that were
	// discovered while the instance was negotiated
	AvailableLayers() []string

	// SetSurface sets the window surface for rendering
	SetSurface(unsafe.Pointer)

	// Surface returns the window surface, if it's not set
	// it should return a valid but empty surface
	Surface() vk.Surface

	// Extensions returns instance extensions in use
	Extensions() []string

	// Instance returns the inner handle of the underlying API
	Instance() interface{}

	// Destroy destroys the surface, the diagnostics callback
	// and the instance, in that order
	Destroy()
}

// Destroyable is anything that releases the resources it owns
type Destroyable interface {
	// Destroy destroys internal members
	Destroy()
}

// Shader describes a shader module that is ready to bind into a pipeline
type Shader interface {
	Destroyable

	// Type returns the pipeline stage this shader serves
	Type() ShaderType

	// Name returns the name the shader was loaded under
	Name() string

	// ShaderModule returns the underlying API shader module handle
	ShaderModule() interface{}
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)
