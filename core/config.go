package core

import "github.com/gobuffalo/packd"

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Instance InstanceConfiguration
	Renderer RendererConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay sets the time between event queue polls in milliseconds
	EventPollDelay int
}

// InstanceConfiguration is used to configure the Vulkan instance
type InstanceConfiguration struct {
	// DebugMode loads validation layers and wires the diagnostics callback
	DebugMode bool

	Extensions []string
	Layers     []string
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	DeviceExtensions []string

	// ScreenWidth and ScreenHeight are the requested surface dimensions,
	// used when the surface does not report a definite extent itself
	ScreenWidth  uint32
	ScreenHeight uint32

	// ShaderDirectory is walked for compiled shaders.
	// Wins over the other shader sources when set
	ShaderDirectory string

	// ShaderArchive names a kar archive that holds compiled shaders.
	// Used when no directory is configured
	ShaderArchive string

	// ShaderBox is walked for compiled shaders packed into the
	// binary, the fallback when nothing else is configured
	ShaderBox packd.Walker
}
