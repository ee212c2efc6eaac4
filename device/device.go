package device

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        uint
}

// QueueFamilies holds the queue family indices resolved for one device
// and surface combination. Indices are only meaningful when the matching
// found flag is set, the zero value is never complete. It is not kept
// around, it gets resolved fresh whenever the device and surface pair
// changes.
type QueueFamilies struct {
	Graphics      uint32
	GraphicsFound bool

	Present      uint32
	PresentFound bool
}

// Complete reports whether both a graphics capable and a present
// capable queue family have been found
func (q QueueFamilies) Complete() bool {
	return q.GraphicsFound && q.PresentFound
}

// Concurrent reports whether swapchain images have to be shared
// between two distinct queue families
func (q QueueFamilies) Concurrent() bool {
	return q.Complete() && q.Graphics != q.Present
}

// Unique returns the deduplicated family index set, graphics family first
func (q QueueFamilies) Unique() []uint32 {
	if q.Graphics == q.Present {
		return []uint32{q.Graphics}
	}
	return []uint32{q.Graphics, q.Present}
}

// Indices returns both family indices for concurrent sharing setups
func (q QueueFamilies) Indices() []uint32 {
	return []uint32{q.Graphics, q.Present}
}

// Configuration is used to provision the logical device
type Configuration struct {
	Extensions []string
	Layers     []string
}
