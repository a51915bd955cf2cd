package capture

import (
	"fmt"
	"slices"
	"strings"
)

// DeviceFactory builds a device from the capture section of the config
type DeviceFactory func(params map[string]any) (Device, error)

// DeviceRegistry resolves the configured device name to its factory
type DeviceRegistry struct {
	factories map[string]DeviceFactory
}

func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{factories: make(map[string]DeviceFactory)}
}

// Register makes a device available under name. Names are unique.
func (r *DeviceRegistry) Register(name string, factory DeviceFactory) error {
	switch {
	case name == "":
		return fmt.Errorf("device name cannot be empty")
	case factory == nil:
		return fmt.Errorf("device factory for %s cannot be nil", name)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("device %s is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create builds the named device. Unknown names list what is available.
func (r *DeviceRegistry) Create(name string, params map[string]any) (Device, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown capture device %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}

	device, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture device %s: %w", name, err)
	}
	return device, nil
}

// Names returns the registered device names in sorted order
func (r *DeviceRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultRegistry holds the built-in devices; each registers itself in init
var DefaultRegistry = NewDeviceRegistry()
