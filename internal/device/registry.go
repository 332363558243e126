package device

import (
	"fmt"
	"strings"

	"github.com/AnyUserName/img2ascii-cli/internal/errdefs"
)

// Registry holds known devices in priority order.
type Registry struct {
	devices []*Device
}

// NewRegistry creates a registry. Earlier devices are preferred.
func NewRegistry(devices ...*Device) *Registry {
	return &Registry{devices: devices}
}

// DefaultRegistry probes the host: a device with one lane per
// GOMAXPROCS, followed by a single-lane device for debugging.
func DefaultRegistry() *Registry {
	return HostRegistry(0)
}

// HostRegistry is DefaultRegistry with the host device capped at lanes
// concurrent threadgroups; lanes <= 0 keeps the GOMAXPROCS default.
func HostRegistry(lanes int) *Registry {
	host := DefaultLimits()
	if lanes > 0 {
		host.Lanes = lanes
	}
	serial := DefaultLimits()
	serial.Lanes = 1
	return NewRegistry(
		NewHost("host", host),
		NewHost("serial", serial),
	)
}

// Get returns a device by name, or nil.
func (r *Registry) Get(name string) *Device {
	for _, d := range r.devices {
		if strings.EqualFold(d.name, name) {
			return d
		}
	}
	return nil
}

// All returns every registered device, available or not.
func (r *Registry) All() []*Device {
	return r.devices
}

// Available returns the names of devices that can execute work.
func (r *Registry) Available() []string {
	var result []string
	for _, d := range r.devices {
		if d.Available() {
			result = append(result, d.name)
		}
	}
	return result
}

// Acquire returns the named device, or the first available one when name
// is empty.
func (r *Registry) Acquire(name string) (*Device, error) {
	if name != "" {
		d := r.Get(name)
		if d == nil {
			return nil, errdefs.New(errdefs.CodeDeviceUnavailable, "unknown device %q", name)
		}
		if !d.Available() {
			return nil, errdefs.New(errdefs.CodeDeviceUnavailable, "device %q is not available", name)
		}
		return d, nil
	}
	for _, d := range r.devices {
		if d.Available() {
			return d, nil
		}
	}
	return nil, errdefs.New(errdefs.CodeDeviceUnavailable, "no compatible compute device")
}

// String returns a summary of available devices.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no devices available"
	}
	return fmt.Sprintf("devices: %s", strings.Join(avail, ", "))
}
