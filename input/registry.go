package input

import (
	"fmt"
	"sort"
	"sync"
)

// Provider exposes the channels of one input device by name.
type Provider interface {
	Source(name string) (Source, bool)
}

// Sources is a static Provider.
type Sources map[string]Source

func (s Sources) Source(name string) (Source, bool) {
	src, ok := s[name]
	return src, ok
}

// Sibling returns the other axis of the 2-axis control ch belongs to.
func (s Sources) Sibling(ch Channel) (Source, bool) {
	want, ok := pairedKind(ch.Kind)
	if !ok || ch.Stick == "" {
		return nil, false
	}
	for _, src := range s {
		c := src.Channel()
		if c.Kind == want && c.StickID() == ch.StickID() {
			return src, true
		}
	}
	return nil, false
}

// SiblingProvider is implemented by providers that can pair axis channels.
type SiblingProvider interface {
	Sibling(ch Channel) (Source, bool)
}

func pairedKind(k Kind) (Kind, bool) {
	switch k {
	case KindAxisX:
		return KindAxisY, true
	case KindAxisY:
		return KindAxisX, true
	default:
		return 0, false
	}
}

// Registry resolves "device/channel" references against registered devices.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]Provider)}
}

// Register adds or replaces the provider for a device name.
func (r *Registry) Register(device string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[device] = p
}

// Devices returns the registered device names, sorted.
func (r *Registry) Devices() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.devices))
	for d := range r.devices {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Resolve looks up a "device/channel" reference.
func (r *Registry) Resolve(ref string) (Source, error) {
	device, name, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	p, ok := r.devices[device]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown input device %q", device)
	}
	src, ok := p.Source(name)
	if !ok {
		return nil, fmt.Errorf("device %q has no channel %q", device, name)
	}
	return src, nil
}

// Sibling looks up the paired axis of ch on its device's provider.
func (r *Registry) Sibling(ch Channel) (Source, bool) {
	r.mu.RLock()
	p, ok := r.devices[ch.Device]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	sp, ok := p.(SiblingProvider)
	if !ok {
		return nil, false
	}
	return sp.Sibling(ch)
}
