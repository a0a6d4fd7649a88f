// Package profile loads mapping rule sets from JSON, YAML or TOML files and
// binds them to input sources.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Alia5/padbridge/deadzone"
	"github.com/Alia5/padbridge/device"
	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/trigger"
)

// Profile is a named rule set.
type Profile struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	// Thumbsticks enables passthrough of the physical controller's sticks.
	Thumbsticks bool   `json:"thumbsticks" yaml:"thumbsticks" toml:"thumbsticks"`
	Rules       []Rule `json:"rules" yaml:"rules" toml:"rules"`
}

// Rule is the file form of a trigger.Rule.
type Rule struct {
	Input       string    `json:"input" yaml:"input" toml:"input"`
	Target      string    `json:"target" yaml:"target" toml:"target"`
	Ctrl        bool      `json:"ctrl,omitempty" yaml:"ctrl,omitempty" toml:"ctrl"`
	Alt         bool      `json:"alt,omitempty" yaml:"alt,omitempty" toml:"alt"`
	Shift       bool      `json:"shift,omitempty" yaml:"shift,omitempty" toml:"shift"`
	NoModifiers bool      `json:"noModifiers,omitempty" yaml:"noModifiers,omitempty" toml:"noModifiers"`
	Invert      bool      `json:"invert,omitempty" yaml:"invert,omitempty" toml:"invert"`
	Deadzone    *Deadzone `json:"deadzone,omitempty" yaml:"deadzone,omitempty" toml:"deadzone,omitempty"`
}

type Deadzone struct {
	Type   string  `json:"type" yaml:"type" toml:"type"`
	Radius float64 `json:"radius" yaml:"radius" toml:"radius"`
}

// Resolver looks up "device/channel" references and the paired axis of a
// channel. *input.Registry is one.
type Resolver interface {
	Resolve(ref string) (input.Source, error)
	Sibling(ch input.Channel) (input.Source, bool)
}

// Binding is a profile bound to live inputs.
type Binding struct {
	Rules []trigger.Rule
	// Siblings are the paired axes of deadzoned axis rules whose own
	// channel is not a rule input. They must be sampled every tick for the
	// radial deadzone to see both components.
	Siblings []input.Source
}

// Load reads a profile, picking the format from the file extension.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a profile. format is "json", "yaml", "yml" or
// "toml", with or without a leading dot.
func Parse(data []byte, format string) (*Profile, error) {
	var p Profile
	var err error
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		err = json.Unmarshal(data, &p)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &p)
	case "toml":
		err = toml.Unmarshal(data, &p)
	default:
		return nil, fmt.Errorf("unsupported profile format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Marshal encodes p in the given format.
func Marshal(p *Profile, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		return json.MarshalIndent(p, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(p)
	case "toml":
		return toml.Marshal(p)
	default:
		return nil, fmt.Errorf("unsupported profile format %q", format)
	}
}

// Validate checks targets, deadzones and input references of every rule.
func (p *Profile) Validate() error {
	var errs error
	for i, r := range p.Rules {
		if _, err := device.ParseTarget(r.Target); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rule %d: %w", i, err))
		}
		if _, err := r.deadzone(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rule %d: %w", i, err))
		}
		if _, _, err := input.ParseRef(r.Input); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rule %d: %w", i, err))
		}
	}
	return errs
}

func (r Rule) deadzone() (*deadzone.Deadzone, error) {
	if r.Deadzone == nil {
		return nil, nil
	}
	t, err := deadzone.ParseType(r.Deadzone.Type)
	if err != nil {
		return nil, err
	}
	if r.Deadzone.Radius < 0 || r.Deadzone.Radius >= 1 {
		return nil, fmt.Errorf("deadzone radius %v out of range [0, 1)", r.Deadzone.Radius)
	}
	return &deadzone.Deadzone{Type: t, Radius: r.Deadzone.Radius}, nil
}

// Bind builds the trigger rules. A rule whose input cannot be resolved is
// kept unbound and its error is returned alongside the binding; other errors
// fail the bind.
func (p *Profile) Bind(res Resolver) (*Binding, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := &Binding{Rules: make([]trigger.Rule, 0, len(p.Rules))}
	var unresolved error
	for i, r := range p.Rules {
		target, _ := device.ParseTarget(r.Target)
		dz, _ := r.deadzone()
		tr := trigger.Rule{
			Shift:       r.Shift,
			Ctrl:        r.Ctrl,
			Alt:         r.Alt,
			NoModifiers: r.NoModifiers,
			Invert:      r.Invert,
			Deadzone:    dz,
			Target:      target,
		}
		if src, err := res.Resolve(r.Input); err != nil {
			unresolved = multierr.Append(unresolved, fmt.Errorf("rule %d: %w", i, err))
		} else {
			tr.Source = src
		}
		b.Rules = append(b.Rules, tr)
	}

	inputs := make(map[input.Channel]bool, len(b.Rules))
	for _, tr := range b.Rules {
		if tr.Bound() {
			inputs[tr.Source.Channel()] = true
		}
	}
	for _, tr := range b.Rules {
		if !tr.Bound() || tr.Deadzone == nil || !tr.Source.Channel().Kind.IsAxis() {
			continue
		}
		sib, ok := res.Sibling(tr.Source.Channel())
		if !ok || inputs[sib.Channel()] {
			continue
		}
		inputs[sib.Channel()] = true
		b.Siblings = append(b.Siblings, sib)
	}
	return b, unresolved
}
