// Package input models the physical side of a mapping: channels on input
// devices, their live values and the keyboard modifier snapshot.
package input

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/atomic"
)

// Kind tells how a channel reports its value.
type Kind uint8

const (
	// KindButton channels report 0 or 1.
	KindButton Kind = iota
	// KindAxisX channels report the X component of a 2-axis control in [-1, 1].
	KindAxisX
	// KindAxisY channels report the Y component of a 2-axis control in [-1, 1].
	KindAxisY
)

func (k Kind) String() string {
	switch k {
	case KindButton:
		return "button"
	case KindAxisX:
		return "axisX"
	case KindAxisY:
		return "axisY"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsAxis reports whether k is one of the analog kinds.
func (k Kind) IsAxis() bool { return k == KindAxisX || k == KindAxisY }

// StickID identifies a 2-axis control. The X and Y channels of the same
// control carry the same StickID.
type StickID struct {
	Device string
	Stick  string
}

// Channel is the identity of one logical input.
type Channel struct {
	Device string
	Name   string
	Kind   Kind
	// Stick pairs axis channels; empty for buttons.
	Stick string
}

// StickID returns the identity of the control an axis channel belongs to.
func (c Channel) StickID() StickID { return StickID{Device: c.Device, Stick: c.Stick} }

// Ref returns the "device/name" reference used in profiles.
func (c Channel) Ref() string { return c.Device + "/" + c.Name }

func (c Channel) String() string { return c.Ref() }

// ParseRef splits a "device/name" reference.
func ParseRef(ref string) (device, name string, err error) {
	device, name, ok := strings.Cut(ref, "/")
	if !ok || device == "" || name == "" {
		return "", "", fmt.Errorf("invalid input reference %q, expected device/channel", ref)
	}
	return device, name, nil
}

// Source is a readable input channel.
type Source interface {
	Channel() Channel
	// Value returns the current normalized sample.
	Value() float64
}

// Sampled is a Source whose value is pushed by its owner, typically a device
// reader goroutine. Safe for concurrent use.
type Sampled struct {
	ch    Channel
	value *atomic.Float64
}

// NewSampled returns a Sampled source at rest.
func NewSampled(ch Channel) *Sampled {
	return &Sampled{ch: ch, value: atomic.NewFloat64(0)}
}

func (s *Sampled) Channel() Channel { return s.ch }

func (s *Sampled) Value() float64 { return s.value.Load() }

// Set stores a new sample. Button channels store 1 for any non-zero value;
// axis channels are clamped to [-1, 1].
func (s *Sampled) Set(v float64) {
	if s.ch.Kind == KindButton {
		if v != 0 {
			v = 1
		}
	} else {
		v = clampUnit(v)
	}
	s.value.Store(v)
}

// SetPressed is the button form of Set.
func (s *Sampled) SetPressed(pressed bool) {
	if pressed {
		s.Set(1)
		return
	}
	s.Set(0)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
