// Package deadzone shapes raw analog stick input. Samples inside the dead
// region read as zero and the remaining travel is rescaled so the output still
// spans the full range.
package deadzone

import (
	"fmt"
	"math"
	"strings"
)

// Type selects the shape of the dead region.
type Type uint8

const (
	// Radial treats the stick as a vector: a circle of Radius around the
	// center is dead.
	Radial Type = iota
	// Axial applies the dead band to each component independently (a cross
	// shaped dead region).
	Axial
)

func (t Type) String() string {
	switch t {
	case Radial:
		return "radial"
	case Axial:
		return "axial"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// ParseType resolves a type name.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "radial", "circle", "":
		return Radial, nil
	case "axial", "cross":
		return Axial, nil
	default:
		return 0, fmt.Errorf("unknown deadzone type %q", s)
	}
}

// Deadzone is a shaping strategy with its threshold. Radius is expected in
// [0, 1); values outside are clamped into that range when shaping.
type Deadzone struct {
	Type   Type
	Radius float64
}

func (d Deadzone) String() string { return fmt.Sprintf("%s %.2f", d.Type, d.Radius) }

// Apply shapes a stick position.
func (d Deadzone) Apply(x, y float64) (float64, float64) {
	if d.Type == Axial {
		return Band(x, d.Radius), Band(y, d.Radius)
	}
	return Shape(x, y, d.Radius)
}

// Component shapes the position (v, paired) and returns only the requested
// component. isX tells whether v is the X component.
func (d Deadzone) Component(v, paired float64, isX bool) float64 {
	if isX {
		x, _ := d.Apply(v, paired)
		return x
	}
	_, y := d.Apply(paired, v)
	return y
}

// Shape applies a radial deadzone to (x, y). Positions whose magnitude is at
// most radius map to (0, 0); beyond it the magnitude is rescaled from
// [radius, 1] onto [0, 1] keeping the direction.
func Shape(x, y, radius float64) (float64, float64) {
	radius = normRadius(radius)
	m := math.Hypot(x, y)
	if m <= radius || radius >= 1 {
		return 0, 0
	}
	scale := clamp01((m - radius) / (1 - radius))
	return x / m * scale, y / m * scale
}

// Band applies a one-dimensional dead band to v.
func Band(v, radius float64) float64 {
	radius = normRadius(radius)
	a := math.Abs(v)
	if a <= radius || radius >= 1 {
		return 0
	}
	return math.Copysign(clamp01((a-radius)/(1-radius)), v)
}

func normRadius(r float64) float64 {
	if r < 0 || math.IsNaN(r) {
		return 0
	}
	return r
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
