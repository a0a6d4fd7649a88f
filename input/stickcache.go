package input

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// StickSample is the last sampled position of a 2-axis control.
type StickSample struct {
	X, Y float64
}

// StickCache keeps the last sampled X/Y per stick so a rule bound to one axis
// can read its orthogonal sibling.
type StickCache struct {
	sticks *xsync.MapOf[StickID, StickSample]
}

// NewStickCache returns an empty cache.
func NewStickCache() *StickCache {
	return &StickCache{sticks: xsync.NewMapOf[StickID, StickSample]()}
}

// Record stores v as the current sample of an axis channel. Button channels
// are ignored.
func (c *StickCache) Record(ch Channel, v float64) {
	if !ch.Kind.IsAxis() {
		return
	}
	c.sticks.Compute(ch.StickID(), func(old StickSample, _ bool) (StickSample, bool) {
		if ch.Kind == KindAxisX {
			old.X = v
		} else {
			old.Y = v
		}
		return old, false
	})
}

// Sample samples src and records its value. It returns the sampled value.
func (c *StickCache) Sample(src Source) float64 {
	v := src.Value()
	c.Record(src.Channel(), v)
	return v
}

// Stick returns the last sample of a stick.
func (c *StickCache) Stick(id StickID) (StickSample, bool) {
	return c.sticks.Load(id)
}

// Paired returns the last sample of the axis orthogonal to ch, or 0 if the
// sibling was never sampled.
func (c *StickCache) Paired(ch Channel) float64 {
	if c == nil || !ch.Kind.IsAxis() {
		return 0
	}
	s, ok := c.sticks.Load(ch.StickID())
	if !ok {
		return 0
	}
	if ch.Kind == KindAxisX {
		return s.Y
	}
	return s.X
}
