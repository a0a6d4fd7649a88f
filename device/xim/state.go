package xim

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/Alia5/padbridge/device"
)

// ControllerState is the packed button/axis state of the emulated
// controller.
//
// Buttons are stored one byte each, two per 16-bit word (even slot in the
// low byte, odd slot in the high byte). Axes are signed 16-bit values in
// [-32767, 32767]. All access goes through one mutex.
//
// Wire layout (28 bytes, little-endian):
//
//	 0-15: 8 button words, slots 0-14, slot 15 reserved (zero)
//	16-27: 6 axes: right X, right Y, left X, left Y, right trigger, left trigger
type ControllerState struct {
	mu      sync.Mutex
	buttons [ButtonWords]uint16
	axes    [AxisCount]int16
}

var _ device.ReportBuilder = (*ControllerState)(nil)

// Quantize converts a unit axis value to its wire value, rounding half away
// from zero. The caller guarantees v is finite and within [-1, 1].
func Quantize(v float64) int16 {
	return int16(math.Round(AxisScale * v))
}

// SetButton sets a button. The other button sharing its word is preserved.
func (s *ControllerState) SetButton(b device.Button, pressed bool) error {
	slot, ok := ButtonSlot(b)
	if !ok {
		return &ProtocolError{Op: "set button", Detail: fmt.Sprintf("unknown button %d", uint8(b))}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSlot(slot, pressed)
	return nil
}

// SetButtonSlot sets a button by wire slot.
func (s *ControllerState) SetButtonSlot(slot int, pressed bool) error {
	if slot < 0 || slot >= ButtonCount {
		return &ProtocolError{Op: "set button", Detail: fmt.Sprintf("slot %d out of range", slot)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSlot(slot, pressed)
	return nil
}

func (s *ControllerState) setSlot(slot int, pressed bool) {
	var v uint16
	if pressed {
		v = 1
	}
	word := s.buttons[slot/2]
	if slot%2 == 0 {
		word = word&0xff00 | v
	} else {
		word = word&0x00ff | v<<8
	}
	s.buttons[slot/2] = word
}

// SetAxis stores v, which must be finite and within [-1, 1]. Out of range
// values are rejected, not clamped: clamping is the producer's job.
func (s *ControllerState) SetAxis(a device.Axis, v float64) error {
	slot, ok := AxisSlot(a)
	if !ok {
		return &ProtocolError{Op: "set axis", Detail: fmt.Sprintf("unknown axis %d", uint8(a))}
	}
	return s.SetAxisSlot(slot, v)
}

// SetAxisSlot stores v by wire slot.
func (s *ControllerState) SetAxisSlot(slot int, v float64) error {
	if slot < 0 || slot >= AxisCount {
		return &ProtocolError{Op: "set axis", Detail: fmt.Sprintf("slot %d out of range", slot)}
	}
	if math.IsNaN(v) || v < -1 || v > 1 {
		return &ProtocolError{Op: "set axis", Detail: fmt.Sprintf("value %v outside [-1, 1]", v)}
	}
	q := Quantize(v)
	s.mu.Lock()
	s.axes[slot] = q
	s.mu.Unlock()
	return nil
}

// Button reads a button.
func (s *ControllerState) Button(b device.Button) bool {
	slot, ok := ButtonSlot(b)
	if !ok {
		return false
	}
	return s.ButtonSlot(slot)
}

// ButtonSlot reads a button by wire slot.
func (s *ControllerState) ButtonSlot(slot int) bool {
	if slot < 0 || slot >= ButtonCount {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	word := s.buttons[slot/2]
	if slot%2 == 0 {
		return word&0x00ff != 0
	}
	return word&0xff00 != 0
}

// Axis reads the quantized value of an axis.
func (s *ControllerState) Axis(a device.Axis) int16 {
	slot, ok := AxisSlot(a)
	if !ok {
		return 0
	}
	return s.AxisSlot(slot)
}

// AxisSlot reads an axis by wire slot.
func (s *ControllerState) AxisSlot(slot int) int16 {
	if slot < 0 || slot >= AxisCount {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.axes[slot]
}

// Reset releases every button and centers every axis.
func (s *ControllerState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttons = [ButtonWords]uint16{}
	s.axes = [AxisCount]int16{}
}

// BuildReport encodes the state without validating it.
func (s *ControllerState) BuildReport() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encode()
}

func (s *ControllerState) encode() []byte {
	b := make([]byte, StateSize)
	for i, w := range s.buttons {
		binary.LittleEndian.PutUint16(b[i*2:], w)
	}
	for i, a := range s.axes {
		binary.LittleEndian.PutUint16(b[AxisOffset+i*2:], uint16(a))
	}
	return b
}

// MarshalBinary validates and encodes the state into its 28-byte layout.
func (s *ControllerState) MarshalBinary() ([]byte, error) {
	s.mu.Lock()
	b := s.encode()
	s.mu.Unlock()
	if err := Validate(b); err != nil {
		return nil, err
	}
	return b, nil
}

// UnmarshalBinary replaces the state with a validated 28-byte buffer.
func (s *ControllerState) UnmarshalBinary(data []byte) error {
	if err := Validate(data); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.buttons {
		s.buttons[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	for i := range s.axes {
		s.axes[i] = int16(binary.LittleEndian.Uint16(data[AxisOffset+i*2:]))
	}
	return nil
}

// Validate checks a wire buffer: exact size, button bytes 0 or 1, the
// reserved slot zero and no axis at -32768.
func Validate(b []byte) error {
	if len(b) != StateSize {
		return &ProtocolError{Op: "validate", Detail: fmt.Sprintf("buffer is %d bytes, want %d", len(b), StateSize)}
	}
	for i := 0; i < AxisOffset; i++ {
		if i == ButtonCount {
			if b[i] != 0 {
				return &ProtocolError{Op: "validate", Detail: "reserved button slot is set"}
			}
			continue
		}
		if b[i] > 1 {
			return &ProtocolError{Op: "validate", Detail: fmt.Sprintf("button slot %d holds %d", i, b[i])}
		}
	}
	for i := 0; i < AxisCount; i++ {
		v := int16(binary.LittleEndian.Uint16(b[AxisOffset+i*2:]))
		if v < -AxisScale {
			return &ProtocolError{Op: "validate", Detail: fmt.Sprintf("axis slot %d holds %d", i, v)}
		}
	}
	return nil
}

func (s *ControllerState) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pressed []string
	for b := device.Button(0); int(b) < device.NumButtons; b++ {
		slot := buttonSlots[b]
		word := s.buttons[slot/2]
		if (slot%2 == 0 && word&0x00ff != 0) || (slot%2 == 1 && word&0xff00 != 0) {
			pressed = append(pressed, b.String())
		}
	}
	var axes []string
	for a := device.Axis(0); int(a) < device.NumAxes; a++ {
		axes = append(axes, fmt.Sprintf("%s=%d", a, s.axes[axisSlots[a]]))
	}
	return fmt.Sprintf("buttons=[%s] %s", strings.Join(pressed, ","), strings.Join(axes, " "))
}
