// Package xim drives an emulated controller that takes its state as one
// packed 28-byte buffer: it owns the ControllerState, serializes it and
// pushes it through a Transport, decoding the returned status codes.
package xim

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/Alia5/padbridge/device"
	"github.com/Alia5/padbridge/internal/log"
)

// Transport is the raw device layer.
type Transport interface {
	Connect() Status
	Disconnect()
	// SetMode switches the secondary passthrough input path.
	SetMode(mode int) Status
	// SetState transfers one packed state buffer, waiting at most timeout.
	SetState(buf []byte, timeout time.Duration) Status
}

// ConnState is the lifecycle phase of a Device.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateFaulted
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	// ErrFaulted is returned by every operation once a fatal status was seen.
	ErrFaulted = errors.New("xim: device faulted")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("xim: device closed")
	// ErrBatchActive is returned by BeginBatch while another batch is open.
	ErrBatchActive = errors.New("xim: batch already active")
	// ErrBatchDone is returned when using a committed or discarded batch.
	ErrBatchDone = errors.New("xim: batch already finished")
)

// Options configures a Device. The zero value is usable.
type Options struct {
	// Timeout bounds every state transfer. Defaults to DefaultTimeout.
	Timeout time.Duration
	Logger  *slog.Logger
	Raw     log.RawLogger
}

// Device synchronizes a ControllerState with the emulation hardware.
//
// SetButton and SetAxis transmit after every change. To move several
// controls in one transmission, open a Batch.
type Device struct {
	transport Transport
	timeout   time.Duration
	logger    *slog.Logger
	raw       log.RawLogger

	state ControllerState

	// sendMu is held across mutate, serialize and transmit so snapshots
	// reach the device in order.
	sendMu sync.Mutex
	conn   *atomic.Int32
	cause  error

	batchMu sync.Mutex
	batch   *Batch

	transmissions *atomic.Uint64
}

// New connects through t. A failed connect returns no Device.
func New(t Transport, o *Options) (*Device, error) {
	if t == nil {
		return nil, errors.New("xim: nil transport")
	}
	if o == nil {
		o = &Options{}
	}
	d := &Device{
		transport:     t,
		timeout:       o.Timeout,
		logger:        o.Logger,
		raw:           o.Raw,
		conn:          atomic.NewInt32(int32(StateConnecting)),
		transmissions: atomic.NewUint64(0),
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.raw == nil {
		d.raw = log.NewRaw(nil)
	}

	if err := t.Connect().Err("connect"); err != nil {
		d.logger.Error("connect failed", "error", err)
		return nil, err
	}
	d.conn.Store(int32(StateConnected))
	d.logger.Info("device connected", "timeout", d.timeout)
	return d, nil
}

// ConnState returns the lifecycle phase.
func (d *Device) ConnState() ConnState { return ConnState(d.conn.Load()) }

// Transmissions returns how many state buffers were sent successfully.
func (d *Device) Transmissions() uint64 { return d.transmissions.Load() }

func (d *Device) usable() error {
	switch d.ConnState() {
	case StateConnected:
		return nil
	case StateFaulted:
		return fmt.Errorf("%w: %w", ErrFaulted, d.faultCause())
	default:
		return ErrClosed
	}
}

func (d *Device) faultCause() error {
	d.batchMu.Lock()
	defer d.batchMu.Unlock()
	return d.cause
}

func (d *Device) fault(err error) {
	d.batchMu.Lock()
	d.cause = err
	d.batchMu.Unlock()
	d.conn.Store(int32(StateFaulted))
	d.logger.Error("device faulted", "error", err)
}

func (d *Device) check(op string, st Status) error {
	err := st.Err(op)
	if err == nil {
		return nil
	}
	if st.Fatal() {
		d.fault(err)
	}
	return err
}

// SetButton sets a button and transmits the new state.
func (d *Device) SetButton(b device.Button, pressed bool) error {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	if err := d.state.SetButton(b, pressed); err != nil {
		return err
	}
	return d.flushLocked()
}

// SetAxis sets an axis from a unit value and transmits the new state.
func (d *Device) SetAxis(a device.Axis, v float64) error {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	if err := d.state.SetAxis(a, v); err != nil {
		return err
	}
	return d.flushLocked()
}

// Flush transmits the current state.
func (d *Device) Flush() error {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	return d.flushLocked()
}

func (d *Device) flushLocked() error {
	buf, err := d.state.MarshalBinary()
	if err != nil {
		return err
	}
	d.raw.Log(true, buf)
	if err := d.check("flush", d.transport.SetState(buf, d.timeout)); err != nil {
		return err
	}
	d.transmissions.Inc()
	return nil
}

// SetThumbsticksEnabled toggles the passthrough of the physical controller's
// thumbsticks.
func (d *Device) SetThumbsticksEnabled(enabled bool) error {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	mode := ModeThumbsticksDisabled
	if enabled {
		mode = ModeThumbsticksEnabled
	}
	return d.check("set mode", d.transport.SetMode(mode))
}

// Button reads a button of the current state.
func (d *Device) Button(b device.Button) bool { return d.state.Button(b) }

// Axis reads the quantized value of an axis of the current state.
func (d *Device) Axis(a device.Axis) int16 { return d.state.Axis(a) }

// Report returns the validated wire buffer of the current state.
func (d *Device) Report() ([]byte, error) { return d.state.MarshalBinary() }

func (d *Device) String() string { return "xim " + d.state.String() }

// Close disconnects the transport. Closing twice is a no-op.
func (d *Device) Close() error {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()
	if d.ConnState() == StateDisconnected {
		return nil
	}
	d.transport.Disconnect()
	d.conn.Store(int32(StateDisconnected))
	d.logger.Info("device disconnected")
	return nil
}

// Batch collects mutations that are sent in a single transmission on Commit.
// Only one batch can be open per Device.
type Batch struct {
	d    *Device
	done *atomic.Bool
}

// BeginBatch opens the device's batch.
func (d *Device) BeginBatch() (*Batch, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	d.batchMu.Lock()
	defer d.batchMu.Unlock()
	if d.batch != nil {
		return nil, ErrBatchActive
	}
	b := &Batch{d: d, done: atomic.NewBool(false)}
	d.batch = b
	return b, nil
}

func (b *Batch) check() error {
	if b.done.Load() {
		return ErrBatchDone
	}
	return b.d.usable()
}

// SetButton sets a button without transmitting.
func (b *Batch) SetButton(btn device.Button, pressed bool) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.d.state.SetButton(btn, pressed)
}

// SetAxis sets an axis without transmitting.
func (b *Batch) SetAxis(a device.Axis, v float64) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.d.state.SetAxis(a, v)
}

func (b *Batch) end() error {
	if !b.done.CompareAndSwap(false, true) {
		return ErrBatchDone
	}
	b.d.batchMu.Lock()
	if b.d.batch == b {
		b.d.batch = nil
	}
	b.d.batchMu.Unlock()
	return nil
}

// Commit closes the batch and transmits the state once.
func (b *Batch) Commit() error {
	if err := b.end(); err != nil {
		return err
	}
	return b.d.Flush()
}

// Discard closes the batch without transmitting. Mutations already applied
// stay in the state and go out with the next transmission.
func (b *Batch) Discard() {
	_ = b.end()
}
