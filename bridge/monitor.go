package bridge

import (
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/Alia5/padbridge/device/xim"
)

// Monitor is a backend without hardware. It validates and logs what a
// client sends and keeps the last state.
type Monitor struct {
	logger *slog.Logger

	mu        sync.Mutex
	connected bool
	mode      int
	state     xim.ControllerState

	frames *atomic.Uint64
}

var _ xim.Transport = (*Monitor)(nil)

func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{logger: logger, frames: atomic.NewUint64(0)}
}

func (m *Monitor) Connect() xim.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		return xim.StatusHardwareConnection
	}
	m.connected = true
	m.state.Reset()
	m.logger.Info("monitor connected")
	return xim.StatusOK
}

func (m *Monitor) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		m.connected = false
		m.logger.Info("monitor disconnected", "frames", m.frames.Load())
	}
}

func (m *Monitor) SetMode(mode int) xim.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return xim.StatusHardwareConnection
	}
	if mode != xim.ModeThumbsticksDisabled && mode != xim.ModeThumbsticksEnabled {
		return xim.StatusInvalidMode
	}
	m.mode = mode
	m.logger.Info("monitor mode", "thumbsticks", mode == xim.ModeThumbsticksEnabled)
	return xim.StatusOK
}

func (m *Monitor) SetState(buf []byte, timeout time.Duration) xim.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return xim.StatusHardwareConnection
	}
	if timeout <= 0 {
		return xim.StatusInvalidTimeoutValue
	}
	if err := m.state.UnmarshalBinary(buf); err != nil {
		m.logger.Warn("monitor rejected state", "error", err)
		return xim.StatusInvalidBuffer
	}
	m.frames.Inc()
	m.logger.Debug("monitor state", "state", m.state.String())
	return xim.StatusOK
}

// Frames returns how many states were accepted.
func (m *Monitor) Frames() uint64 { return m.frames.Load() }

// Mode returns the last accepted mode.
func (m *Monitor) Mode() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// State returns a copy of the last accepted buffer.
func (m *Monitor) State() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.BuildReport()
}
