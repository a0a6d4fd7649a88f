// Package testing holds fakes shared by the package tests.
package testing

import (
	"sync"
	"testing"
	"time"

	"github.com/Alia5/padbridge/device/xim"
)

// Transmission is one SetState call seen by a FakeTransport.
type Transmission struct {
	Buf     []byte
	Timeout time.Duration
}

// FakeTransport is an in-memory xim.Transport that records every call.
// Statuses are taken from the configured funcs, StatusOK when unset.
type FakeTransport struct {
	mu sync.Mutex

	ConnectFunc  func() xim.Status
	SetModeFunc  func(mode int) xim.Status
	SetStateFunc func(buf []byte, timeout time.Duration) xim.Status

	connects    int
	disconnects int
	modes       []int
	sent        []Transmission
}

var _ xim.Transport = (*FakeTransport)(nil)

// NewFakeTransport returns a transport that accepts everything.
func NewFakeTransport(t *testing.T) *FakeTransport {
	t.Helper()
	return &FakeTransport{}
}

func (f *FakeTransport) Connect() xim.Status {
	f.mu.Lock()
	f.connects++
	fn := f.ConnectFunc
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return xim.StatusOK
}

func (f *FakeTransport) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

func (f *FakeTransport) SetMode(mode int) xim.Status {
	f.mu.Lock()
	f.modes = append(f.modes, mode)
	fn := f.SetModeFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(mode)
	}
	return xim.StatusOK
}

func (f *FakeTransport) SetState(buf []byte, timeout time.Duration) xim.Status {
	cp := append([]byte(nil), buf...)
	f.mu.Lock()
	f.sent = append(f.sent, Transmission{Buf: cp, Timeout: timeout})
	fn := f.SetStateFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(cp, timeout)
	}
	return xim.StatusOK
}

// Sent returns a copy of every recorded transmission.
func (f *FakeTransport) Sent() []Transmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Transmission(nil), f.sent...)
}

// Last returns the last transmitted buffer, or nil.
func (f *FakeTransport) Last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1].Buf
}

// Modes returns every mode passed to SetMode.
func (f *FakeTransport) Modes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.modes...)
}

// Connects returns the number of Connect calls.
func (f *FakeTransport) Connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

// Disconnects returns the number of Disconnect calls.
func (f *FakeTransport) Disconnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}
