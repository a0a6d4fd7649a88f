package bridge_test

import (
	"bytes"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/Alia5/padbridge/bridge"
	"github.com/Alia5/padbridge/device"
	"github.com/Alia5/padbridge/device/xim"
	"github.com/Alia5/padbridge/internal/log"
	padTesting "github.com/Alia5/padbridge/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startServer(t *testing.T, backend xim.Transport, password string) (*bridge.Server, *syncBuffer) {
	t.Helper()
	raw := &syncBuffer{}
	srv, err := bridge.NewServer(backend, bridge.ServerConfig{
		Addr:              "127.0.0.1:0",
		Password:          password,
		ConnectionTimeout: 5 * time.Second,
	}, log.Discard(), log.NewRaw(raw))
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Close)
	return srv, &raw
}

func newClient(srv *bridge.Server, password string) *bridge.Client {
	return bridge.NewClient(srv.Addr().String(), &bridge.ClientConfig{
		Password:   password,
		IOTimeout:  2 * time.Second,
		ReplyGrace: 50 * time.Millisecond,
	}, log.Discard())
}

func TestRoundTrip(t *testing.T) {
	type testCase struct {
		name     string
		password string
	}
	cases := []testCase{
		{name: "plain"},
		{name: "authenticated", password: "s3cret"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ft := padTesting.NewFakeTransport(t)
			srv, raw := startServer(t, ft, tc.password)

			d, err := xim.New(newClient(srv, tc.password), &xim.Options{Logger: log.Discard()})
			require.NoError(t, err)

			require.NoError(t, d.SetAxis(device.AxisLeftStickX, 0.5))
			require.NoError(t, d.SetButton(device.ButtonGuide, true))
			require.NoError(t, d.SetThumbsticksEnabled(true))

			want, err := d.Report()
			require.NoError(t, err)
			sent := ft.Sent()
			require.Len(t, sent, 2)
			assert.Equal(t, want, sent[1].Buf)
			assert.Equal(t, xim.DefaultTimeout, sent[1].Timeout)
			assert.Equal(t, []int{xim.ModeThumbsticksEnabled}, ft.Modes())
			assert.Contains(t, raw.String(), "RX 28 bytes")

			require.NoError(t, d.Close())
			assert.Eventually(t, func() bool { return ft.Disconnects() == 1 }, time.Second, 10*time.Millisecond)
		})
	}
}

func TestWrongPassword(t *testing.T) {
	ft := padTesting.NewFakeTransport(t)
	srv, _ := startServer(t, ft, "right")

	_, err := xim.New(newClient(srv, "wrong"), &xim.Options{Logger: log.Discard()})
	var serr *xim.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, xim.StatusConnectionFailed, serr.Status)
	assert.Equal(t, 0, ft.Connects())
}

func TestDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := bridge.NewClient(addr, &bridge.ClientConfig{DialTimeout: 200 * time.Millisecond}, log.Discard())
	assert.Equal(t, xim.StatusDeviceNotFound, c.Connect())
}

func TestSingleOwner(t *testing.T) {
	ft := padTesting.NewFakeTransport(t)
	srv, _ := startServer(t, ft, "")

	first := newClient(srv, "")
	require.Equal(t, xim.StatusOK, first.Connect())
	assert.Equal(t, xim.StatusHardwareConnection, first.Connect(), "already connected")

	second := newClient(srv, "")
	assert.Equal(t, xim.StatusHardwareConnection, second.Connect())
	assert.Equal(t, 1, ft.Connects())

	first.Disconnect()
	assert.Eventually(t, func() bool { return second.Connect() == xim.StatusOK }, time.Second, 10*time.Millisecond)
	second.Disconnect()
}

func TestNotConnected(t *testing.T) {
	c := bridge.NewClient("127.0.0.1:1", nil, log.Discard())
	assert.Equal(t, xim.StatusHardwareConnection, c.SetState(make([]byte, xim.StateSize), time.Second))
	assert.Equal(t, xim.StatusHardwareConnection, c.SetMode(xim.ModeThumbsticksEnabled))
	assert.Equal(t, xim.StatusInvalidBuffer, c.SetState(make([]byte, 3), time.Second))
	c.Disconnect()
}

func TestInvalidBufferRejectedByServer(t *testing.T) {
	ft := padTesting.NewFakeTransport(t)
	srv, _ := startServer(t, ft, "")

	c := newClient(srv, "")
	require.Equal(t, xim.StatusOK, c.Connect())
	defer c.Disconnect()

	buf := make([]byte, xim.StateSize)
	buf[2] = 7
	assert.Equal(t, xim.StatusInvalidBuffer, c.SetState(buf, time.Second))
	assert.Empty(t, ft.Sent())
}

func TestBackendStatusForwarded(t *testing.T) {
	ft := padTesting.NewFakeTransport(t)
	ft.SetStateFunc = func([]byte, time.Duration) xim.Status { return xim.StatusNeedsCalibration }
	srv, _ := startServer(t, ft, "")

	c := newClient(srv, "")
	require.Equal(t, xim.StatusOK, c.Connect())
	defer c.Disconnect()
	assert.Equal(t, xim.StatusNeedsCalibration, c.SetState(make([]byte, xim.StateSize), time.Second))
}

func TestReplyTimeout(t *testing.T) {
	ft := padTesting.NewFakeTransport(t)
	ft.SetStateFunc = func([]byte, time.Duration) xim.Status {
		time.Sleep(300 * time.Millisecond)
		return xim.StatusOK
	}
	srv, _ := startServer(t, ft, "")

	c := newClient(srv, "")
	require.Equal(t, xim.StatusOK, c.Connect())
	assert.Equal(t, xim.StatusReadFailed, c.SetState(make([]byte, xim.StateSize), 20*time.Millisecond))
	assert.Equal(t, xim.StatusHardwareConnection, c.SetState(make([]byte, xim.StateSize), time.Second), "connection dropped")
}

func TestMonitor(t *testing.T) {
	m := bridge.NewMonitor(log.Discard())
	buf := make([]byte, xim.StateSize)

	assert.Equal(t, xim.StatusHardwareConnection, m.SetState(buf, time.Second))
	require.Equal(t, xim.StatusOK, m.Connect())
	assert.Equal(t, xim.StatusHardwareConnection, m.Connect())

	assert.Equal(t, xim.StatusInvalidMode, m.SetMode(5))
	assert.Equal(t, xim.StatusOK, m.SetMode(xim.ModeThumbsticksEnabled))
	assert.Equal(t, xim.ModeThumbsticksEnabled, m.Mode())

	assert.Equal(t, xim.StatusInvalidTimeoutValue, m.SetState(buf, 0))
	assert.Equal(t, xim.StatusInvalidBuffer, m.SetState(buf[:10], time.Second))

	buf[4] = 1
	assert.Equal(t, xim.StatusOK, m.SetState(buf, time.Second))
	assert.Equal(t, buf, m.State())
	assert.Equal(t, uint64(1), m.Frames())

	m.Disconnect()
	assert.Equal(t, xim.StatusOK, m.Connect())
	assert.Equal(t, make([]byte, xim.StateSize), m.State())
}
