package bridge

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/Alia5/padbridge/device/xim"
	"github.com/Alia5/padbridge/internal/auth"
)

// ClientConfig controls dialing and reply timeouts.
type ClientConfig struct {
	DialTimeout time.Duration
	// IOTimeout bounds requests that carry no transfer timeout of their own.
	IOTimeout time.Duration
	// ReplyGrace is added to a state transfer's timeout while waiting for
	// its status.
	ReplyGrace time.Duration
	Password   string
}

func defaultClientConfig() ClientConfig {
	return ClientConfig{
		DialTimeout: 3 * time.Second,
		IOTimeout:   5 * time.Second,
		ReplyGrace:  100 * time.Millisecond,
	}
}

// Client is an xim.Transport talking to a bridge Server.
//
// Network failures are reported as statuses: a failed dial is
// StatusDeviceNotFound, a rejected password StatusConnectionFailed, a failed
// write StatusWriteFailed and a failed or late reply StatusReadFailed. Any
// of these drops the connection.
type Client struct {
	addr   string
	cfg    ClientConfig
	logger *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

var _ xim.Transport = (*Client)(nil)

// NewClient creates a client for addr. Zero config fields take defaults.
func NewClient(addr string, cfg *ClientConfig, logger *slog.Logger) *Client {
	c := defaultClientConfig()
	if cfg != nil {
		if cfg.DialTimeout > 0 {
			c.DialTimeout = cfg.DialTimeout
		}
		if cfg.IOTimeout > 0 {
			c.IOTimeout = cfg.IOTimeout
		}
		if cfg.ReplyGrace > 0 {
			c.ReplyGrace = cfg.ReplyGrace
		}
		c.Password = cfg.Password
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{addr: addr, cfg: c, logger: logger.With("bridge", addr)}
}

func (c *Client) dial() (net.Conn, xim.Status) {
	conn, err := net.DialTimeout("tcp", c.addr, c.cfg.DialTimeout)
	if err != nil {
		c.logger.Error("dial bridge", "error", err)
		return nil, xim.StatusDeviceNotFound
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			c.logger.Warn("failed to set TCP_NODELAY", "error", err)
		}
	}
	if c.cfg.Password == "" {
		return conn, xim.StatusOK
	}

	key, err := auth.DeriveKey(c.cfg.Password)
	if err != nil {
		conn.Close()
		c.logger.Error("derive key", "error", err)
		return nil, xim.StatusConnectionFailed
	}
	_ = conn.SetDeadline(time.Now().Add(c.cfg.IOTimeout))
	clientNonce, serverNonce, err := auth.ClientHandshake(bufio.NewReader(conn), conn, key)
	if err != nil {
		conn.Close()
		if errors.Is(err, auth.ErrUnauthorized) {
			c.logger.Error("bridge rejected password")
		} else {
			c.logger.Error("bridge handshake", "error", err)
		}
		return nil, xim.StatusConnectionFailed
	}
	_ = conn.SetDeadline(time.Time{})

	wrapped, err := auth.WrapConn(conn, auth.DeriveSessionKey(key, serverNonce, clientNonce))
	if err != nil {
		conn.Close()
		c.logger.Error("wrap session", "error", err)
		return nil, xim.StatusConnectionFailed
	}
	return wrapped, xim.StatusOK
}

func (c *Client) closeLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) roundTripLocked(req request, wait time.Duration) xim.Status {
	if c.conn == nil {
		return xim.StatusHardwareConnection
	}
	_ = c.conn.SetDeadline(time.Now().Add(wait))
	if _, err := c.conn.Write(req.encode()); err != nil {
		c.logger.Error("bridge write", "op", req.op, "error", err)
		c.closeLocked()
		return xim.StatusWriteFailed
	}
	st, err := readStatus(c.conn)
	if err != nil {
		c.logger.Error("bridge read", "op", req.op, "error", err)
		c.closeLocked()
		return xim.StatusReadFailed
	}
	return st
}

// Connect dials the server and claims its device.
func (c *Client) Connect() xim.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return xim.StatusHardwareConnection
	}
	conn, st := c.dial()
	if st != xim.StatusOK {
		return st
	}
	c.conn = conn

	st = c.roundTripLocked(request{op: OpConnect}, c.cfg.IOTimeout)
	if st != xim.StatusOK {
		c.closeLocked()
	}
	return st
}

// Disconnect releases the device and closes the connection.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.IOTimeout))
	if _, err := c.conn.Write(request{op: OpDisconnect}.encode()); err != nil {
		c.logger.Debug("bridge disconnect", "error", err)
	}
	c.closeLocked()
}

func (c *Client) SetMode(mode int) xim.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roundTripLocked(request{op: OpSetMode, mode: int32(mode)}, c.cfg.IOTimeout)
}

func (c *Client) SetState(buf []byte, timeout time.Duration) xim.Status {
	if len(buf) != xim.StateSize {
		return xim.StatusInvalidBuffer
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	wait := c.cfg.IOTimeout
	if timeout > 0 {
		wait = timeout + c.cfg.ReplyGrace
	}
	return c.roundTripLocked(request{op: OpSetState, timeout: timeout, state: buf}, wait)
}
