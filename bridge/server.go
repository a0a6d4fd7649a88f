package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/Alia5/padbridge/device/xim"
	"github.com/Alia5/padbridge/internal/auth"
	"github.com/Alia5/padbridge/internal/log"
)

// ServerConfig represents the bridge subcommand configuration.
type ServerConfig struct {
	Addr              string        `help:"Bridge listen address" default:":3243" env:"PADBRIDGE_BRIDGE_ADDR"`
	Password          string        `help:"Require clients to authenticate with this password" env:"PADBRIDGE_BRIDGE_PASSWORD"`
	ConnectionTimeout time.Duration `help:"Drop clients idle for longer than this" default:"30s" env:"PADBRIDGE_BRIDGE_CONNECTION_TIMEOUT"`
}

// Server exposes a local xim.Transport to bridge clients. One client owns
// the backend at a time; requests from anyone else get
// StatusHardwareConnection.
type Server struct {
	backend xim.Transport
	config  ServerConfig
	logger  *slog.Logger
	raw     log.RawLogger
	key     []byte

	ln net.Listener

	mu    sync.Mutex
	owner net.Conn
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewServer creates a server for backend. The password key is derived here.
func NewServer(backend xim.Transport, config ServerConfig, logger *slog.Logger, raw log.RawLogger) (*Server, error) {
	if backend == nil {
		return nil, errors.New("bridge: nil backend")
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if logger == nil {
		logger = slog.Default()
	}
	if raw == nil {
		raw = log.NewRaw(nil)
	}
	s := &Server{
		backend: backend,
		config:  config,
		logger:  logger,
		raw:     raw,
		conns:   map[net.Conn]struct{}{},
	}
	if config.Password != "" {
		key, err := auth.DeriveKey(config.Password)
		if err != nil {
			return nil, fmt.Errorf("derive key: %w", err)
		}
		s.key = key
	}
	return s, nil
}

// Config returns the server configuration.
func (s *Server) Config() ServerConfig { return s.config }

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("bridge listening", "addr", ln.Addr().String(), "auth", s.key != nil)
	s.wg.Add(1)
	go s.serve()
	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ListenAndServe runs the server until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Close()
	return nil
}

// Close stops accepting, drops every client and waits for their handlers.
func (s *Server) Close() {
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		c, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.logger.Info("bridge server stopped")
				return
			}
			s.logger.Error("bridge accept error", "error", err)
			return
		}
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(c)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	connLogger := s.logger.With("remote", conn.RemoteAddr().String())
	defer func() {
		s.release(conn, connLogger)
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	var rw io.ReadWriter = conn
	r := bufio.NewReader(conn)
	if s.key != nil {
		s.extendDeadline(conn)
		clientNonce, serverNonce, err := auth.ServerHandshake(r, conn, s.key)
		if err != nil {
			connLogger.Warn("bridge handshake failed", "error", err)
			return
		}
		wrapped, err := auth.WrapConn(conn, auth.DeriveSessionKey(s.key, serverNonce, clientNonce))
		if err != nil {
			connLogger.Error("wrap session", "error", err)
			return
		}
		rw = wrapped
		r = bufio.NewReader(wrapped)
	}
	connLogger.Info("bridge client connected")

	for {
		s.extendDeadline(conn)
		req, err := readRequest(r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				connLogger.Info("bridge client disconnected")
			} else {
				connLogger.Error("bridge read request", "error", err)
			}
			return
		}
		if req.op == OpDisconnect {
			s.release(conn, connLogger)
			continue
		}
		st := s.dispatch(conn, req, connLogger)
		if err := writeStatus(rw, st); err != nil {
			connLogger.Error("bridge write status", "error", err)
			return
		}
	}
}

func (s *Server) extendDeadline(conn net.Conn) {
	if s.config.ConnectionTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.config.ConnectionTimeout))
	} else {
		_ = conn.SetDeadline(time.Time{})
	}
}

func (s *Server) owns(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner == conn
}

func (s *Server) dispatch(conn net.Conn, req request, logger *slog.Logger) xim.Status {
	switch req.op {
	case OpConnect:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.owner != nil {
			logger.Warn("bridge device already owned")
			return xim.StatusHardwareConnection
		}
		st := s.backend.Connect()
		if st == xim.StatusOK {
			s.owner = conn
			logger.Info("bridge device claimed")
		}
		return st
	case OpSetMode:
		if !s.owns(conn) {
			return xim.StatusHardwareConnection
		}
		return s.backend.SetMode(int(req.mode))
	case OpSetState:
		if !s.owns(conn) {
			return xim.StatusHardwareConnection
		}
		s.raw.Log(false, req.state)
		if err := xim.Validate(req.state); err != nil {
			logger.Warn("bridge rejected state", "error", err)
			return xim.StatusInvalidBuffer
		}
		return s.backend.SetState(req.state, req.timeout)
	}
	return xim.StatusInvalidBuffer
}

func (s *Server) release(conn net.Conn, logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != conn {
		return
	}
	s.backend.Disconnect()
	s.owner = nil
	logger.Info("bridge device released")
}
