// Package bridge carries the xim transport primitives over TCP so a device
// attached to one host can be driven from another.
//
// Every request is one opcode byte followed by a fixed payload. All requests
// except disconnect are answered with a little-endian int32 status.
package bridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Alia5/padbridge/device/xim"
)

const (
	OpConnect    byte = 0x01
	OpDisconnect byte = 0x02
	OpSetMode    byte = 0x03
	OpSetState   byte = 0x04
)

// DefaultAddr is the listen address of the bridge server.
const DefaultAddr = ":3243"

const statusSize = 4

var errUnknownOp = errors.New("bridge: unknown opcode")

type request struct {
	op      byte
	mode    int32
	timeout time.Duration
	state   []byte
}

func (r request) encode() []byte {
	switch r.op {
	case OpSetMode:
		b := make([]byte, 5)
		b[0] = r.op
		binary.LittleEndian.PutUint32(b[1:], uint32(r.mode))
		return b
	case OpSetState:
		b := make([]byte, 5, 5+len(r.state))
		b[0] = r.op
		binary.LittleEndian.PutUint32(b[1:], uint32(r.timeout/time.Millisecond))
		return append(b, r.state...)
	default:
		return []byte{r.op}
	}
}

func readRequest(rd io.Reader) (request, error) {
	var op [1]byte
	if _, err := io.ReadFull(rd, op[:]); err != nil {
		return request{}, err
	}
	req := request{op: op[0]}

	switch req.op {
	case OpConnect, OpDisconnect:
	case OpSetMode:
		var b [4]byte
		if _, err := io.ReadFull(rd, b[:]); err != nil {
			return req, fmt.Errorf("read mode: %w", err)
		}
		req.mode = int32(binary.LittleEndian.Uint32(b[:]))
	case OpSetState:
		b := make([]byte, 4+xim.StateSize)
		if _, err := io.ReadFull(rd, b); err != nil {
			return req, fmt.Errorf("read state: %w", err)
		}
		req.timeout = time.Duration(binary.LittleEndian.Uint32(b)) * time.Millisecond
		req.state = b[4:]
	default:
		return req, fmt.Errorf("%w 0x%02x", errUnknownOp, req.op)
	}
	return req, nil
}

func writeStatus(w io.Writer, st xim.Status) error {
	var b [statusSize]byte
	binary.LittleEndian.PutUint32(b[:], uint32(int32(st)))
	_, err := w.Write(b[:])
	return err
}

func readStatus(r io.Reader) (xim.Status, error) {
	var b [statusSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return xim.Status(int32(binary.LittleEndian.Uint32(b[:]))), nil
}
