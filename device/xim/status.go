package xim

import (
	"fmt"
	"strings"
)

// Status is an outcome code returned by the transport.
type Status int

const (
	StatusOK                    Status = 0
	StatusInvalidInputReference Status = 101
	StatusInvalidMode           Status = 102
	StatusInvalidStickValue     Status = 103
	StatusInvalidTriggerValue   Status = 104
	StatusInvalidTimeoutValue   Status = 105
	StatusInvalidBuffer         Status = 107
	StatusInvalidDeadzoneType   Status = 108
	// StatusHardwareConnection is reported both when the hardware is already
	// connected and when it is not connected. The code alone does not tell
	// which.
	StatusHardwareConnection    Status = 109
	StatusDeviceNotFound        Status = 401
	StatusConnectionFailed      Status = 402
	StatusConfigurationFailed   Status = 403
	StatusReadFailed            Status = 404
	StatusWriteFailed           Status = 405
	StatusTransferCorruption    Status = 406
	StatusNeedsCalibration      Status = 407
)

var statusNames = map[Status][]string{
	StatusOK:                    {"success"},
	StatusInvalidInputReference: {"invalid input reference"},
	StatusInvalidMode:           {"invalid mode"},
	StatusInvalidStickValue:     {"invalid stick value"},
	StatusInvalidTriggerValue:   {"invalid trigger value"},
	StatusInvalidTimeoutValue:   {"invalid timeout value"},
	StatusInvalidBuffer:         {"invalid buffer"},
	StatusInvalidDeadzoneType:   {"invalid deadzone type"},
	StatusHardwareConnection:    {"hardware already connected", "hardware not connected"},
	StatusDeviceNotFound:        {"device not found"},
	StatusConnectionFailed:      {"device connection failed"},
	StatusConfigurationFailed:   {"configuration failed"},
	StatusReadFailed:            {"read failed"},
	StatusWriteFailed:           {"write failed"},
	StatusTransferCorruption:    {"transfer corruption"},
	StatusNeedsCalibration:      {"needs calibration"},
}

// Known reports whether s is in the status table.
func (s Status) Known() bool {
	_, ok := statusNames[s]
	return ok
}

// Names returns every meaning the table assigns to s.
func (s Status) Names() []string {
	names := statusNames[s]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Ambiguous reports whether s has more than one meaning.
func (s Status) Ambiguous() bool { return len(statusNames[s]) > 1 }

func (s Status) String() string {
	names, ok := statusNames[s]
	if !ok {
		return fmt.Sprintf("unknown status %d", int(s))
	}
	return strings.Join(names, " or ")
}

// Fatal reports whether s leaves the device unusable: transport failures and
// hardware connection mismatches. Parameter errors are not fatal.
func (s Status) Fatal() bool {
	if s == StatusHardwareConnection {
		return true
	}
	return s >= 400 && s < 500
}

// Err returns nil for StatusOK and a *StatusError otherwise.
func (s Status) Err(op string) error {
	if s == StatusOK {
		return nil
	}
	return &StatusError{Op: op, Status: s}
}

// StatusError is a non-zero status returned by the transport for an
// operation.
type StatusError struct {
	Op     string
	Status Status
}

func (e *StatusError) Error() string {
	if !e.Status.Known() {
		return fmt.Sprintf("xim: %s: unknown status %d", e.Op, int(e.Status))
	}
	if e.Status.Ambiguous() {
		return fmt.Sprintf("xim: %s: ambiguous status %d (%s)", e.Op, int(e.Status), e.Status)
	}
	return fmt.Sprintf("xim: %s: %s (%d)", e.Op, e.Status, int(e.Status))
}

// Unknown reports whether the status is missing from the table.
func (e *StatusError) Unknown() bool { return !e.Status.Known() }

// ProtocolError reports state that cannot be put on the wire. It points at a
// bug in the producer, not at the transport.
type ProtocolError struct {
	Op     string
	Detail string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("xim: %s: protocol error: %s", e.Op, e.Detail)
}
