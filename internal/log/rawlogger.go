package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// RawLogger dumps wire buffers.
type RawLogger interface {
	// Log writes one buffer. tx is true for host->device traffic.
	Log(tx bool, data []byte)
}

type rawLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewRaw creates a RawLogger writing to w. A nil writer yields a no-op logger.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// Log emits a single line with timestamp, direction and hex dump.
func (r *rawLogger) Log(tx bool, data []byte) {
	if len(data) == 0 || r.w == nil {
		return
	}

	dir := "RX"
	if tx {
		dir = "TX"
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s %d bytes: %s\n",
		time.Now().Format("2006/01/02 15:04:05.000"),
		dir,
		len(data),
		hexbuf.String())

	r.mu.Lock()
	_, _ = r.w.Write([]byte(line))
	r.mu.Unlock()
}

// SetupRaw picks the raw logger for cfg: the raw file when set, stdout at
// trace level, otherwise a no-op. Opened files are appended to closers.
func SetupRaw(cfg Config, closers []io.Closer) (RawLogger, []io.Closer, error) {
	switch {
	case cfg.RawFile != "":
		f, err := os.OpenFile(cfg.RawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return NewRaw(nil), closers, err
		}
		return NewRaw(f), append(closers, f), nil
	case cfg.Level == "trace":
		return NewRaw(os.Stdout), closers, nil
	default:
		return NewRaw(nil), closers, nil
	}
}
