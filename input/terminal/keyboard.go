// Package terminal turns key presses on a raw-mode terminal into button
// sources and a modifier snapshot.
//
// Terminals report presses but never releases, so a key (and any modifier
// that came with it) reads as held until HoldTime has passed since its last
// press. Auto-repeat keeps a held key alive.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/atomic"
	"golang.org/x/term"

	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/internal/log"
)

// Config represents the terminal keyboard configuration.
type Config struct {
	Device   string        `help:"Device name used in profile input references" default:"keyboard" env:"PADBRIDGE_KEYBOARD_DEVICE"`
	HoldTime time.Duration `help:"How long a key reads as held after its last press" default:"300ms" env:"PADBRIDGE_KEYBOARD_HOLD_TIME"`
}

// ErrNotTerminal is returned by Run when the file is not a terminal.
var ErrNotTerminal = errors.New("terminal: not a terminal")

// Keyboard is an input.Provider and input.Modifiers backed by terminal input.
type Keyboard struct {
	device string
	hold   time.Duration
	now    func() time.Time
	logger *slog.Logger

	keys               *xsync.MapOf[string, *key]
	ctrl, alt, shift   *atomic.Int64
	onInterrupt        func()
	interruptRequested *atomic.Bool
}

var (
	_ input.Provider  = (*Keyboard)(nil)
	_ input.Modifiers = (*Keyboard)(nil)
)

// New creates a keyboard. now may be nil to use the wall clock.
func New(cfg Config, now func() time.Time, logger *slog.Logger) *Keyboard {
	if cfg.Device == "" {
		cfg.Device = "keyboard"
	}
	if cfg.HoldTime <= 0 {
		cfg.HoldTime = 300 * time.Millisecond
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Keyboard{
		device:             cfg.Device,
		hold:               cfg.HoldTime,
		now:                now,
		logger:             logger,
		keys:               xsync.NewMapOf[string, *key](),
		ctrl:               atomic.NewInt64(0),
		alt:                atomic.NewInt64(0),
		shift:              atomic.NewInt64(0),
		interruptRequested: atomic.NewBool(false),
	}
}

// Device returns the device name sources are registered under.
func (k *Keyboard) Device() string { return k.device }

// OnInterrupt sets the callback run on ctrl+c.
func (k *Keyboard) OnInterrupt(fn func()) { k.onInterrupt = fn }

// KeyName canonicalizes a key name: single characters are lower cased and
// named keys are matched in lower camel case ("page_up" -> "pageUp").
func KeyName(name string) (string, bool) {
	if utf8.RuneCountInString(name) == 1 {
		return strings.ToLower(name), true
	}
	n := strcase.ToLowerCamel(name)
	if _, ok := namedKeys[n]; ok {
		return n, true
	}
	return "", false
}

// Source returns the button source for a key name.
func (k *Keyboard) Source(name string) (input.Source, bool) {
	n, ok := KeyName(name)
	if !ok {
		return nil, false
	}
	src, _ := k.keys.LoadOrCompute(n, func() *key {
		return &key{
			kb:   k,
			ch:   input.Channel{Device: k.device, Name: n, Kind: input.KindButton},
			last: atomic.NewInt64(0),
		}
	})
	return src, true
}

// Feed decodes raw terminal bytes and records the presses.
func (k *Keyboard) Feed(b []byte) {
	t := k.now().UnixNano()
	for _, ev := range Decode(b) {
		if ev.Ctrl && ev.Key == "c" {
			k.logger.Debug("keyboard interrupt")
			k.interruptRequested.Store(true)
			if k.onInterrupt != nil {
				k.onInterrupt()
			}
			continue
		}
		if ev.Ctrl {
			k.ctrl.Store(t)
		}
		if ev.Alt {
			k.alt.Store(t)
		}
		if ev.Shift {
			k.shift.Store(t)
		}
		if src, ok := k.Source(ev.Key); ok {
			src.(*key).last.Store(t)
		}
		k.logger.Log(context.Background(), log.LevelTrace, "key", "key", ev.Key, "ctrl", ev.Ctrl, "alt", ev.Alt, "shift", ev.Shift)
	}
}

// Interrupted reports whether ctrl+c was seen.
func (k *Keyboard) Interrupted() bool { return k.interruptRequested.Load() }

func (k *Keyboard) held(at *atomic.Int64) bool {
	t := at.Load()
	return t != 0 && k.now().UnixNano()-t < int64(k.hold)
}

func (k *Keyboard) CtrlDown() bool  { return k.held(k.ctrl) }
func (k *Keyboard) AltDown() bool   { return k.held(k.alt) }
func (k *Keyboard) ShiftDown() bool { return k.held(k.shift) }

// Run puts f into raw mode and feeds its input until ctx ends or the read
// fails. The terminal state is restored before returning. A read blocked on
// a file without deadline support outlives Run until its next byte arrives
// or the process exits; anything it reads then is dropped.
func (k *Keyboard) Run(ctx context.Context, f *os.File) error {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return ErrNotTerminal
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer func() {
		if err := term.Restore(fd, old); err != nil {
			k.logger.Error("restore terminal", "error", err)
		}
	}()
	k.logger.Info("reading keyboard", "device", k.device, "hold", k.hold)

	errCh := make(chan error, 1)
	go func() { errCh <- k.read(ctx, f) }()

	select {
	case <-ctx.Done():
		_ = f.SetReadDeadline(time.Now())
		return nil
	case err := <-errCh:
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
}

func (k *Keyboard) read(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if n > 0 {
			k.Feed(buf[:n])
		}
		if err != nil {
			return err
		}
	}
}

type key struct {
	kb   *Keyboard
	ch   input.Channel
	last *atomic.Int64
}

func (s *key) Channel() input.Channel { return s.ch }

func (s *key) Value() float64 {
	if s.kb.held(s.last) {
		return 1
	}
	return 0
}
