// Package engine runs the mapping loop: sample inputs, evaluate rules and
// push the resulting controller state in one transmission per tick.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"go.uber.org/atomic"

	"github.com/Alia5/padbridge/device"
	"github.com/Alia5/padbridge/device/xim"
	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/trigger"
)

// DefaultInterval is the tick period of Run when none is given.
const DefaultInterval = 8 * time.Millisecond

// Engine maps rule outputs onto a device.
//
// Buttons are pressed when any active rule targets them. An axis takes the
// payload of largest magnitude among its active rules and rests at zero when
// none is active.
type Engine struct {
	dev     *xim.Device
	rules   []trigger.Rule
	eval    trigger.Evaluator
	sample  []input.Source
	logger  *slog.Logger
	ticks   *atomic.Uint64
	changes *atomic.Uint64
	// dirty is set when the local state may differ from what the device
	// last acknowledged.
	dirty *atomic.Bool
}

// New creates an engine. sources lists extra channels to sample every tick
// besides the rule inputs, typically the unbound sibling of a shaped axis.
// If eval has no stick cache one is created.
func New(dev *xim.Device, rules []trigger.Rule, eval trigger.Evaluator, sources []input.Source, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if eval.Sticks == nil {
		eval.Sticks = input.NewStickCache()
	}

	seen := map[input.Source]struct{}{}
	var sample []input.Source
	add := func(s input.Source) {
		if s == nil {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		sample = append(sample, s)
	}
	for i := range rules {
		add(rules[i].Source)
	}
	for _, s := range sources {
		add(s)
	}

	return &Engine{
		dev:     dev,
		rules:   rules,
		eval:    eval,
		sample:  sample,
		logger:  logger,
		ticks:   atomic.NewUint64(0),
		changes: atomic.NewUint64(0),
		dirty:   atomic.NewBool(false),
	}
}

// Desired is the controller state the rules ask for.
type Desired struct {
	Buttons [device.NumButtons]bool
	Axes    [device.NumAxes]float64
}

// Evaluate samples every source into the stick cache and aggregates the
// active rules.
func (e *Engine) Evaluate() Desired {
	for _, s := range e.sample {
		e.eval.Sticks.Sample(s)
	}

	var d Desired
	for i := range e.rules {
		r := &e.rules[i]
		if !e.eval.IsActive(r) {
			continue
		}
		v, ok := e.eval.Payload(r)
		if !ok {
			continue
		}
		switch r.Target.Kind {
		case device.TargetButton:
			if v != 0 {
				d.Buttons[r.Target.Button] = true
			}
		case device.TargetAxis:
			if math.Abs(v) > math.Abs(d.Axes[r.Target.Axis]) {
				d.Axes[r.Target.Axis] = v
			}
		}
	}
	return d
}

// Tick evaluates the rules and transmits once if the device state changes.
// A tick following a failed transmission resends even when nothing changed.
func (e *Engine) Tick() error {
	e.ticks.Inc()
	want := e.Evaluate()

	var batch *xim.Batch
	begin := func() error {
		if batch != nil {
			return nil
		}
		var err error
		batch, err = e.dev.BeginBatch()
		return err
	}
	abort := func(err error) error {
		batch.Discard()
		e.dirty.Store(true)
		return err
	}

	for b := device.Button(0); int(b) < device.NumButtons; b++ {
		if e.dev.Button(b) == want.Buttons[b] {
			continue
		}
		if err := begin(); err != nil {
			return err
		}
		if err := batch.SetButton(b, want.Buttons[b]); err != nil {
			return abort(err)
		}
	}
	for a := device.Axis(0); int(a) < device.NumAxes; a++ {
		if e.dev.Axis(a) == xim.Quantize(want.Axes[a]) {
			continue
		}
		if err := begin(); err != nil {
			return err
		}
		if err := batch.SetAxis(a, want.Axes[a]); err != nil {
			return abort(err)
		}
	}

	if batch == nil {
		if !e.dirty.Load() {
			return nil
		}
		if err := begin(); err != nil {
			return err
		}
	}
	e.changes.Inc()
	if err := batch.Commit(); err != nil {
		e.dirty.Store(true)
		return err
	}
	e.dirty.Store(false)
	return nil
}

// Ticks returns the number of ticks run.
func (e *Engine) Ticks() uint64 { return e.ticks.Load() }

// Changes returns the number of ticks that transmitted.
func (e *Engine) Changes() uint64 { return e.changes.Load() }

// Run ticks every interval until ctx ends or the device stops accepting
// state. Non-fatal transmission errors are logged and the loop goes on.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("engine started", "rules", len(e.rules), "sources", len(e.sample), "interval", interval)
	defer func() {
		e.logger.Info("engine stopped", "ticks", e.Ticks(), "changes", e.Changes())
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := e.Tick()
			if err == nil {
				continue
			}
			if errors.Is(err, xim.ErrFaulted) || errors.Is(err, xim.ErrClosed) ||
				e.dev.ConnState() != xim.StateConnected {
				return err
			}
			e.logger.Warn("tick failed", "error", err)
		}
	}
}
