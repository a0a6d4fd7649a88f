package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/Alia5/padbridge/bridge"
	"github.com/Alia5/padbridge/device/xim"
	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/input/terminal"
	"github.com/Alia5/padbridge/internal/engine"
	"github.com/Alia5/padbridge/internal/log"
	"github.com/Alia5/padbridge/internal/profile"
	"github.com/Alia5/padbridge/trigger"
)

// Run maps terminal key presses onto a controller.
type Run struct {
	Profile  string          `arg:"" help:"Profile file (json, yaml or toml)" type:"existingfile"`
	Bridge   string          `help:"Bridge server address; without one the state is only logged" env:"PADBRIDGE_RUN_BRIDGE"`
	Password string          `help:"Bridge password" env:"PADBRIDGE_RUN_PASSWORD"`
	Interval time.Duration   `help:"Engine tick interval" default:"8ms" env:"PADBRIDGE_RUN_INTERVAL"`
	Timeout  time.Duration   `help:"State transfer timeout" default:"200ms" env:"PADBRIDGE_RUN_TIMEOUT"`
	Keyboard terminal.Config `embed:"" prefix:"keyboard."`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := profile.Load(r.Profile)
	if err != nil {
		return err
	}
	logger.Info("loaded profile", "name", p.Name, "rules", len(p.Rules))

	kb := terminal.New(r.Keyboard, nil, logger)
	kb.OnInterrupt(stop)
	reg := input.NewRegistry()
	reg.Register(kb.Device(), kb)

	binding, err := p.Bind(reg)
	if binding == nil {
		return err
	}
	for _, e := range multierr.Errors(err) {
		logger.Warn("rule left unbound", "error", e)
	}

	var transport xim.Transport
	if r.Bridge != "" {
		transport = bridge.NewClient(r.Bridge, &bridge.ClientConfig{Password: r.Password}, logger)
	} else {
		logger.Info("no bridge address given, logging state only")
		transport = bridge.NewMonitor(logger)
	}
	dev, err := xim.New(transport, &xim.Options{Timeout: r.Timeout, Logger: logger, Raw: rawLogger})
	if err != nil {
		return fmt.Errorf("connect device: %w", err)
	}
	defer dev.Close()

	if err := dev.SetThumbsticksEnabled(p.Thumbsticks); err != nil {
		logger.Warn("set thumbstick mode", "error", err)
	}

	go func() {
		if err := kb.Run(ctx, os.Stdin); err != nil {
			if errors.Is(err, terminal.ErrNotTerminal) {
				logger.Error("stdin is not a terminal, keyboard input disabled")
				return
			}
			logger.Error("keyboard stopped", "error", err)
			stop()
		}
	}()

	eng := engine.New(dev, binding.Rules, trigger.Evaluator{Modifiers: kb, Sticks: input.NewStickCache()}, binding.Siblings, logger)
	return eng.Run(ctx, r.Interval)
}
