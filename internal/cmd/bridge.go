package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Alia5/padbridge/bridge"
	"github.com/Alia5/padbridge/internal/auth"
	"github.com/Alia5/padbridge/internal/configpaths"
	"github.com/Alia5/padbridge/internal/log"
)

const keyFileName = "padbridge.key.txt"

// Bridge serves a device to remote run commands.
type Bridge struct {
	Server bridge.ServerConfig `embed:"" prefix:"bridge."`
	Auth   bool                `help:"Require a password, read from or generated into the key file when none is set" default:"false" env:"PADBRIDGE_BRIDGE_AUTH"`
}

// Run is called by Kong when the bridge command is executed.
func (b *Bridge) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return b.Serve(ctx, logger, rawLogger)
}

func (b *Bridge) Serve(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	if b.Auth && b.Server.Password == "" {
		pwd, err := loadOrCreateKey(logger)
		if err != nil {
			return err
		}
		b.Server.Password = pwd
	}

	srv, err := bridge.NewServer(bridge.NewMonitor(logger), b.Server, logger, rawLogger)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

func loadOrCreateKey(logger *slog.Logger) (string, error) {
	dir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve key file path: %w", err)
	}
	keyFilePath := filepath.Join(dir, keyFileName)
	if pwd, err := os.ReadFile(keyFilePath); err == nil {
		return strings.TrimSpace(string(pwd)), nil
	}

	pwd, err := auth.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate bridge password: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config dir for key file: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(pwd), 0o600); err != nil {
		return "", fmt.Errorf("failed to write bridge password to file: %w", err)
	}
	logger.Info("Generated bridge password", "path", keyFilePath)
	logger.Info("-------------------------------------")
	logger.Info(pwd)
	logger.Info("-------------------------------------")
	return pwd, nil
}
