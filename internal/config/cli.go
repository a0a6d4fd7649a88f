// Package config holds the root command line of padbridge.
package config

import (
	"github.com/Alia5/padbridge/internal/cmd"
	"github.com/Alia5/padbridge/internal/log"
)

// CLI is the kong root. Values come from flags, PADBRIDGE_ environment
// variables and config files, in that order of precedence.
type CLI struct {
	ConfigFile string     `name:"config" help:"Configuration file (json, yaml or toml)" type:"path" env:"PADBRIDGE_CONFIG"`
	Log        log.Config `embed:"" prefix:"log."`

	Run     cmd.Run            `cmd:"" help:"Map terminal key presses onto a controller"`
	Bridge  cmd.Bridge         `cmd:"" help:"Serve a controller to remote run commands"`
	Profile cmd.ProfileCommand `cmd:"" help:"Inspect and convert profiles"`
	Config  cmd.ConfigCommand  `cmd:"" help:"Configuration helpers"`
}
