package main

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	cli "github.com/urfave/cli/v2"
)

// duration lets TOML carry durations as strings like "5s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// config is the clockd configuration, a TOML file layered under the
// command line flags. Flags win.
type config struct {
	Source         string        `toml:"source"`
	NTPServer      string        `toml:"ntp_server"`
	KeyFile        string        `toml:"key_file"`
	NATSAddresses  []string      `toml:"nats_addresses"`
	MaxDrift       time.Duration `toml:"-"`
	GossipInterval time.Duration `toml:"-"`
	LogLevel       string        `toml:"log_level"`
}

// fileConfig is the on disk form of config.
type fileConfig struct {
	Source         string   `toml:"source"`
	NTPServer      string   `toml:"ntp_server"`
	KeyFile        string   `toml:"key_file"`
	NATSAddresses  []string `toml:"nats_addresses"`
	MaxDrift       duration `toml:"max_drift"`
	GossipInterval duration `toml:"gossip_interval"`
	LogLevel       string   `toml:"log_level"`
}

func loadConfig(ctx *cli.Context) (*config, error) {
	cfg := &config{
		Source:         ctx.String("source"),
		NTPServer:      ctx.String("ntp_server"),
		KeyFile:        ctx.String("key_file"),
		NATSAddresses:  ctx.StringSlice("nats_address"),
		MaxDrift:       ctx.Duration("max_drift"),
		GossipInterval: ctx.Duration("gossip_interval"),
		LogLevel:       ctx.String("log_level"),
	}

	path := ctx.String("config")
	if len(path) == 0 {
		return cfg, nil
	}

	var file fileConfig
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, errors.Wrapf(err, "loading config %s", path)
	}

	// flags set explicitly on the command line take precedence
	if !ctx.IsSet("source") && len(file.Source) > 0 {
		cfg.Source = file.Source
	}
	if !ctx.IsSet("ntp_server") && len(file.NTPServer) > 0 {
		cfg.NTPServer = file.NTPServer
	}
	if !ctx.IsSet("key_file") && len(file.KeyFile) > 0 {
		cfg.KeyFile = file.KeyFile
	}
	if !ctx.IsSet("nats_address") && len(file.NATSAddresses) > 0 {
		cfg.NATSAddresses = file.NATSAddresses
	}
	if !ctx.IsSet("max_drift") && file.MaxDrift.Duration > 0 {
		cfg.MaxDrift = file.MaxDrift.Duration
	}
	if !ctx.IsSet("gossip_interval") && file.GossipInterval.Duration > 0 {
		cfg.GossipInterval = file.GossipInterval.Duration
	}
	if !ctx.IsSet("log_level") && len(file.LogLevel) > 0 {
		cfg.LogLevel = file.LogLevel
	}

	return cfg, nil
}
