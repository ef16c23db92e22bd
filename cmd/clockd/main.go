// clockd runs a cluster clock node: it keeps the local cluster time,
// signs it with the cluster keyring and gossips it over NATS.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v2"

	clock "github.com/micro/go-clock"
	"github.com/micro/go-clock/broker"
	"github.com/micro/go-clock/broker/memory"
	"github.com/micro/go-clock/broker/nats"
	"github.com/micro/go-clock/gossip"
	"github.com/micro/go-clock/logger"
	"github.com/micro/go-clock/proof"
	"github.com/micro/go-clock/proof/hmac"
	"github.com/micro/go-clock/source"
	"github.com/micro/go-clock/source/local"
	"github.com/micro/go-clock/source/ntp"
)

func main() {
	app := &cli.App{
		Name:  "clockd",
		Usage: "cluster logical clock node",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a TOML config file",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Wall clock source, local or ntp",
				Value: "local",
			},
			&cli.StringFlag{
				Name:  "ntp_server",
				Usage: "NTP server for the ntp source",
				Value: ntp.DefaultServer,
			},
			&cli.StringFlag{
				Name:  "key_file",
				Usage: "Path to the cluster keyring, watched for rotation",
			},
			&cli.StringSliceFlag{
				Name:  "nats_address",
				Usage: "NATS addresses for gossip, memory broker when empty",
			},
			&cli.DurationFlag{
				Name:  "max_drift",
				Usage: "Maximum acceptable drift of peer supplied times",
				Value: clock.DefaultMaxDrift,
			},
			&cli.DurationFlag{
				Name:  "gossip_interval",
				Usage: "How often the local time is announced",
				Value: gossip.DefaultInterval,
			},
			&cli.StringFlag{
				Name:    "log_level",
				Usage:   "Log level",
				EnvVars: []string{"CLOCK_LOG_LEVEL"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if len(cfg.LogLevel) > 0 {
		lvl, err := logger.GetLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		if err := logger.DefaultLogger.Init(logger.WithLevel(lvl)); err != nil {
			return err
		}
	}

	var src source.Source
	switch cfg.Source {
	case "ntp":
		src = ntp.NewSource(ntp.WithServer(cfg.NTPServer))
	default:
		src = local.NewSource()
	}

	var prv proof.Provider
	if len(cfg.KeyFile) > 0 {
		prv, err = hmac.NewProvider(hmac.WithKeyFile(cfg.KeyFile))
		if err != nil {
			return err
		}
	}

	clk := clock.NewClock(
		clock.Source(src),
		clock.Proof(prv),
		clock.MaxDrift(cfg.MaxDrift),
	)

	var b broker.Broker
	if len(cfg.NATSAddresses) > 0 {
		b = nats.NewBroker(
			broker.Addrs(cfg.NATSAddresses...),
			nats.DrainConnection(),
		)
	} else {
		b = memory.NewBroker()
	}

	g := gossip.NewGossip(
		gossip.Clock(clk),
		gossip.Broker(b),
		gossip.Interval(cfg.GossipInterval),
		// without a keyring there is nothing to verify against
		gossip.Trusted(prv == nil),
	)

	if err := g.Start(); err != nil {
		return err
	}
	defer g.Stop()

	logger.Infof("clockd: source %s, broker %s, drift limit %v", src.String(), b.String(), cfg.MaxDrift)

	report := time.NewTicker(time.Minute)
	defer report.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-report.C:
			logger.Debugf("clockd: cluster time is %v", clk.ClusterTime().Time)
		case s := <-sig:
			logger.Infof("clockd: received %v, shutting down", s)
			return nil
		}
	}
}
