// Command bridge connects simulated vehicles to an autonomy stack over
// the message bus. One bridge per configured vehicle runs on a shared
// tick loop; a diagnostics server exposes live status.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/evshary/go-carla-bridge/internal/config"
	"github.com/evshary/go-carla-bridge/internal/log"
	"github.com/evshary/go-carla-bridge/pkg/bridge"
	"github.com/evshary/go-carla-bridge/pkg/bus"
	"github.com/evshary/go-carla-bridge/pkg/sim"
	"github.com/evshary/go-carla-bridge/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "Path to yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("bridge exited", "error", err)
		os.Exit(1)
	}
	log.Info("bridge stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	session, err := bus.NewMQTTSession(cfg.Bus.MQTT(), log.L())
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.ConnectWithRetry(ctx); err != nil {
		return err
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, cfg.Sim.DialTimeout.Std())
	defer dialCancel()
	gateway, err := sim.Dial(dialCtx, cfg.Sim.Endpoint, log.L())
	if err != nil {
		return err
	}
	defer gateway.Close()

	runner := bridge.NewRunner(cfg.TickInterval.Std(), log.L())
	for _, name := range cfg.Vehicles {
		actor, err := gateway.Vehicle(name)
		if err != nil {
			return err
		}
		b, err := bridge.New(session, name, actor, log.L())
		if err != nil {
			return err
		}
		defer b.Close()
		runner.Add(b)
	}

	if cfg.Web.Enabled {
		server := web.NewServer(cfg.Web.Listen, runner)
		go func() {
			if err := server.Start(); err != nil {
				log.Error("diagnostics server failed", "error", err)
			}
		}()
		defer server.Shutdown()
		log.Info("diagnostics server listening", "addr", cfg.Web.Listen)
	}

	log.Info("bridge running",
		"vehicles", cfg.Vehicles,
		"tick_interval", cfg.TickInterval.Std(),
	)
	return runner.Run(ctx)
}
