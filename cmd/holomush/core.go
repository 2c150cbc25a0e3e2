// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/oklog/run"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/holomush/mudcore/internal/config"
	"github.com/holomush/mudcore/internal/gateway"
	"github.com/holomush/mudcore/internal/logging"
	"github.com/holomush/mudcore/internal/observability"
	"github.com/holomush/mudcore/internal/store"
)

// coreConfig holds the core subcommand's own flags. runCore reads them
// directly; they do not map to any internal/config key (only --store-dsn
// is folded into config.Config, by loadConfig).
type coreConfig struct {
	universeID  string
	metricsAddr string
	logFormat   string
}

const defaultCoreMetricsAddr = "127.0.0.1:9100"

// NewCoreCmd creates the core subcommand: the single-binary process
// that runs one universe's Scheduler, Consensus Layer, and (when
// --store-dsn or the config file's store.dsn is set) its KeyedStore.
// internal/gateway.SessionGateway has no production transport per
// spec's collaborator-boundary scope, so core frames inbound commands
// from stdin as "<actor_id> <command text>" lines and prints delivered
// batches to stdout — a stand-in harness for the out-of-scope
// telnet/web transport, not a production gateway implementation.
func NewCoreCmd() *cobra.Command {
	cfg := &coreConfig{}

	cmd := &cobra.Command{
		Use:   "core",
		Short: "Run one universe's Scheduler and Consensus Layer",
		Long: `Start the core process: builds one universe's Object Graph,
Class Registry, Code Store, Credit Ledger, and Consensus Layer, then
runs its command/timer/heart-beat Scheduler until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCore(cmd.Context(), cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.universeID, "universe", "default", "universe ID to run")
	cmd.Flags().StringVar(&cfg.metricsAddr, "metrics-addr", defaultCoreMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().StringVar(&cfg.logFormat, "log-format", "json", "log format (json or text)")
	cmd.Flags().String("store-dsn", "", "Postgres DSN (overrides config file store.dsn; empty = in-memory only)")

	return cmd
}

func runCore(ctx context.Context, cmd *cobra.Command, coreCfg *coreConfig) error {
	logging.SetDefault("holomush-core", cmd.Root().Version, coreCfg.logFormat)

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var ks *store.KeyedStore
	if cfg.Store.DSN != "" {
		ks, err = store.NewKeyedStore(ctx, cfg.Store.DSN)
		if err != nil {
			return fmt.Errorf("connect store: %w", err)
		}
		defer ks.Close()
		slog.Info("connected to store")
	} else {
		slog.Warn("no store DSN configured; running in-memory only, nothing survives a restart")
	}

	gw := newCLIGateway(cmd)
	st, err := buildStack(ctx, cfg, ks, coreCfg.universeID, gw)
	if err != nil {
		return fmt.Errorf("build universe %s: %w", coreCfg.universeID, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g run.Group

	g.Add(func() error {
		return st.Engine.Run(ctx)
	}, func(error) {
		cancel()
	})

	if coreCfg.metricsAddr != "" {
		obs := observability.NewServer(coreCfg.metricsAddr, func() bool { return true })
		obsErrs, startErr := obs.Start()
		if startErr != nil {
			return fmt.Errorf("start observability server: %w", startErr)
		}
		g.Add(func() error {
			return <-obsErrs
		}, func(error) {
			_ = obs.Stop(context.Background())
		})
		slog.Info("observability server started", "addr", coreCfg.metricsAddr)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	g.Add(func() error {
		<-sigChan
		return nil
	}, func(error) {
		signal.Stop(sigChan)
	})

	g.Add(func() error {
		return stdinGatewayLoop(ctx, cmd, gw)
	}, func(error) {
		gw.Close()
	})

	cmd.Println("core process started")
	slog.Info("core process ready", "universe", coreCfg.universeID)

	return g.Run()
}

// cliGateway is the stand-in SessionGateway the core process drives:
// Receive blocks on an inbound channel fed by stdinGatewayLoop's
// scanner goroutine, and Deliver prints straight to stdout/stderr from
// whichever goroutine the engine's dispatchLoop calls it on. Pushing
// delivery through Deliver rather than buffering it for later polling
// means there is nothing for a caller to race against: by the time a
// batch reaches Deliver it has already been printed.
type cliGateway struct {
	cmd   *cobra.Command
	inbox chan gateway.Command
	done  chan struct{}
	mu    sync.Mutex
}

func newCLIGateway(cmd *cobra.Command) *cliGateway {
	return &cliGateway{
		cmd:   cmd,
		inbox: make(chan gateway.Command, 64),
		done:  make(chan struct{}),
	}
}

func (g *cliGateway) Close() {
	close(g.done)
}

func (g *cliGateway) Receive() (gateway.Command, error) {
	select {
	case cmd := <-g.inbox:
		return cmd, nil
	case <-g.done:
		return gateway.Command{}, oops.In("gateway").Code("CLOSED").Errorf("gateway closed")
	}
}

func (g *cliGateway) Deliver(actorID string, batch []gateway.Outbound) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, out := range batch {
		printOutbound(g.cmd, actorID, out)
	}
	return nil
}

// stdinGatewayLoop scans "<actor_id> <command text>" lines from stdin
// and pushes them onto gw's inbound channel for the engine's
// receiveLoop to pick up; it never reads back what the engine delivers
// — that happens independently, inside gw.Deliver.
func stdinGatewayLoop(ctx context.Context, cmd *cobra.Command, gw *cliGateway) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		actorID, text, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		select {
		case gw.inbox <- gateway.Command{ActorID: actorID, Text: text}:
		case <-ctx.Done():
			return nil
		}
	}
	return scanner.Err()
}

func printOutbound(cmd *cobra.Command, actorID string, out gateway.Outbound) {
	switch out.Kind {
	case gateway.KindError:
		cmd.PrintErrf("%s: error: %s\n", actorID, out.Text)
	case gateway.KindWelcome:
		cmd.Printf("%s: welcome\n", actorID)
	case gateway.KindRoom:
		cmd.Printf("%s: room %s\n", actorID, out.Room.Name)
	default:
		cmd.Printf("%s: %s\n", actorID, out.Text)
	}
}

// loadConfig builds a config.Config from --config and any subcommand
// flags that mirror a config key (e.g. --store-dsn), per internal/config's
// layering (defaults, then file, then flags).
func loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return config.Config{}, err
	}
	if dsn, _ := flags.GetString("store-dsn"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	return cfg, nil
}
