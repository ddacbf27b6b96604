package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"clpool/internal/config"
	"clpool/internal/sim"
	"clpool/internal/storage"
	"clpool/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "clpool",
		Short:        "Concentrated-liquidity pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario against a fresh pool",
		RunE:  runScenario,
	}

	runCmd.Flags().String("scenario", "", "scenario file path")
	runCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	runCmd.Flags().String("state", "./data/pool_state.json", "final pool state file path")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a scenario file without executing it",
		RunE:  checkScenario,
	}

	checkCmd.Flags().String("scenario", "", "scenario file path")

	root.AddCommand(checkCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScenario(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Scenario == "" {
		return fmt.Errorf("scenario file is required")
	}

	scenario, err := sim.LoadScenario(cfg.Scenario)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := storage.NewJsonlStorage(cfg.Out)
	runner, err := sim.NewRunner(scenario, sink, logger)
	if err != nil {
		return err
	}

	logger.Info("run start",
		zap.String("scenario", cfg.Scenario),
		zap.String("token0", scenario.Pool.Token0),
		zap.String("token1", scenario.Pool.Token1),
		zap.Int("tick_spacing", scenario.Pool.TickSpacing),
		zap.Int("ops", len(scenario.Ops)),
		zap.String("out", cfg.Out),
	)

	records, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	state := runner.State()
	stateStore := &sim.StateStore{Path: cfg.State}
	if err := stateStore.Save(state); err != nil {
		return err
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		if err := store.UpsertPoolState(ctx, state); err != nil {
			return fmt.Errorf("upsert pool state: %w", err)
		}
		if err := store.InsertEvents(ctx, state.Address, records); err != nil {
			return fmt.Errorf("insert events: %w", err)
		}
	}

	logger.Info("run complete",
		zap.Int("ops", len(records)),
		zap.String("sqrt_price_x96", state.SqrtPriceX96),
		zap.Int("tick", state.Tick),
		zap.String("liquidity", state.Liquidity),
	)
	return nil
}

func checkScenario(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("scenario")
	if path == "" {
		return fmt.Errorf("scenario file is required")
	}
	scenario, err := sim.LoadScenario(path)
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d ops against %s/%s\n", len(scenario.Ops), scenario.Pool.Token0, scenario.Pool.Token1)
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
