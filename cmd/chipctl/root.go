package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/app"
	"github.com/rovshanmuradov/solstrike-client/internal/config"
	"github.com/rovshanmuradov/solstrike-client/internal/utils/logger"
)

const logTailSize = 200

// runtime holds what PersistentPreRunE prepared for the command.
type runtime struct {
	configPath string
	envFile    string
	debug      bool

	log    *logger.Logger
	tail   *logger.Buffer // console sink while watch owns the terminal
	done   func()         // logs the command's duration
	app    *app.App
	ctx    context.Context
	cancel context.CancelFunc
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "chipctl",
		Short:         "chipctl drives the sol_strike chip economy.",
		Long:          `Buy chips, manage prices and rewards, and watch the chip economy of a sol_strike deployment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return rt.teardown()
		},
	}
	root.PersistentFlags().StringVarP(&rt.configPath, "config", "c", "", "config file (json, yaml or toml)")
	root.PersistentFlags().StringVar(&rt.envFile, "env-file", ".env", "dotenv file with SOLSTRIKE_* overrides")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "debug logging")

	root.AddCommand(
		newPDAsCmd(rt),
		newInitCmd(rt),
		newBuyCmd(rt),
		newAddTokenCmd(rt),
		newReserveCmd(rt),
		newPriceCmd(rt),
		newRewardsCmd(rt),
		newStateCmd(rt),
		newWatchCmd(rt),
		newInspectCmd(rt),
		newLogsCmd(rt),
		newHistoryCmd(rt),
		newRoundingCmd(rt),
	)
	return root
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(rt.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", rt.envFile, err)
	}

	cfg, err := config.LoadConfig(rt.configPath)
	if err != nil {
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = rt.debug || cfg.DebugLogging
	if cmd.Name() == "watch" {
		// Консоль занята интерфейсом.
		rt.tail = logger.NewBuffer(logTailSize)
		logCfg.Console = rt.tail
	}
	if rt.log, err = logger.New(logCfg); err != nil {
		return err
	}

	if rt.app, err = app.New(cfg, rt.log.WithComponent("chipctl")); err != nil {
		return err
	}
	rt.ctx, rt.cancel = app.SignalContext(context.Background(), rt.log.Logger)
	rt.app.ServeMetrics()

	rt.done = rt.log.TrackPerformance(cmd.CommandPath())
	rt.log.Debug("Command started",
		zap.String("command", cmd.CommandPath()),
		zap.String("rpc", cfg.RPCURL),
		zap.String("program", rt.app.ProgramID().String()))
	return nil
}

func (rt *runtime) teardown() error {
	if rt.cancel != nil {
		rt.cancel()
	}
	var err error
	if rt.app != nil {
		err = rt.app.Close()
	}
	if rt.done != nil {
		rt.done()
	}
	if rt.log != nil {
		_ = rt.log.Sync()
	}
	return err
}
