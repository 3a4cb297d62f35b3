package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/ui"
)

const busSize = 256

func newWatchCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live view of prices and the treasury",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(rt)
		},
	}
}

func runWatch(rt *runtime) error {
	log := rt.log.WithComponent("watch")
	program := rt.app.Program()

	state, err := program.FetchState(rt.ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(rt.ctx)
	defer cancel()

	bus := make(chan tea.Msg, busSize)
	sender := ui.NewUpdateSender(bus, log)
	defer sender.Close()

	feed := ui.NewFeed(program, sender, log)
	if err := feed.Start(ctx, state); err != nil {
		return err
	}

	model := ui.NewWatchModel(program, bus, rt.app.ProgramID(), rt.app.Pricing())
	if rt.tail != nil {
		model = model.WithLogTail(rt.tail)
	}
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		log.Error("Watch screen failed", zap.Error(err))
		return err
	}

	cancel()
	feed.Wait()
	sent, dropped := sender.GetStats()
	log.Info("Watch stopped", zap.Uint64("sent", sent), zap.Uint64("dropped", dropped))
	return nil
}
