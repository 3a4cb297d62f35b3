// internal/app/listen.go
package app

import (
	"context"

	"github.com/rovshanmuradov/solstrike-client/internal/eventlistener"
)

// Listen streams the program's transaction logs to handler until ctx is
// done. It returns the error that ended the stream, nil on cancellation.
func (a *App) Listen(ctx context.Context, handler func(eventlistener.LogEvent)) error {
	el, err := eventlistener.NewEventListener(ctx, a.cfg.WebSocketURL, a.ProgramID(), a.logger,
		eventlistener.WithCommitment(a.commitment),
		eventlistener.WithMetrics(a.metrics))
	if err != nil {
		return err
	}
	a.shutdown.AddFunc("event-listener", el.Close)

	if err := el.Subscribe(ctx, handler); err != nil {
		el.Close()
		return err
	}
	<-el.Done()
	return el.Err()
}
