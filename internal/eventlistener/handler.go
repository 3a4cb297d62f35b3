// internal/eventlistener/handler.go
package eventlistener

import (
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain/solbc"
)

// NewLogHandler returns a handler that logs every event and, for failed
// transactions, the Anchor error found in the logs.
func NewLogHandler(logger *zap.Logger) func(event LogEvent) {
	analyzer := solbc.NewErrorAnalyzer(logger)
	return func(event LogEvent) {
		fields := []zap.Field{
			zap.String("signature", event.Signature),
			zap.Uint64("slot", event.Slot),
			zap.Strings("instructions", event.Instructions),
		}
		if !event.Failed() {
			logger.Info("Program transaction", fields...)
			return
		}

		fields = append(fields, zap.Any("err", event.Err))
		if anchorErr := analyzer.AnalyzeLogs(event.Logs); anchorErr != nil {
			fields = append(fields,
				zap.Int("code", anchorErr.Code),
				zap.String("error_name", anchorErr.Name))
		}
		logger.Warn("Program transaction failed", fields...)
	}
}
