package observe

import (
	"log/slog"

	"github.com/comalice/fsmx"
)

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs machine lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnTransition(t fsmx.Transition) {
	if t.Initial {
		o.Logger.Info("machine_started",
			slog.String("machine", t.MachineID),
			slog.String("owner", t.Owner),
			slog.String("state", t.To.String()),
		)
		return
	}
	o.Logger.Info("state_changed",
		slog.String("machine", t.MachineID),
		slog.String("owner", t.Owner),
		slog.String("from", t.From.String()),
		slog.String("to", t.To.String()),
	)
}

func (o *LoggingObserver) OnRejected(info fsmx.MachineInfo, key fsmx.StateKey, err error) {
	o.Logger.Warn("transition_rejected",
		slog.String("machine", info.MachineID),
		slog.String("owner", info.Owner),
		slog.String("to", key.String()),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnDuplicate(info fsmx.MachineInfo, key fsmx.StateKey) {
	o.Logger.Warn("duplicate_state",
		slog.String("machine", info.MachineID),
		slog.String("owner", info.Owner),
		slog.String("key", key.String()),
	)
}
