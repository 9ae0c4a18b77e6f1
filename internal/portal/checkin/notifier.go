package checkin

import "log/slog"

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string, err error)
}

// LogNotifier writes notifications to a slog logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(lg *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: lg}
}

func (n *LogNotifier) Success(msg string) {
	n.logger.Info(msg, "notice", "success")
}

func (n *LogNotifier) Info(msg string) {
	n.logger.Info(msg, "notice", "info")
}

func (n *LogNotifier) Error(msg string, err error) {
	n.logger.Warn(msg, "notice", "error", "error", err)
}
