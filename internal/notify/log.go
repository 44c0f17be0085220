package notify

import (
	"time"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to a zap logger at a level matching their
// severity.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

func (l *LogNotifier) Notify(message string, severity Severity, duration time.Duration) {
	fields := []zap.Field{
		zap.String("severity", string(severity)),
		zap.Duration("duration", duration),
		zap.Bool("persistent", duration <= 0),
	}
	switch severity {
	case SeverityError:
		l.logger.Error(message, fields...)
	case SeverityWarning:
		l.logger.Warn(message, fields...)
	default:
		l.logger.Info(message, fields...)
	}
}
