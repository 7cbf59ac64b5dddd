package backup

import (
	"github.com/robfig/cron/v3"

	appLog "studycal/internal/log"
)

// cronLogger routes cron's own messages through the app logger. Cron's
// Info chatter (schedule, wake, run) goes to DEBUG.
type cronLogger struct{}

var _ cron.Logger = cronLogger{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
