package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronSpec converts an interval to a cron expression. Intervals under an
// hour fire every N minutes; longer ones fire on the hour every
// floor(N/60) hours, so 90 behaves like 60.
func CronSpec(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("*/%d * * * *", minutes)
	}
	return fmt.Sprintf("0 */%d * * *", minutes/60)
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
