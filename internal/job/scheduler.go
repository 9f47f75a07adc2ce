package job

import (
	"context"
	"fmt"

	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/robfig/cron/v3"
)

// cronLogger lets cron report through our logger.
type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(context.Background(), msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(context.Background(), msg, append(keysAndValues, "error", err)...)
}

// NewScheduler returns a cron runner (standard five-field expressions) that
// recovers from panicking jobs and skips a run while the previous one is
// still going.
func NewScheduler(log logging.Logger) *cron.Cron {
	cl := cronLogger{log: log.With("module", "cron")}
	return cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

// Schedule registers j under the cron expression expr.
func Schedule(c *cron.Cron, expr string, j cron.Job) error {
	if _, err := c.AddJob(expr, j); err != nil {
		return fmt.Errorf("schedule %q: %w", expr, err)
	}
	return nil
}
