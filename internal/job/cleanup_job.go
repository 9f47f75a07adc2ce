// Package job holds the background work run on a cron schedule.
package job

import (
	"context"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/Zhouyi071021/campus-circle/internal/store"
)

// Retentions are the ages after which soft-deleted posts are purged, applied
// in order.
var Retentions = []time.Duration{7 * 24 * time.Hour, 30 * 24 * time.Hour}

const runTimeout = 5 * time.Minute

// PostCleanupJob removes posts that were soft-deleted long enough ago.
type PostCleanupJob struct {
	db    dbx.DBTX
	repos store.Manager
	log   logging.Logger
	now   func() time.Time
}

func NewPostCleanupJob(db dbx.DBTX, repos store.Manager, log logging.Logger) *PostCleanupJob {
	return &PostCleanupJob{
		db:    db,
		repos: repos,
		log:   log.With("module", "cleanup"),
		now:   time.Now,
	}
}

// Run implements cron.Job. Failures are logged and never escape.
func (j *PostCleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			j.log.Error(ctx, "post cleanup panicked", "panic", r)
		}
	}()

	j.log.Debug(ctx, "post cleanup started")
	var total int64
	for _, age := range Retentions {
		n, err := j.repos.Posts(j.db).PurgeDeleted(ctx, j.now().Add(-age))
		if err != nil {
			j.log.Warn(ctx, "post cleanup failed", "older_than", age.String(), "error", err)
			continue
		}
		total += n
		j.log.Info(ctx, "purged deleted posts", "older_than", age.String(), "count", n)
	}
	j.log.Debug(ctx, "post cleanup finished", "count", total)
}
