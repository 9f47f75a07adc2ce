// Package posts covers the slice of post storage the backend still owns:
// purging soft-deleted rows and counting for the dashboard.
package posts

import (
	"context"
	"time"
)

const StatusDeleted = "deleted"

type Repository interface {
	// PurgeDeleted removes posts with status "deleted" last updated before
	// cutoff and returns how many went.
	PurgeDeleted(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
}
