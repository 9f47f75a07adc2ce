// Package auditlog records actions taken through the admin surface.
package auditlog

import (
	"context"

	"github.com/Zhouyi071021/campus-circle/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, entry *models.AdminLog) error
	List(ctx context.Context, limit, offset int) ([]models.AdminLog, int, error)
}
