package memstore

import (
	"context"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/models"
	"github.com/Zhouyi071021/campus-circle/internal/store/posts"
)

type postRepo struct{ s *Store }

func (r *postRepo) PurgeDeleted(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	kept := r.s.posts[:0]
	for _, p := range r.s.posts {
		if p.status == posts.StatusDeleted && p.updatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, p)
	}
	r.s.posts = kept
	return n, nil
}

func (r *postRepo) Count(context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, p := range r.s.posts {
		if p.status != posts.StatusDeleted {
			n++
		}
	}
	return n, nil
}

type auditRepo struct{ s *Store }

func (r *auditRepo) Insert(_ context.Context, entry *models.AdminLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = r.s.id()
	r.s.logs = append(r.s.logs, *entry)
	return nil
}

func (r *auditRepo) List(_ context.Context, limit, offset int) ([]models.AdminLog, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := make([]models.AdminLog, 0, len(r.s.logs))
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		l := r.s.logs[i]
		if u, ok := r.s.users[l.AdminID]; ok {
			l.AdminName = u.Username
		}
		all = append(all, l)
	}
	return page(all, limit, offset), len(all), nil
}
