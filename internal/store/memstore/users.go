package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/auth"
	"github.com/Zhouyi071021/campus-circle/internal/models"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return nil, apperr.ErrUsernameTaken
		}
	}
	u.ID = r.s.id()
	u.IsActive = true
	u.CreatedAt = r.s.now()
	if u.Role == "" {
		u.Role = auth.RoleUser
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return u, nil
}

func (r *userRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *userRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *userRepo) Exists(_ context.Context, id int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.users[id]
	return ok, nil
}

func (r *userRepo) update(id int, fn func(u *models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	fn(u)
	return nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id int, hash string) error {
	return r.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r *userRepo) TouchLastLogin(_ context.Context, id int, at time.Time) error {
	return r.update(id, func(u *models.User) { u.LastLogin = &at })
}

func (r *userRepo) AddLoginRecord(_ context.Context, rec *models.LoginRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec.ID = r.s.id()
	r.s.logins = append(r.s.logins, *rec)
	return nil
}

func (r *userRepo) LoginHistory(_ context.Context, userID, limit int) ([]models.LoginRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.LoginRecord{}
	for i := len(r.s.logins) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.logins[i].UserID == userID {
			out = append(out, r.s.logins[i])
		}
	}
	return out, nil
}

func (r *userRepo) InsertFollow(_ context.Context, follower, followee int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := pair{follower, followee}
	if _, ok := r.s.follows[k]; ok {
		return false, nil
	}
	r.s.follows[k] = r.s.now()
	return true, nil
}

func (r *userRepo) DeleteFollow(_ context.Context, follower, followee int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := pair{follower, followee}
	if _, ok := r.s.follows[k]; !ok {
		return false, nil
	}
	delete(r.s.follows, k)
	return true, nil
}

func (r *userRepo) IsFollowing(_ context.Context, follower, followee int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.follows[pair{follower, followee}]
	return ok, nil
}

func (r *userRepo) AdjustFollowCounts(_ context.Context, follower, followee, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[follower]; ok {
		u.FollowingCount = max(u.FollowingCount+delta, 0)
	}
	if u, ok := r.s.users[followee]; ok {
		u.FollowersCount = max(u.FollowersCount+delta, 0)
	}
	return nil
}

func (r *userRepo) sorted(keep func(u *models.User) bool, less func(a, b *models.User) bool) []models.User {
	var list []*models.User
	for _, u := range r.s.users {
		if keep(u) {
			list = append(list, u)
		}
	}
	sort.Slice(list, func(i, j int) bool { return less(list[i], list[j]) })

	out := make([]models.User, len(list))
	for i, u := range list {
		out[i] = *u
	}
	return out
}

func (r *userRepo) List(_ context.Context, search string, limit, offset int) ([]models.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	needle := strings.ToLower(search)
	all := r.sorted(
		func(u *models.User) bool {
			return strings.Contains(strings.ToLower(u.Username), needle) ||
				strings.Contains(strings.ToLower(u.Nickname), needle)
		},
		func(a, b *models.User) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID > b.ID
			}
			return a.CreatedAt.After(b.CreatedAt)
		},
	)
	return page(all, limit, offset), len(all), nil
}

func (r *userRepo) ListByRoles(_ context.Context, roles ...auth.Role) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.sorted(
		func(u *models.User) bool {
			for _, role := range roles {
				if u.Role == role {
					return true
				}
			}
			return false
		},
		func(a, b *models.User) bool { return a.ID < b.ID },
	), nil
}

func (r *userRepo) SetStatus(_ context.Context, id int, active bool, banReason string) error {
	return r.update(id, func(u *models.User) {
		u.IsActive = active
		u.BanReason = ""
		if !active {
			u.BanReason = banReason
		}
	})
}

func (r *userRepo) SetRole(_ context.Context, id int, role auth.Role) error {
	return r.update(id, func(u *models.User) { u.Role = role })
}

func (r *userRepo) Count(context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.users), nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := min(offset+limit, len(all))
	return all[offset:end]
}
