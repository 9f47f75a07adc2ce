package memstore

import (
	"context"
	"sort"

	"github.com/Zhouyi071021/campus-circle/internal/models"
)

type blockRepo struct{ s *Store }

func (r *blockRepo) Exists(_ context.Context, blocker, blocked int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.blocks[pair{blocker, blocked}]
	return ok, nil
}

func (r *blockRepo) Insert(_ context.Context, blocker, blocked int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := pair{blocker, blocked}
	if _, ok := r.s.blocks[k]; ok {
		return false, nil
	}
	r.s.blocks[k] = r.s.now()
	return true, nil
}

func (r *blockRepo) Delete(_ context.Context, blocker, blocked int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := pair{blocker, blocked}
	if _, ok := r.s.blocks[k]; !ok {
		return false, nil
	}
	delete(r.s.blocks, k)
	return true, nil
}

func (r *blockRepo) List(_ context.Context, blocker int) ([]models.BlockedUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list := []models.BlockedUser{}
	for k, at := range r.s.blocks {
		if k[0] != blocker {
			continue
		}
		b := models.BlockedUser{UserID: k[1], CreatedAt: at}
		if u, ok := r.s.users[k[1]]; ok {
			b.Username, b.Nickname, b.Avatar = u.Username, u.Nickname, u.Avatar
		}
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].UserID < list[j].UserID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}
