package memory

import (
	"context"
	"sort"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/user"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.data.users {
		if existing.Email == u.Email {
			return user.ErrEmailDuplicate
		}
	}

	now := time.Now()
	u.ID = r.s.nextID()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.data.users[u.ID] = *u
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.data.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *userRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	defer r.s.lock(ctx)()
	_, ok := r.s.data.users[id]
	return ok, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == user.ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.data.users[u.ID]
	if !ok {
		return user.ErrUserNotFound
	}
	for id, other := range r.s.data.users {
		if id != u.ID && other.Email == u.Email {
			return user.ErrEmailDuplicate
		}
	}

	u.CreatedAt = stored.CreatedAt
	u.UpdatedAt = time.Now()
	r.s.data.users[u.ID] = *u
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) (bool, error) {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.users[id]; !ok {
		return false, nil
	}
	delete(r.s.data.users, id)
	return true, nil
}

func (r *userRepository) List(ctx context.Context) ([]*user.User, error) {
	defer r.s.lock(ctx)()

	result := make([]*user.User, 0, len(r.s.data.users))
	for _, u := range r.s.data.users {
		found := u
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	defer r.s.lock(ctx)()
	return int64(len(r.s.data.users)), nil
}
