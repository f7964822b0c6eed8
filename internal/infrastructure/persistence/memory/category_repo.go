package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/category"
)

type categoryRepository struct {
	s *Store
}

func (r *categoryRepository) Create(ctx context.Context, c *category.Category) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.data.categories {
		if existing.Name == c.Name {
			return category.ErrNameDuplicate
		}
	}

	now := time.Now()
	c.ID = r.s.nextID()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.data.categories[c.ID] = *c
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*category.Category, error) {
	defer r.s.lock(ctx)()
	c, ok := r.s.data.categories[id]
	if !ok {
		return nil, category.ErrCategoryNotFound
	}
	return &c, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*category.Category, error) {
	defer r.s.lock(ctx)()
	for _, c := range r.s.data.categories {
		if c.Name == name {
			found := c
			return &found, nil
		}
	}
	return nil, category.ErrCategoryNotFound
}

func (r *categoryRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	defer r.s.lock(ctx)()
	_, ok := r.s.data.categories[id]
	return ok, nil
}

func (r *categoryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	_, err := r.FindByName(ctx, name)
	if err == category.ErrCategoryNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *categoryRepository) Update(ctx context.Context, c *category.Category) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.data.categories[c.ID]
	if !ok {
		return category.ErrCategoryNotFound
	}
	for id, other := range r.s.data.categories {
		if id != c.ID && other.Name == c.Name {
			return category.ErrNameDuplicate
		}
	}

	c.CreatedAt = stored.CreatedAt
	c.UpdatedAt = time.Now()
	r.s.data.categories[c.ID] = *c
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) (bool, error) {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.categories[id]; !ok {
		return false, nil
	}
	delete(r.s.data.categories, id)
	return true, nil
}

func (r *categoryRepository) List(ctx context.Context, nameContains string) ([]*category.Category, error) {
	defer r.s.lock(ctx)()

	needle := strings.ToLower(nameContains)
	result := make([]*category.Category, 0, len(r.s.data.categories))
	for _, c := range r.s.data.categories {
		if needle != "" && !strings.Contains(strings.ToLower(c.Name), needle) {
			continue
		}
		found := c
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
