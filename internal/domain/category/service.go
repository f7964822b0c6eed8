package category

import (
	"context"
	"errors"

	"github.com/xiebiao/bookshop/internal/domain/transaction"
)

// Service 分类领域服务
type Service interface {
	// CreateCategory 分类名重复返回ErrNameDuplicate
	CreateCategory(ctx context.Context, name, description string) (*Category, error)

	// UpdateCategory 部分更新,改名冲突返回ErrNameDuplicate
	UpdateCategory(ctx context.Context, id uint, patch Patch) (*Category, error)

	// DeleteCategory 先删分类下的图书,再删分类(同一事务);不存在返回false
	DeleteCategory(ctx context.Context, id uint) (bool, error)

	// GetCategory 不存在返回nil
	GetCategory(ctx context.Context, id uint) (*Category, error)

	// GetCategoryByName 精确匹配,不存在返回nil
	GetCategoryByName(ctx context.Context, name string) (*Category, error)

	// ListCategories nameContains为空返回全部
	ListCategories(ctx context.Context, nameContains string) ([]*Category, error)
}

type service struct {
	repo      Repository
	books     BookRemover
	txManager transaction.Manager
}

// NewService 创建分类领域服务
func NewService(repo Repository, books BookRemover, txManager transaction.Manager) Service {
	return &service{repo: repo, books: books, txManager: txManager}
}

func (s *service) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	c, err := NewCategory(name, description)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, c.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrNameDuplicate
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uint, patch Patch) (*Category, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && *patch.Name != c.Name {
		other, err := s.repo.FindByName(ctx, *patch.Name)
		switch {
		case err == nil && other.ID != c.ID:
			return nil, ErrNameDuplicate
		case err != nil && !errors.Is(err, ErrCategoryNotFound):
			return nil, err
		}
	}

	if err := c.ApplyPatch(patch); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory 两阶段删除: 图书 → 分类
func (s *service) DeleteCategory(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := s.txManager.Transaction(ctx, func(txCtx context.Context) error {
		exists, err := s.repo.ExistsByID(txCtx, id)
		if err != nil || !exists {
			return err
		}

		if _, err := s.books.DeleteBooksByCategory(txCtx, id); err != nil {
			return err
		}

		deleted, err = s.repo.Delete(txCtx, id)
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (s *service) GetCategory(ctx context.Context, id uint) (*Category, error) {
	return absentIfNotFound(s.repo.FindByID(ctx, id))
}

func (s *service) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	return absentIfNotFound(s.repo.FindByName(ctx, name))
}

func (s *service) ListCategories(ctx context.Context, nameContains string) ([]*Category, error) {
	return s.repo.List(ctx, nameContains)
}

func absentIfNotFound(c *Category, err error) (*Category, error) {
	if errors.Is(err, ErrCategoryNotFound) {
		return nil, nil
	}
	return c, err
}
