package book

import (
	"context"
	"errors"

	"github.com/xiebiao/bookshop/internal/domain/transaction"
)

// Service 图书领域服务(目录管理)
type Service interface {
	// CreateBook 创建图书
	// - ISBN不能重复(DuplicateKey)
	// - 价格、库存不能为负
	// - 指定了分类时分类必须存在
	CreateBook(ctx context.Context, params CreateParams) (*Book, error)

	// UpdateBook 部分更新,ISBN改成其他图书已占用的值时返回ErrISBNDuplicate
	UpdateBook(ctx context.Context, id uint, patch Patch) (*Book, error)

	// DeleteBook 删除图书,不存在返回false
	DeleteBook(ctx context.Context, id uint) (bool, error)

	// AdjustStock 调整库存,唯一的库存修改入口
	// delta为正表示补货/退回,为负表示预占;调整后为负返回参数错误
	AdjustStock(ctx context.Context, id uint, delta int) (*Book, error)

	// GetBook 查询图书,不存在返回nil
	GetBook(ctx context.Context, id uint) (*Book, error)

	// GetBookByISBN 按ISBN查询,不存在返回nil
	GetBookByISBN(ctx context.Context, isbn string) (*Book, error)

	// ListBooks 条件查询
	ListBooks(ctx context.Context, filter Filter) ([]*Book, error)

	// DeleteBooksByCategory 删除分类下的全部图书(分类级联删除使用)
	DeleteBooksByCategory(ctx context.Context, categoryID uint) (int64, error)
}

type service struct {
	repo       Repository
	categories CategoryChecker
	txManager  transaction.Manager
	cache      Cache
}

// NewService 创建图书领域服务,cache可以为nil
func NewService(repo Repository, categories CategoryChecker, txManager transaction.Manager, cache Cache) Service {
	return &service{
		repo:       repo,
		categories: categories,
		txManager:  txManager,
		cache:      cache,
	}
}

// CreateBook 创建图书
func (s *service) CreateBook(ctx context.Context, params CreateParams) (*Book, error) {
	// 1. 构造实体并校验字段
	b, err := NewBook(params)
	if err != nil {
		return nil, err
	}

	// 2. 分类存在性
	if err := s.checkCategory(ctx, b.CategoryID); err != nil {
		return nil, err
	}

	// 3. ISBN唯一性(数据库唯一索引兜底并发情况)
	exists, err := s.repo.ExistsByISBN(ctx, b.ISBN)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrISBNDuplicate
	}

	// 4. 持久化
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBook 部分更新
func (s *service) UpdateBook(ctx context.Context, id uint, patch Patch) (*Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// ISBN变化时检查是否与其他图书冲突
	if patch.ISBN != nil && *patch.ISBN != b.ISBN {
		other, err := s.repo.FindByISBN(ctx, *patch.ISBN)
		switch {
		case err == nil && other.ID != b.ID:
			return nil, ErrISBNDuplicate
		case err != nil && !errors.Is(err, ErrBookNotFound):
			return nil, err
		}
	}

	if patch.CategoryID.Set && !patch.CategoryID.Null {
		if err := s.checkCategory(ctx, patch.CategoryID.Ptr()); err != nil {
			return nil, err
		}
	}

	if err := b.ApplyPatch(patch); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.invalidate(ctx, b.ID)
	return b, nil
}

// DeleteBook 删除图书
func (s *service) DeleteBook(ctx context.Context, id uint) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidate(ctx, id)
	}
	return deleted, nil
}

// AdjustStock 调整库存
// 1. 锁定图书行(FOR UPDATE),同一本书的并发调整串行化
// 2. 检查调整后库存
// 3. 原子UPDATE(带 stock + delta >= 0 条件)
// 调用方已开启事务时加入调用方事务,订单引擎依赖这一点保证整体回滚
func (s *service) AdjustStock(ctx context.Context, id uint, delta int) (*Book, error) {
	var result *Book
	err := s.txManager.Transaction(ctx, func(txCtx context.Context) error {
		b, err := s.repo.LockByID(txCtx, id)
		if err != nil {
			return err
		}

		if b.Stock+delta < 0 {
			return ErrNegativeStock
		}

		if delta != 0 {
			if err := s.repo.UpdateStock(txCtx, id, delta); err != nil {
				return err
			}
		}

		b.Stock += delta
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return result, nil
}

// GetBook 查询图书详情(旁路缓存)
func (s *service) GetBook(ctx context.Context, id uint) (*Book, error) {
	if s.cache != nil {
		if b := s.cache.Get(ctx, id); b != nil {
			return b, nil
		}
	}

	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, b)
	}
	return b, nil
}

// GetBookByISBN 按ISBN查询
func (s *service) GetBookByISBN(ctx context.Context, isbn string) (*Book, error) {
	b, err := s.repo.FindByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// ListBooks 条件查询
func (s *service) ListBooks(ctx context.Context, filter Filter) ([]*Book, error) {
	return s.repo.List(ctx, filter)
}

// DeleteBooksByCategory 删除分类下的全部图书
func (s *service) DeleteBooksByCategory(ctx context.Context, categoryID uint) (int64, error) {
	ids, err := s.repo.DeleteByCategoryID(ctx, categoryID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, ids...)
	return int64(len(ids)), nil
}

func (s *service) checkCategory(ctx context.Context, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	exists, err := s.categories.ExistsByID(ctx, *categoryID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrCategoryNotFound
	}
	return nil
}

// invalidate 外层事务提交后才淘汰缓存,不在事务中时立即淘汰
func (s *service) invalidate(ctx context.Context, ids ...uint) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	transaction.AfterCommit(ctx, func() {
		s.cache.Invalidate(context.WithoutCancel(ctx), ids...)
	})
}
