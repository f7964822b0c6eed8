package category

import (
	"context"
)

// Repository 分类仓储接口
type Repository interface {
	Create(ctx context.Context, c *Category) error

	// FindByID 不存在返回ErrCategoryNotFound
	FindByID(ctx context.Context, id uint) (*Category, error)

	// FindByName 精确匹配,不存在返回ErrCategoryNotFound
	FindByName(ctx context.Context, name string) (*Category, error)

	ExistsByID(ctx context.Context, id uint) (bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)

	Update(ctx context.Context, c *Category) error

	// Delete 返回是否删除了记录
	Delete(ctx context.Context, id uint) (bool, error)

	// List nameContains为空时返回全部,否则大小写不敏感模糊匹配
	List(ctx context.Context, nameContains string) ([]*Category, error)
}

// BookRemover 删除分类下的图书
// book.Service满足该接口(同时负责清理图书缓存)
type BookRemover interface {
	DeleteBooksByCategory(ctx context.Context, categoryID uint) (int64, error)
}
