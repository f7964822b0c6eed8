package book

import (
	"context"
)

// Repository 图书仓储接口
// 由domain层定义,infrastructure层实现;所有方法都会从ctx中取事务
type Repository interface {
	// Create 创建图书,ISBN冲突返回ErrISBNDuplicate
	Create(ctx context.Context, book *Book) error

	// FindByID 不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByISBN 不存在返回ErrBookNotFound
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// ExistsByISBN ISBN是否已被占用
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)

	// Update 保存图书信息(不含库存)
	Update(ctx context.Context, book *Book) error

	// Delete 删除图书,返回是否删除了记录
	Delete(ctx context.Context, id uint) (bool, error)

	// DeleteByCategoryID 删除分类下的全部图书,返回被删除的图书ID
	DeleteByCategoryID(ctx context.Context, categoryID uint) ([]uint, error)

	// List 按条件查询,按ID升序
	List(ctx context.Context, filter Filter) ([]*Book, error)

	// LockByID 悲观锁查询(SELECT FOR UPDATE),在事务中调用
	LockByID(ctx context.Context, id uint) (*Book, error)

	// UpdateStock 原子调整库存,delta可正可负
	// 调整后库存为负时返回ErrInsufficientStock,图书不存在返回ErrBookNotFound
	UpdateStock(ctx context.Context, id uint, delta int) error
}

// Filter 图书查询条件,零值字段不参与过滤
// TitleContains/AuthorContains 大小写不敏感
type Filter struct {
	TitleContains   string
	AuthorContains  string
	CategoryID      *uint
	PublicationYear *int
}

// Cache 图书详情缓存(旁路缓存)
// 实现方自行记录缓存错误,缓存不可用时退化为直接查库
type Cache interface {
	Get(ctx context.Context, id uint) *Book
	Set(ctx context.Context, book *Book)
	Invalidate(ctx context.Context, ids ...uint)
}

// CategoryChecker 校验分类是否存在
// category.Repository满足该接口
type CategoryChecker interface {
	ExistsByID(ctx context.Context, id uint) (bool, error)
}
