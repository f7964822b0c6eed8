package mysql

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookshop/internal/domain/book"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// bookRepository 图书仓储实现
// 负责实体与模型转换,把唯一索引冲突翻译成ErrISBNDuplicate
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.Wrap(err, "创建图书失败")
	}

	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	return r.first(getDB(ctx, r.db), "id = ?", id)
}

func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	return r.first(getDB(ctx, r.db), "isbn = ?", isbn)
}

func (r *bookRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	var count int64
	if err := getDB(ctx, r.db).Model(&BookModel{}).Where("isbn = ?", isbn).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(err, "查询图书失败")
	}
	return count > 0, nil
}

// LockByID 悲观锁查询(SELECT ... FOR UPDATE),必须在事务中调用
func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	db := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.first(db, "id = ?", id)
}

// Update 保存除库存以外的全部字段
// 库存只能经UpdateStock修改
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	db := getDB(ctx, r.db)
	model := toBookModel(b)
	model.UpdatedAt = db.NowFunc()
	result := db.Model(&BookModel{ID: b.ID}).
		Select("title", "author", "description", "isbn", "price", "category_id",
			"publisher", "publication_year", "language", "page_count", "updated_at").
		Updates(model)
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return book.ErrISBNDuplicate
		}
		return apperrors.Wrap(result.Error, "更新图书失败")
	}
	if result.RowsAffected == 0 {
		return book.ErrBookNotFound
	}

	b.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := getDB(ctx, r.db).Delete(&BookModel{}, id)
	if result.Error != nil {
		return false, apperrors.Wrap(result.Error, "删除图书失败")
	}
	return result.RowsAffected > 0, nil
}

// DeleteByCategoryID 先查出ID再删除,调用方用ID清理缓存
func (r *bookRepository) DeleteByCategoryID(ctx context.Context, categoryID uint) ([]uint, error) {
	db := getDB(ctx, r.db)

	var ids []uint
	if err := db.Model(&BookModel{}).Where("category_id = ?", categoryID).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询分类图书失败")
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if err := db.Where("id IN ?", ids).Delete(&BookModel{}).Error; err != nil {
		return nil, apperrors.Wrap(err, "删除分类图书失败")
	}
	return ids, nil
}

func (r *bookRepository) List(ctx context.Context, filter book.Filter) ([]*book.Book, error) {
	query := getDB(ctx, r.db).Model(&BookModel{})

	if filter.TitleContains != "" {
		query = query.Where("LOWER(title) LIKE ?", likePattern(filter.TitleContains))
	}
	if filter.AuthorContains != "" {
		query = query.Where("LOWER(author) LIKE ?", likePattern(filter.AuthorContains))
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.PublicationYear != nil {
		query = query.Where("publication_year = ?", *filter.PublicationYear)
	}

	var models []BookModel
	if err := query.Order("id").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询图书列表失败")
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, nil
}

// UpdateStock 原子调整库存
// UPDATE books SET stock = stock + ? WHERE id = ? AND stock + ? >= 0
func (r *bookRepository) UpdateStock(ctx context.Context, id uint, delta int) error {
	db := getDB(ctx, r.db)
	result := db.Model(&BookModel{}).
		Where("id = ?", id).
		Where("stock + ? >= 0", delta).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", delta),
			"updated_at": db.NowFunc(),
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新库存失败")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// 没有更新到行: 图书不存在或库存不足,再查一次区分
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return book.ErrInsufficientStock
}

func (r *bookRepository) first(db *gorm.DB, query string, args ...interface{}) (*book.Book, error) {
	var model BookModel
	if err := db.Where(query, args...).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// =========================================
// 模型转换
// =========================================

func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Description:     b.Description,
		ISBN:            b.ISBN,
		Price:           b.Price,
		Stock:           b.Stock,
		CategoryID:      b.CategoryID,
		Publisher:       b.Publisher,
		PublicationYear: b.PublicationYear,
		Language:        b.Language,
		PageCount:       b.PageCount,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toBookEntity(m *BookModel) *book.Book {
	return &book.Book{
		ID:              m.ID,
		Title:           m.Title,
		Author:          m.Author,
		Description:     m.Description,
		ISBN:            m.ISBN,
		Price:           m.Price,
		Stock:           m.Stock,
		CategoryID:      m.CategoryID,
		Publisher:       m.Publisher,
		PublicationYear: m.PublicationYear,
		Language:        m.Language,
		PageCount:       m.PageCount,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// likePattern 大小写不敏感的包含匹配,转义LIKE通配符
func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
