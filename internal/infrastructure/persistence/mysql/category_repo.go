package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/domain/category"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) category.Repository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, c *category.Category) error {
	model := &CategoryModel{Name: c.Name, Description: c.Description}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return category.ErrNameDuplicate
		}
		return apperrors.Wrap(err, "创建分类失败")
	}

	c.ID = model.ID
	c.CreatedAt = model.CreatedAt
	c.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*category.Category, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*category.Category, error) {
	return r.first(ctx, "name = ?", name)
}

func (r *categoryRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, "id = ?", id)
}

func (r *categoryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, "name = ?", name)
}

func (r *categoryRepository) Update(ctx context.Context, c *category.Category) error {
	db := getDB(ctx, r.db)
	now := db.NowFunc()
	result := db.Model(&CategoryModel{ID: c.ID}).
		Select("name", "description", "updated_at").
		Updates(&CategoryModel{Name: c.Name, Description: c.Description, UpdatedAt: now})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return category.ErrNameDuplicate
		}
		return apperrors.Wrap(result.Error, "更新分类失败")
	}
	if result.RowsAffected == 0 {
		return category.ErrCategoryNotFound
	}

	c.UpdatedAt = now
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := getDB(ctx, r.db).Delete(&CategoryModel{}, id)
	if result.Error != nil {
		return false, apperrors.Wrap(result.Error, "删除分类失败")
	}
	return result.RowsAffected > 0, nil
}

func (r *categoryRepository) List(ctx context.Context, nameContains string) ([]*category.Category, error) {
	query := getDB(ctx, r.db).Model(&CategoryModel{})
	if nameContains != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(nameContains))
	}

	var models []CategoryModel
	if err := query.Order("id").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询分类列表失败")
	}

	categories := make([]*category.Category, len(models))
	for i := range models {
		categories[i] = toCategoryEntity(&models[i])
	}
	return categories, nil
}

func (r *categoryRepository) first(ctx context.Context, query string, args ...interface{}) (*category.Category, error) {
	var model CategoryModel
	if err := getDB(ctx, r.db).Where(query, args...).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, category.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(err, "查询分类失败")
	}
	return toCategoryEntity(&model), nil
}

func (r *categoryRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := getDB(ctx, r.db).Model(&CategoryModel{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(err, "查询分类失败")
	}
	return count > 0, nil
}

func toCategoryEntity(m *CategoryModel) *category.Category {
	return &category.Category{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
