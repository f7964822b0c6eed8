package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/domain/user"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// userRepository 用户仓储实现
// 邮箱唯一性由UNIQUE索引兜底,冲突翻译成ErrEmailDuplicate
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	model := toUserModel(u)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return user.ErrEmailDuplicate
		}
		return apperrors.Wrap(err, "创建用户失败")
	}

	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, "id = ?", id)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	db := getDB(ctx, r.db)
	model := toUserModel(u)
	model.UpdatedAt = db.NowFunc()
	result := db.Model(&UserModel{ID: u.ID}).
		Select("name", "email", "password", "address", "phone", "updated_at").
		Updates(model)
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return user.ErrEmailDuplicate
		}
		return apperrors.Wrap(result.Error, "更新用户失败")
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}

	u.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := getDB(ctx, r.db).Delete(&UserModel{}, id)
	if result.Error != nil {
		return false, apperrors.Wrap(result.Error, "删除用户失败")
	}
	return result.RowsAffected > 0, nil
}

func (r *userRepository) List(ctx context.Context) ([]*user.User, error) {
	var models []UserModel
	if err := getDB(ctx, r.db).Order("id").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询用户列表失败")
	}

	users := make([]*user.User, len(models))
	for i := range models {
		users[i] = toUserEntity(&models[i])
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := getDB(ctx, r.db).Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(err, "统计用户失败")
	}
	return count, nil
}

func (r *userRepository) first(ctx context.Context, query string, args ...interface{}) (*user.User, error) {
	var model UserModel
	if err := getDB(ctx, r.db).Where(query, args...).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "查询用户失败")
	}
	return toUserEntity(&model), nil
}

func (r *userRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := getDB(ctx, r.db).Model(&UserModel{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(err, "查询用户失败")
	}
	return count > 0, nil
}

func toUserModel(u *user.User) *UserModel {
	return &UserModel{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.Password,
		Address:   u.Address,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserEntity(m *UserModel) *user.User {
	return &user.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Password:  m.Password,
		Address:   m.Address,
		Phone:     m.Phone,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
