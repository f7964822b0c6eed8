package user

import (
	"context"
)

// Repository 用户仓储接口
type Repository interface {
	// Create 邮箱冲突返回ErrEmailDuplicate
	Create(ctx context.Context, user *User) error

	// FindByID 不存在返回ErrUserNotFound
	FindByID(ctx context.Context, id uint) (*User, error)

	// FindByEmail 不存在返回ErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*User, error)

	ExistsByID(ctx context.Context, id uint) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	Update(ctx context.Context, user *User) error

	// Delete 返回是否删除了记录
	Delete(ctx context.Context, id uint) (bool, error)

	// List 全部用户,按ID升序
	List(ctx context.Context) ([]*User, error)

	// Count 用户总数(初始化数据时判断是否为空库)
	Count(ctx context.Context) (int64, error)
}

// OrderRemover 删除用户的全部订单
// order.Repository满足该接口
type OrderRemover interface {
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)
}
