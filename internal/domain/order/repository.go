package order

import (
	"context"
	"time"
)

// Repository 订单仓储接口
// 订单与明细是一个聚合,Create会连同Items一起保存;
// 明细的单独增删改通过SaveItem/DeleteItem完成。
type Repository interface {
	// Create 创建订单(含明细),回填ID
	Create(ctx context.Context, o *Order) error

	// FindByID 查询订单(含明细),不存在返回ErrOrderNotFound
	FindByID(ctx context.Context, id uint) (*Order, error)

	// LockByID 悲观锁查询订单(SELECT FOR UPDATE),必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Order, error)

	// Update 更新订单头信息(状态、金额、地址、物流单号)
	Update(ctx context.Context, o *Order) error

	// Delete 删除订单及其明细,返回是否删除了记录
	Delete(ctx context.Context, id uint) (bool, error)

	// DeleteByUserID 删除用户的全部订单及明细,返回删除的订单数
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)

	// List 按条件查询订单(含明细),按ID升序
	List(ctx context.Context, filter Filter) ([]*Order, error)

	// FindItemByID 查询单条明细,不存在返回ErrOrderItemNotFound
	FindItemByID(ctx context.Context, itemID uint) (*OrderItem, error)

	// SaveItem 新增(ID为0)或更新明细数量
	SaveItem(ctx context.Context, item *OrderItem) error

	// DeleteItem 删除明细
	DeleteItem(ctx context.Context, itemID uint) error
}

// Filter 订单查询条件,零值字段不参与过滤
// CreatedAfter/CreatedBefore是开区间,不含边界时刻
type Filter struct {
	UserID        *uint
	Status        *Status
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
