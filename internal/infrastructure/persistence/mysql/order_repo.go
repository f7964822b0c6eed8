package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookshop/internal/domain/order"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// orderRepository 订单仓储实现
// 1. Order和OrderItem是一个聚合,Create时一起保存
// 2. 查询用Preload加载明细,避免N+1
// 3. 事务通过context传递
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单,GORM会通过外键一并插入Items
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建订单失败")
	}

	o.ID = model.ID
	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt
	for i := range o.Items {
		o.Items[i].ID = model.Items[i].ID
		o.Items[i].OrderID = model.ID
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.first(getDB(ctx, r.db), id)
}

// LockByID 锁定订单行(SELECT ... FOR UPDATE),明细随后单独加载
func (r *orderRepository) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.first(getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// Update 只更新订单头,明细通过SaveItem/DeleteItem维护
func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	db := getDB(ctx, r.db)
	model := toOrderModel(o)
	model.Items = nil
	model.UpdatedAt = db.NowFunc()

	result := db.Model(&OrderModel{ID: o.ID}).
		Select("status", "total_amount", "shipping_address", "billing_address",
			"payment_method", "tracking_number", "updated_at").
		Updates(model)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新订单失败")
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}

	o.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 先删明细再删订单
func (r *orderRepository) Delete(ctx context.Context, id uint) (bool, error) {
	db := getDB(ctx, r.db)
	if err := db.Where("order_id = ?", id).Delete(&OrderItemModel{}).Error; err != nil {
		return false, apperrors.Wrap(err, "删除订单明细失败")
	}

	result := db.Delete(&OrderModel{}, id)
	if result.Error != nil {
		return false, apperrors.Wrap(result.Error, "删除订单失败")
	}
	return result.RowsAffected > 0, nil
}

func (r *orderRepository) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	db := getDB(ctx, r.db)

	var ids []uint
	if err := db.Model(&OrderModel{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
		return 0, apperrors.Wrap(err, "查询用户订单失败")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := db.Where("order_id IN ?", ids).Delete(&OrderItemModel{}).Error; err != nil {
		return 0, apperrors.Wrap(err, "删除订单明细失败")
	}
	result := db.Where("id IN ?", ids).Delete(&OrderModel{})
	if result.Error != nil {
		return 0, apperrors.Wrap(result.Error, "删除用户订单失败")
	}
	return result.RowsAffected, nil
}

func (r *orderRepository) List(ctx context.Context, filter order.Filter) ([]*order.Order, error) {
	query := getDB(ctx, r.db).Model(&OrderModel{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}

	var models []OrderModel
	if err := query.Preload("Items", orderByID).Order("id").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询订单列表失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, nil
}

func (r *orderRepository) FindItemByID(ctx context.Context, itemID uint) (*order.OrderItem, error) {
	var model OrderItemModel
	if err := getDB(ctx, r.db).First(&model, itemID).Error; err != nil {
		if isNotFound(err) {
			return nil, order.ErrOrderItemNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单明细失败")
	}
	item := toOrderItemEntity(&model)
	return &item, nil
}

// SaveItem ID为0时新增明细,否则只更新数量
func (r *orderRepository) SaveItem(ctx context.Context, item *order.OrderItem) error {
	db := getDB(ctx, r.db)

	var count int64
	if err := db.Model(&OrderModel{}).Where("id = ?", item.OrderID).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, "查询订单失败")
	}
	if count == 0 {
		return order.ErrOrderNotFound
	}

	if item.ID == 0 {
		model := toOrderItemModel(item)
		if err := db.Create(&model).Error; err != nil {
			return apperrors.Wrap(err, "创建订单明细失败")
		}
		item.ID = model.ID
		return nil
	}

	if _, err := r.FindItemByID(ctx, item.ID); err != nil {
		return err
	}
	if err := db.Model(&OrderItemModel{ID: item.ID}).Update("quantity", item.Quantity).Error; err != nil {
		return apperrors.Wrap(err, "更新订单明细失败")
	}
	return nil
}

func (r *orderRepository) DeleteItem(ctx context.Context, itemID uint) error {
	result := getDB(ctx, r.db).Delete(&OrderItemModel{}, itemID)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除订单明细失败")
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderItemNotFound
	}
	return nil
}

func (r *orderRepository) first(db *gorm.DB, id uint) (*order.Order, error) {
	var model OrderModel
	if err := db.Preload("Items", orderByID).First(&model, id).Error; err != nil {
		if isNotFound(err) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// =========================================
// 模型转换
// =========================================

func toOrderModel(o *order.Order) *OrderModel {
	items := make([]OrderItemModel, len(o.Items))
	for i := range o.Items {
		items[i] = toOrderItemModel(&o.Items[i])
	}
	return &OrderModel{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		PaymentMethod:   o.PaymentMethod,
		TrackingNumber:  o.TrackingNumber,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderEntity(m *OrderModel) *order.Order {
	items := make([]order.OrderItem, len(m.Items))
	for i := range m.Items {
		items[i] = toOrderItemEntity(&m.Items[i])
	}
	return &order.Order{
		ID:              m.ID,
		OrderNo:         m.OrderNo,
		UserID:          m.UserID,
		Status:          order.Status(m.Status),
		TotalAmount:     m.TotalAmount,
		Items:           items,
		ShippingAddress: m.ShippingAddress,
		BillingAddress:  m.BillingAddress,
		PaymentMethod:   m.PaymentMethod,
		TrackingNumber:  m.TrackingNumber,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toOrderItemModel(item *order.OrderItem) OrderItemModel {
	return OrderItemModel{
		ID:       item.ID,
		OrderID:  item.OrderID,
		BookID:   item.BookID,
		Quantity: item.Quantity,
		Price:    item.Price,
	}
}

func toOrderItemEntity(m *OrderItemModel) order.OrderItem {
	return order.OrderItem{
		ID:       m.ID,
		OrderID:  m.OrderID,
		BookID:   m.BookID,
		Quantity: m.Quantity,
		Price:    m.Price,
	}
}
