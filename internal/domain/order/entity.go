package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status 订单状态
// 正常流转: PENDING → PROCESSING → SHIPPED → DELIVERED
// CANCELLED 可以从 SHIPPED/DELIVERED 以外的状态进入(且不能重复取消)
// REFUNDED 只能通过显式设置状态进入
type Status string

const (
	StatusPending    Status = "PENDING"    // 待处理
	StatusProcessing Status = "PROCESSING" // 处理中
	StatusShipped    Status = "SHIPPED"    // 已发货
	StatusDelivered  Status = "DELIVERED"  // 已送达
	StatusCancelled  Status = "CANCELLED"  // 已取消
	StatusRefunded   Status = "REFUNDED"   // 已退款
)

// AllStatuses 全部状态,按流转顺序
var AllStatuses = []Status{
	StatusPending, StatusProcessing, StatusShipped,
	StatusDelivered, StatusCancelled, StatusRefunded,
}

// IsValid 是否为已定义的状态
func (s Status) IsValid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// ParseStatus 解析状态字符串
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) String() string {
	return string(s)
}

// Order 订单聚合根
// TotalAmount 始终等于 Σ item.Price × item.Quantity,任何明细变化后都要调用RecalculateTotal
type Order struct {
	ID              uint
	OrderNo         string
	UserID          uint
	Status          Status
	TotalAmount     decimal.Decimal
	Items           []OrderItem
	ShippingAddress string
	BillingAddress  string
	PaymentMethod   string
	TrackingNumber  *string // 发货前为空
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem 订单明细
// Price 是加入订单时图书价格的快照,之后图书改价不影响历史订单
type OrderItem struct {
	ID       uint
	OrderID  uint
	BookID   uint
	Quantity int
	Price    decimal.Decimal
}

// Subtotal 明细小计
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrder 创建待处理订单,并计算总金额
func NewOrder(orderNo string, userID uint, items []OrderItem, shippingAddress, billingAddress, paymentMethod string) *Order {
	now := time.Now()
	o := &Order{
		OrderNo:         orderNo,
		UserID:          userID,
		Status:          StatusPending,
		Items:           items,
		ShippingAddress: shippingAddress,
		BillingAddress:  billingAddress,
		PaymentMethod:   paymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	o.RecalculateTotal()
	return o
}

// CalculateTotal 根据明细计算总金额
func (o *Order) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// RecalculateTotal 从头重新计算总金额
func (o *Order) RecalculateTotal() {
	o.TotalAmount = o.CalculateTotal()
	o.UpdatedAt = time.Now()
}

// ItemForBook 查找同一本书的明细,返回下标,不存在返回-1
func (o *Order) ItemForBook(bookID uint) int {
	for i := range o.Items {
		if o.Items[i].BookID == bookID {
			return i
		}
	}
	return -1
}

// RemoveItem 从聚合中移除明细
func (o *Order) RemoveItem(itemID uint) bool {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			return true
		}
	}
	return false
}

// CanCancel 检查是否允许取消
// 已发货/已送达不能取消;已取消的订单再次取消会重复回补库存,同样拒绝
func (o *Order) CanCancel() error {
	switch o.Status {
	case StatusShipped, StatusDelivered:
		return ErrCannotCancel
	case StatusCancelled:
		return ErrAlreadyCancelled
	}
	return nil
}

// Cancel 取消订单(不处理库存,库存回补由订单引擎负责)
func (o *Order) Cancel() error {
	if err := o.CanCancel(); err != nil {
		return err
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}

// CanModifyItems 已取消订单的库存已经全部回补,不允许再增删明细
func (o *Order) CanModifyItems() error {
	if o.Status == StatusCancelled {
		return ErrOrderCancelled
	}
	return nil
}

// SetStatus 直接设置状态,不校验流转顺序
func (o *Order) SetStatus(s Status) error {
	if !s.IsValid() {
		return ErrInvalidStatus
	}
	o.Status = s
	o.UpdatedAt = time.Now()
	return nil
}

// UpdateShipping 只覆盖传入的非空字段
func (o *Order) UpdateShipping(shippingAddress, trackingNumber *string) {
	if shippingAddress != nil {
		o.ShippingAddress = *shippingAddress
	}
	if trackingNumber != nil {
		tn := *trackingNumber
		o.TrackingNumber = &tn
	}
	o.UpdatedAt = time.Now()
}
