package dto

import (
	"time"

	apporder "github.com/xiebiao/bookshop/internal/application/order"
	"github.com/xiebiao/bookshop/internal/domain/order"
)

// CreateOrderRequest 下单请求
// 明细为空或数量<=0由订单引擎返回参数错误
type CreateOrderRequest struct {
	UserID          uint                     `json:"user_id" binding:"required" example:"1"`
	Items           []CreateOrderItemRequest `json:"items" binding:"dive"`
	ShippingAddress string                   `json:"shipping_address" binding:"max=255" example:"123 Main St, Anytown, USA"`
	BillingAddress  string                   `json:"billing_address" binding:"max=255" example:"123 Main St, Anytown, USA"`
	PaymentMethod   string                   `json:"payment_method" binding:"max=50" example:"Credit Card"`
}

// CreateOrderItemRequest 下单明细
type CreateOrderItemRequest struct {
	BookID   uint `json:"book_id" binding:"required" example:"1"`
	Quantity int  `json:"quantity" example:"2"`
}

// ToRequest 转换为引擎请求
func (r CreateOrderRequest) ToRequest() apporder.CreateOrderRequest {
	items := make([]apporder.CreateOrderItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = apporder.CreateOrderItem{BookID: it.BookID, Quantity: it.Quantity}
	}
	return apporder.CreateOrderRequest{
		UserID:          r.UserID,
		Items:           items,
		ShippingAddress: r.ShippingAddress,
		BillingAddress:  r.BillingAddress,
		PaymentMethod:   r.PaymentMethod,
	}
}

// AddOrderItemRequest 追加明细
type AddOrderItemRequest struct {
	BookID   uint `json:"book_id" binding:"required" example:"3"`
	Quantity int  `json:"quantity" example:"1"`
}

// UpdateOrderStatusRequest 修改订单状态
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required" example:"SHIPPED"`
}

// UpdateOrderShippingRequest 修改收货信息,不传的字段保持不变
type UpdateOrderShippingRequest struct {
	ShippingAddress *string `json:"shipping_address" binding:"omitempty,max=255"`
	TrackingNumber  *string `json:"tracking_number" binding:"omitempty,max=100" example:"TRK123456789"`
}

// ListOrdersQuery 订单查询条件
type ListOrdersQuery struct {
	UserID        *uint      `form:"user_id"`
	Status        string     `form:"status"`
	CreatedAfter  *time.Time `form:"created_after" time_format:"2006-01-02T15:04:05Z07:00"`
	CreatedBefore *time.Time `form:"created_before" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ToFilter status非法时返回ErrInvalidStatus
func (q ListOrdersQuery) ToFilter() (order.Filter, error) {
	filter := order.Filter{
		UserID:        q.UserID,
		CreatedAfter:  q.CreatedAfter,
		CreatedBefore: q.CreatedBefore,
	}
	if q.Status != "" {
		status, err := order.ParseStatus(q.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	return filter, nil
}

// OrderItemResponse 订单明细响应
type OrderItemResponse struct {
	ID       uint   `json:"id" example:"1"`
	BookID   uint   `json:"book_id" example:"1"`
	Quantity int    `json:"quantity" example:"2"`
	Price    string `json:"price" example:"19.99"`
	Subtotal string `json:"subtotal" example:"39.98"`
}

// OrderResponse 订单响应
type OrderResponse struct {
	ID              uint                `json:"id" example:"1"`
	OrderNo         string              `json:"order_no" example:"ORD20240115103000A1B2C3D4"`
	UserID          uint                `json:"user_id" example:"1"`
	Status          string              `json:"status" example:"PENDING"`
	TotalAmount     string              `json:"total_amount" example:"39.98"`
	Items           []OrderItemResponse `json:"items"`
	ShippingAddress string              `json:"shipping_address"`
	BillingAddress  string              `json:"billing_address"`
	PaymentMethod   string              `json:"payment_method" example:"Credit Card"`
	TrackingNumber  *string             `json:"tracking_number"`
	CreatedAt       string              `json:"created_at" example:"2024-01-15 10:30:00"`
	UpdatedAt       string              `json:"updated_at" example:"2024-01-15 10:30:00"`
}

// NewOrderResponse nil返回nil
func NewOrderResponse(o *order.Order) *OrderResponse {
	if o == nil {
		return nil
	}
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:       it.ID,
			BookID:   it.BookID,
			Quantity: it.Quantity,
			Price:    it.Price.StringFixed(2),
			Subtotal: it.Subtotal().StringFixed(2),
		}
	}
	return &OrderResponse{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		UserID:          o.UserID,
		Status:          o.Status.String(),
		TotalAmount:     o.TotalAmount.StringFixed(2),
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		PaymentMethod:   o.PaymentMethod,
		TrackingNumber:  o.TrackingNumber,
		CreatedAt:       FormatTime(o.CreatedAt),
		UpdatedAt:       FormatTime(o.UpdatedAt),
	}
}

// NewOrderList 订单列表
func NewOrderList(orders []*order.Order) []*OrderResponse {
	list := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		list[i] = NewOrderResponse(o)
	}
	return list
}
