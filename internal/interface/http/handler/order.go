package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/bookshop/internal/application/order"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/pkg/response"
)

// OrderHandler 订单HTTP处理器
// 所有写操作都交给订单引擎,在一个事务里完成库存和金额的联动
type OrderHandler struct {
	engine *apporder.Engine
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(engine *apporder.Engine) *OrderHandler {
	return &OrderHandler{engine: engine}
}

// ListOrders 订单列表
// @Summary      订单列表
// @Tags         订单
// @Produce      json
// @Param        user_id        query int    false "用户ID"
// @Param        status         query string false "订单状态" Enums(PENDING, PROCESSING, SHIPPED, DELIVERED, CANCELLED, REFUNDED)
// @Param        created_after  query string false "创建时间下限(RFC3339)"
// @Param        created_before query string false "创建时间上限(RFC3339)"
// @Success      200 {object} response.Response{data=[]dto.OrderResponse}
// @Router       /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var query dto.ListOrdersQuery
	if !bindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		response.Error(c, err)
		return
	}

	orders, err := h.engine.ListOrders(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderList(orders))
}

// CreateOrder 下单
// @Summary      下单
// @Description  锁定图书行、校验库存、快照价格、扣减库存,全部在一个事务中完成
// @Tags         订单
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateOrderRequest true "订单信息"
// @Success      201 {object} response.Response{data=dto.OrderResponse}
// @Failure      400 {object} response.Response "参数错误或库存不足"
// @Failure      404 {object} response.Response "用户或图书不存在"
// @Router       /api/v1/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.engine.CreateOrder(c.Request.Context(), req.ToRequest())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewOrderResponse(created))
}

// GetOrder 订单详情
// @Summary      订单详情
// @Tags         订单
// @Produce      json
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Router       /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	found, err := h.engine.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(found))
}

// UpdateOrderStatus 修改订单状态(不影响库存)
// @Summary      修改订单状态
// @Tags         订单
// @Accept       json
// @Produce      json
// @Param        id path int true "订单ID"
// @Param        request body dto.UpdateOrderStatusRequest true "新状态"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      400 {object} response.Response "未知状态"
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{id}/status [patch]
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.engine.UpdateOrderStatus(c.Request.Context(), id, order.Status(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(updated))
}

// UpdateOrderShipping 修改收货地址/物流单号
// @Summary      修改收货信息
// @Tags         订单
// @Accept       json
// @Produce      json
// @Param        id path int true "订单ID"
// @Param        request body dto.UpdateOrderShippingRequest true "收货信息"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{id}/shipping [patch]
func (h *OrderHandler) UpdateOrderShipping(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderShippingRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.engine.UpdateOrderShipping(c.Request.Context(), id, req.ShippingAddress, req.TrackingNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(updated))
}

// AddOrderItem 追加明细
// @Summary      追加订单明细
// @Description  同一本书合并到已有明细(保留原快照价格),否则按当前价格新增
// @Tags         订单
// @Accept       json
// @Produce      json
// @Param        id path int true "订单ID"
// @Param        request body dto.AddOrderItemRequest true "明细"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      400 {object} response.Response "数量非法、库存不足或订单已取消"
// @Failure      404 {object} response.Response "订单或图书不存在"
// @Router       /api/v1/orders/{id}/items [post]
func (h *OrderHandler) AddOrderItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddOrderItemRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.engine.AddOrderItem(c.Request.Context(), id, req.BookID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(updated))
}

// RemoveOrderItem 移除明细并回补库存
// @Summary      移除订单明细
// @Tags         订单
// @Produce      json
// @Param        id     path int true "订单ID"
// @Param        itemId path int true "明细ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      400 {object} response.Response "明细不属于该订单"
// @Failure      404 {object} response.Response "订单或明细不存在"
// @Router       /api/v1/orders/{id}/items/{itemId} [delete]
func (h *OrderHandler) RemoveOrderItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}

	updated, err := h.engine.RemoveOrderItem(c.Request.Context(), id, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(updated))
}

// CancelOrder 取消订单并回补库存
// @Summary      取消订单
// @Tags         订单
// @Produce      json
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      400 {object} response.Response "已发货/已送达/已取消"
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	cancelled, err := h.engine.CancelOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(cancelled))
}

// DeleteOrder 删除订单(不回补库存)
// @Summary      删除订单
// @Tags         订单
// @Produce      json
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.DeletedResponse}
// @Router       /api/v1/orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.engine.DeleteOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.DeletedResponse{Deleted: deleted})
}
