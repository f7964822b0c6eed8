package order

import (
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeNotFound, "订单不存在")

	// ErrOrderItemNotFound 订单明细不存在
	ErrOrderItemNotFound = apperrors.New(apperrors.ErrCodeNotFound, "订单明细不存在")

	// ErrItemNotInOrder 明细不属于该订单
	ErrItemNotInOrder = apperrors.New(apperrors.ErrCodeInvalidParams, "订单明细不属于该订单")

	// ErrInvalidOrderItems 订单明细为空
	ErrInvalidOrderItems = apperrors.New(apperrors.ErrCodeInvalidParams, "订单明细不能为空")

	// ErrInvalidQuantity 购买数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "购买数量必须大于0")

	// ErrInvalidStatus 未知的订单状态
	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeInvalidParams, "未知的订单状态")

	// ErrCannotCancel 已发货或已送达的订单不能取消
	ErrCannotCancel = apperrors.New(apperrors.ErrCodeInvalidParams, "已发货或已送达的订单不能取消")

	// ErrAlreadyCancelled 订单已取消
	ErrAlreadyCancelled = apperrors.New(apperrors.ErrCodeInvalidParams, "订单已取消,不能重复取消")

	// ErrOrderCancelled 已取消的订单不能再修改明细
	ErrOrderCancelled = apperrors.New(apperrors.ErrCodeInvalidParams, "订单已取消,不能修改明细")
)
