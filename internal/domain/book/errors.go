package book

import (
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeNotFound, "图书不存在")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "ISBN号已存在")

	// ErrCategoryNotFound 关联的分类不存在
	ErrCategoryNotFound = apperrors.New(apperrors.ErrCodeNotFound, "分类不存在")

	// ErrInvalidPrice 价格为负、超出上限或超过两位小数
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格必须在0到99999999.99之间,最多两位小数")

	// ErrInvalidStock 初始库存不能为负
	ErrInvalidStock = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")

	// ErrNegativeStock 调整后库存为负
	ErrNegativeStock = apperrors.New(apperrors.ErrCodeInvalidParams, "库存调整后不能为负数")

	// ErrInsufficientStock 库存不足(原子扣减失败)
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")

	// ErrInvalidISBN ISBN不能为空
	ErrInvalidISBN = apperrors.New(apperrors.ErrCodeInvalidParams, "ISBN不能为空")

	// ErrMissingFields 书名和作者必填
	ErrMissingFields = apperrors.New(apperrors.ErrCodeInvalidParams, "书名和作者不能为空")

	// ErrInvalidPageCount 页数不能为负
	ErrInvalidPageCount = apperrors.New(apperrors.ErrCodeInvalidParams, "页数不能为负数")
)
