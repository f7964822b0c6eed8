package category

import (
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

var (
	// ErrCategoryNotFound 分类不存在
	ErrCategoryNotFound = apperrors.New(apperrors.ErrCodeNotFound, "分类不存在")

	// ErrNameDuplicate 分类名已存在
	ErrNameDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "分类名已存在")

	// ErrEmptyName 分类名不能为空
	ErrEmptyName = apperrors.New(apperrors.ErrCodeInvalidParams, "分类名不能为空")
)
