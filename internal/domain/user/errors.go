package user

import (
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = apperrors.New(apperrors.ErrCodeNotFound, "用户不存在")

	// ErrEmailDuplicate 邮箱已被注册
	ErrEmailDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "邮箱已被注册")

	// ErrInvalidEmail 邮箱格式不正确
	ErrInvalidEmail = apperrors.New(apperrors.ErrCodeInvalidParams, "邮箱格式不正确")

	// ErrEmptyName 姓名不能为空
	ErrEmptyName = apperrors.New(apperrors.ErrCodeInvalidParams, "姓名不能为空")

	// ErrEmptyPassword 密码不能为空
	ErrEmptyPassword = apperrors.New(apperrors.ErrCodeInvalidParams, "密码不能为空")
)
