package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError 应用错误
// 1. Code供客户端区分错误类别(NotFound / DuplicateKey / InvalidArgument ...)
// 2. Message是可以直接展示给用户的提示
// 3. Err是底层原因,只写日志,不返回给客户端
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建AppError
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap 把底层错误包装为内部错误
func Wrap(err error, message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message, Err: err}
}

// =========================================
// 错误码
// =========================================
// 4xxxx: 客户端错误, 5xxxx: 服务端错误

const (
	ErrCodeInternal = 50000 // 内部错误

	ErrCodeUnauthorized = 40100 // 未登录
	ErrCodeInvalidToken = 40101 // Token无效
	ErrCodeTokenExpired = 40102 // Token过期

	ErrCodeNotFound = 40400 // 资源不存在

	ErrCodeInsufficientStock = 40001 // 库存不足(参数错误的一种)
	ErrCodeDuplicateEntry    = 40009 // 唯一键冲突

	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
)

var (
	ErrUnauthorized = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired = New(ErrCodeTokenExpired, "Token已过期")
)

// =========================================
// 辅助函数
// =========================================

// GetAppError 提取AppError,不是AppError的统一包装为内部错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// CodeOf 返回错误码,非AppError返回ErrCodeInternal
func CodeOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsNotFound 资源不存在
func IsNotFound(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeNotFound
}

// IsDuplicateKey 唯一键冲突(ISBN/邮箱/分类名)
func IsDuplicateKey(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeDuplicateEntry
}

// IsInsufficientStock 库存不足
func IsInsufficientStock(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeInsufficientStock
}

// IsInvalidArgument 参数不合法,库存不足也属于这一类
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case ErrCodeInvalidParams, ErrCodeBindError, ErrCodeInsufficientStock:
		return true
	}
	return false
}

// HTTPStatus 错误码 → HTTP状态码
func HTTPStatus(code int) int {
	switch {
	case code == 0:
		return http.StatusOK
	case code == ErrCodeNotFound:
		return http.StatusNotFound
	case code == ErrCodeDuplicateEntry:
		return http.StatusConflict
	case code >= 40100 && code < 40200:
		return http.StatusUnauthorized
	case code >= 40000 && code < 50000:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
