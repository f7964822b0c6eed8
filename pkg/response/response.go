// Package response 统一的JSON响应结构
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/logger"
)

// Response 统一响应结构
// 1. Code是业务错误码,0表示成功
// 2. Message是给用户看的提示
// 3. Data是业务数据,查询不到时为null
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功(201)
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应,HTTP状态码由错误码决定
// 内部错误的原因只写日志,不返回给客户端
//
//	u, err := userService.CreateUser(ctx, params)
//	if err != nil {
//	    response.Error(c, err)
//	    return
//	}
func Error(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	status := apperrors.HTTPStatus(appErr.Code)

	if status >= http.StatusInternalServerError {
		entry := logger.FromContext(c.Request.Context(), logrus.StandardLogger()).WithField("code", appErr.Code)
		if appErr.Err != nil {
			entry = entry.WithError(appErr.Err)
		}
		entry.Error(appErr.Message)
	}

	c.JSON(status, Response{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

// ErrorWithCode 自定义错误码和消息
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.JSON(apperrors.HTTPStatus(code), Response{
		Code:    code,
		Message: message,
	})
}

// AbortWithCode 中间件中使用,终止后续Handler
func AbortWithCode(c *gin.Context, code int, message string) {
	ErrorWithCode(c, code, message)
	c.Abort()
}
