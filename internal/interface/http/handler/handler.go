// Package handler Gin HTTP处理器
//
// Handler只负责HTTP相关的事情: 解析请求、调用领域服务或订单引擎、转换响应。
// 业务规则都在domain和application层。
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/response"
)

// bindJSON 绑定失败时直接写出400响应
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return false
	}
	return true
}

// pathID 解析路径中的正整数ID
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "无效的ID: "+c.Param(name))
		return 0, false
	}
	return uint(id), true
}
