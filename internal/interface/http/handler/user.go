package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/bookshop/internal/application/order"
	appuser "github.com/xiebiao/bookshop/internal/application/user"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/response"
)

// UserHandler 用户HTTP处理器
type UserHandler struct {
	users   user.Service
	orders  *apporder.Engine
	login   *appuser.LoginUseCase
	logout  *appuser.LogoutUseCase
	refresh *appuser.RefreshUseCase
}

// NewUserHandler 创建用户处理器
func NewUserHandler(
	users user.Service,
	orders *apporder.Engine,
	login *appuser.LoginUseCase,
	logout *appuser.LogoutUseCase,
	refresh *appuser.RefreshUseCase,
) *UserHandler {
	return &UserHandler{users: users, orders: orders, login: login, logout: logout, refresh: refresh}
}

// ListUsers 用户列表
// @Summary      用户列表
// @Tags         用户
// @Produce      json
// @Success      200 {object} response.Response{data=[]dto.UserResponse}
// @Router       /api/v1/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewUserList(users))
}

// CreateUser 注册用户
// @Summary      注册用户
// @Tags         用户
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateUserRequest true "用户信息"
// @Success      201 {object} response.Response{data=dto.UserResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "邮箱已被注册"
// @Router       /api/v1/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.users.CreateUser(c.Request.Context(), req.ToParams())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewUserResponse(u))
}

// GetUser 用户详情,不存在时data为null
// @Summary      用户详情
// @Tags         用户
// @Produce      json
// @Param        id path int true "用户ID"
// @Success      200 {object} response.Response{data=dto.UserResponse}
// @Router       /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	u, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewUserResponse(u))
}

// GetUserByEmail 按邮箱查询
// @Summary      按邮箱查询用户
// @Tags         用户
// @Produce      json
// @Param        email query string true "邮箱"
// @Success      200 {object} response.Response{data=dto.UserResponse}
// @Router       /api/v1/users/by-email [get]
func (h *UserHandler) GetUserByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "email不能为空")
		return
	}

	u, err := h.users.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewUserResponse(u))
}

// UpdateUser 部分更新用户
// @Summary      更新用户
// @Tags         用户
// @Accept       json
// @Produce      json
// @Param        id path int true "用户ID"
// @Param        request body dto.UpdateUserRequest true "需要修改的字段"
// @Success      200 {object} response.Response{data=dto.UserResponse}
// @Failure      404 {object} response.Response "用户不存在"
// @Failure      409 {object} response.Response "邮箱已被注册"
// @Router       /api/v1/users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.users.UpdateUser(c.Request.Context(), id, req.ToPatch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewUserResponse(u))
}

// DeleteUser 删除用户及其订单
// @Summary      删除用户
// @Tags         用户
// @Produce      json
// @Param        id path int true "用户ID"
// @Success      200 {object} response.Response{data=dto.DeletedResponse}
// @Router       /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.users.DeleteUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.DeletedResponse{Deleted: deleted})
}

// ListUserOrders 用户的订单
// @Summary      用户订单列表
// @Tags         用户
// @Produce      json
// @Param        id path int true "用户ID"
// @Success      200 {object} response.Response{data=[]dto.OrderResponse}
// @Failure      404 {object} response.Response "用户不存在"
// @Router       /api/v1/users/{id}/orders [get]
func (h *UserHandler) ListUserOrders(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	orders, err := h.orders.ListUserOrders(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderList(orders))
}

// Authenticate 邮箱密码登录
// @Summary      登录
// @Description  验证邮箱密码,返回JWT令牌对
// @Tags         用户
// @Accept       json
// @Produce      json
// @Param        request body dto.AuthenticateRequest true "登录信息"
// @Success      200 {object} response.Response{data=dto.AuthenticateResponse}
// @Failure      401 {object} response.Response "邮箱或密码错误"
// @Router       /api/v1/users/authenticate [post]
func (h *UserHandler) Authenticate(c *gin.Context) {
	var req dto.AuthenticateRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.login.Execute(c.Request.Context(), appuser.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if result == nil {
		response.ErrorWithCode(c, apperrors.ErrCodeUnauthorized, "邮箱或密码错误")
		return
	}

	response.Success(c, &dto.AuthenticateResponse{
		User:         dto.NewUserResponse(result.User),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
	})
}

// RefreshToken 用Refresh Token换取新的Access Token
// @Summary      刷新Token
// @Tags         用户
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshTokenRequest true "Refresh Token"
// @Success      200 {object} response.Response{data=dto.RefreshTokenResponse}
// @Failure      401 {object} response.Response "Token无效或已过期"
// @Router       /api/v1/users/refresh [post]
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.refresh.Execute(req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.RefreshTokenResponse{
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresIn,
	})
}

// Logout 登出,当前Token加入黑名单
// @Summary      登出
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/users/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	err := h.logout.Execute(c.Request.Context(), middleware.GetUserID(c), middleware.GetAccessToken(c))
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "登出失败"))
		return
	}
	response.Success(c, nil)
}
