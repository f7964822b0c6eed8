package dto

import (
	"github.com/xiebiao/bookshop/internal/domain/user"
)

// CreateUserRequest 注册请求
// 邮箱格式和必填由Service再校验一次
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=100" example:"John Doe"`
	Email    string `json:"email" binding:"required,email" example:"john.doe@example.com"`
	Password string `json:"password" binding:"required,max=72" example:"password123"`
	Address  string `json:"address" binding:"max=255" example:"123 Main St, Anytown, USA"`
	Phone    string `json:"phone" binding:"max=50" example:"555-123-4567"`
}

// ToParams 转换为领域参数
func (r CreateUserRequest) ToParams() user.CreateParams {
	return user.CreateParams{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Address:  r.Address,
		Phone:    r.Phone,
	}
}

// UpdateUserRequest 部分更新,不传的字段保持不变
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,max=72"`
	Address  *string `json:"address" binding:"omitempty,max=255"`
	Phone    *string `json:"phone" binding:"omitempty,max=50"`
}

// ToPatch 转换为领域Patch
func (r UpdateUserRequest) ToPatch() user.Patch {
	return user.Patch{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Address:  r.Address,
		Phone:    r.Phone,
	}
}

// AuthenticateRequest 登录请求
type AuthenticateRequest struct {
	Email    string `json:"email" binding:"required" example:"john.doe@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// AuthenticateResponse 登录响应
type AuthenticateResponse struct {
	User         *UserResponse `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in" example:"7200"` // 秒
}

// RefreshTokenRequest 刷新Token请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshTokenResponse 刷新Token响应
type RefreshTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in" example:"7200"`
}

// UserResponse 用户响应(不含密码)
type UserResponse struct {
	ID        uint   `json:"id" example:"1"`
	Name      string `json:"name" example:"John Doe"`
	Email     string `json:"email" example:"john.doe@example.com"`
	Address   string `json:"address" example:"123 Main St, Anytown, USA"`
	Phone     string `json:"phone" example:"555-123-4567"`
	CreatedAt string `json:"created_at" example:"2024-01-15 10:30:00"`
	UpdatedAt string `json:"updated_at" example:"2024-01-15 10:30:00"`
}

// NewUserResponse nil返回nil,序列化为null
func NewUserResponse(u *user.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Address:   u.Address,
		Phone:     u.Phone,
		CreatedAt: FormatTime(u.CreatedAt),
		UpdatedAt: FormatTime(u.UpdatedAt),
	}
}

// NewUserList 用户列表
func NewUserList(users []*user.User) []*UserResponse {
	list := make([]*UserResponse, len(users))
	for i, u := range users {
		list[i] = NewUserResponse(u)
	}
	return list
}
