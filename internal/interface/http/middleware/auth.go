package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/jwt"
	"github.com/xiebiao/bookshop/pkg/response"
)

// Context中的键
const (
	ctxUserID      = "user_id"
	ctxEmail       = "email"
	ctxAccessToken = "access_token"
)

// TokenBlacklist 已登出Token的黑名单
// redis.SessionStore满足该接口
type TokenBlacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证中间件
// 1. 从Authorization头提取Bearer Token
// 2. 检查黑名单(未启用Redis时跳过)
// 3. 校验Token并把用户信息写入Context
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  TokenBlacklist
}

// NewAuthMiddleware blacklist可以为nil
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist TokenBlacklist) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, blacklist: blacklist}
}

// RequireAuth 要求登录
//
//	v1.POST("/users/logout", authMiddleware.RequireAuth(), userHandler.Logout)
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.AbortWithCode(c, apperrors.ErrCodeUnauthorized, "请先登录")
			return
		}

		if m.blacklist != nil {
			blacklisted, err := m.blacklist.IsInBlacklist(c.Request.Context(), token)
			if err != nil {
				response.Error(c, apperrors.Wrap(err, "验证Token失败"))
				c.Abort()
				return
			}
			if blacklisted {
				response.AbortWithCode(c, apperrors.ErrCodeTokenExpired, "Token已失效,请重新登录")
				return
			}
		}

		claims, err := m.jwtManager.ParseToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		setClaims(c, claims, token)
		c.Next()
	}
}

// OptionalAuth 有合法Token时写入用户信息,没有也继续
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := m.jwtManager.ParseToken(token); err == nil {
				setClaims(c, claims, token)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setClaims(c *gin.Context, claims *jwt.Claims, token string) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxAccessToken, token)
}

// GetUserID 未登录返回0
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// GetEmail 未登录返回空字符串
func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// GetAccessToken 当前请求携带的Token
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ctxAccessToken)
}
