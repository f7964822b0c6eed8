// Package jwt 基于HS256的令牌签发与校验
//
// 登录成功后签发一对令牌:
//   - Access Token: 有效期短,每次请求放在 Authorization: Bearer <token>
//   - Refresh Token: 有效期长,只能用来换取新的Access Token
//
// 两种令牌通过TokenType区分,Refresh Token不能直接访问接口。
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

const issuer = "bookshop"

// 令牌类型
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Manager 令牌管理器
type Manager struct {
	secret             []byte
	accessTokenExpire  time.Duration
	refreshTokenExpire time.Duration
}

// NewManager 创建令牌管理器
func NewManager(secret string, accessTokenExpire, refreshTokenExpire time.Duration) *Manager {
	return &Manager{
		secret:             []byte(secret),
		accessTokenExpire:  accessTokenExpire,
		refreshTokenExpire: refreshTokenExpire,
	}
}

// Claims 自定义声明
type Claims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair 令牌对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access Token过期时间(秒)
}

// AccessTokenTTL Access Token有效期(登出时黑名单的过期时间)
func (m *Manager) AccessTokenTTL() time.Duration {
	return m.accessTokenExpire
}

// GenerateToken 签发令牌对
func (m *Manager) GenerateToken(userID uint, email, name string) (*TokenPair, error) {
	now := time.Now()

	access, err := m.sign(Claims{UserID: userID, Email: email, Name: name, TokenType: TokenTypeAccess}, now, m.accessTokenExpire)
	if err != nil {
		return nil, apperrors.Wrap(err, "生成Access Token失败")
	}

	refresh, err := m.sign(Claims{UserID: userID, TokenType: TokenTypeRefresh}, now, m.refreshTokenExpire)
	if err != nil {
		return nil, apperrors.Wrap(err, "生成Refresh Token失败")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTokenExpire.Seconds()),
	}, nil
}

// ParseToken 解析并校验Access Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, TokenTypeAccess)
}

// RefreshAccessToken 用Refresh Token换新的Access Token
// Refresh Token里不带邮箱和姓名,新令牌只保留用户ID
func (m *Manager) RefreshAccessToken(refreshToken string) (string, error) {
	claims, err := m.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	token, err := m.sign(Claims{UserID: claims.UserID, TokenType: TokenTypeAccess}, time.Now(), m.accessTokenExpire)
	if err != nil {
		return "", apperrors.Wrap(err, "刷新Token失败")
	}
	return token, nil
}

func (m *Manager) sign(claims Claims, now time.Time, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   fmt.Sprintf("%d", claims.UserID),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) parse(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
