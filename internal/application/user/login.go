package user

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshop/pkg/jwt"
	"github.com/xiebiao/bookshop/pkg/logger"
)

// LoginUseCase 登录用例
// 1. 校验邮箱密码(user.Service.Authenticate)
// 2. 签发JWT令牌对
// 3. 记录Redis会话(sessionStore为nil时跳过)
type LoginUseCase struct {
	userService  user.Service
	jwtManager   *jwt.Manager
	sessionStore *redis.SessionStore
	sessionTTL   time.Duration
	log          logrus.FieldLogger
}

// NewLoginUseCase 创建登录用例
func NewLoginUseCase(
	userService user.Service,
	jwtManager *jwt.Manager,
	sessionStore *redis.SessionStore,
	sessionTTL time.Duration,
	log logrus.FieldLogger,
) *LoginUseCase {
	return &LoginUseCase{
		userService:  userService,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		sessionTTL:   sessionTTL,
		log:          log,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
	ClientIP string
}

// LoginResponse 登录结果
type LoginResponse struct {
	User         *user.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // Access Token过期时间(秒)
}

// Execute 邮箱或密码不匹配时返回nil(不是错误)
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := uc.userService.Authenticate(ctx, req.Email, req.Password)
	if err != nil || u == nil {
		return nil, err
	}

	tokenPair, err := uc.jwtManager.GenerateToken(u.ID, u.Email, u.Name)
	if err != nil {
		return nil, err
	}

	// 会话写入失败不影响登录,令牌本身已经可用
	if uc.sessionStore != nil {
		sessionData := map[string]interface{}{
			"user_id":  u.ID,
			"email":    u.Email,
			"name":     u.Name,
			"login_at": time.Now().Unix(),
			"ip":       req.ClientIP,
		}
		if err := uc.sessionStore.SaveSession(ctx, u.ID, sessionData, uc.sessionTTL); err != nil {
			logger.FromContext(ctx, uc.log).WithError(err).WithField("user_id", u.ID).Warn("保存会话失败")
		}
	}

	return &LoginResponse{
		User:         u,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

// LogoutUseCase 登出用例: 删除会话,并把Access Token加入黑名单
type LogoutUseCase struct {
	sessionStore *redis.SessionStore
	tokenTTL     time.Duration
}

// NewLogoutUseCase 创建登出用例,tokenTTL为Access Token有效期
func NewLogoutUseCase(sessionStore *redis.SessionStore, tokenTTL time.Duration) *LogoutUseCase {
	return &LogoutUseCase{sessionStore: sessionStore, tokenTTL: tokenTTL}
}

// Execute 未启用Redis时无状态,直接返回
func (uc *LogoutUseCase) Execute(ctx context.Context, userID uint, accessToken string) error {
	if uc.sessionStore == nil {
		return nil
	}
	if err := uc.sessionStore.DeleteSession(ctx, userID); err != nil {
		return err
	}
	return uc.sessionStore.AddToBlacklist(ctx, accessToken, uc.tokenTTL)
}

// RefreshUseCase 用Refresh Token换取新的Access Token
type RefreshUseCase struct {
	jwtManager *jwt.Manager
}

// NewRefreshUseCase 创建刷新用例
func NewRefreshUseCase(jwtManager *jwt.Manager) *RefreshUseCase {
	return &RefreshUseCase{jwtManager: jwtManager}
}

// RefreshResponse 刷新结果
type RefreshResponse struct {
	AccessToken string
	ExpiresIn   int64
}

// Execute 传入Access Token或过期的Refresh Token都会失败
func (uc *RefreshUseCase) Execute(refreshToken string) (*RefreshResponse, error) {
	access, err := uc.jwtManager.RefreshAccessToken(refreshToken)
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{
		AccessToken: access,
		ExpiresIn:   int64(uc.jwtManager.AccessTokenTTL().Seconds()),
	}, nil
}
