package user

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/bookshop/internal/domain/transaction"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// Service 用户领域服务(账户管理)
type Service interface {
	// CreateUser 注册用户,邮箱重复返回ErrEmailDuplicate
	CreateUser(ctx context.Context, params CreateParams) (*User, error)

	// UpdateUser 部分更新,邮箱改成已占用的值返回ErrEmailDuplicate
	UpdateUser(ctx context.Context, id uint, patch Patch) (*User, error)

	// DeleteUser 先删订单再删用户(同一事务),不存在返回false
	DeleteUser(ctx context.Context, id uint) (bool, error)

	// Authenticate 邮箱和密码都匹配时返回用户,否则返回nil(不是错误)
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// GetUser 不存在返回nil
	GetUser(ctx context.Context, id uint) (*User, error)

	// GetUserByEmail 不存在返回nil
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListUsers 全部用户
	ListUsers(ctx context.Context) ([]*User, error)

	// CountUsers 用户总数
	CountUsers(ctx context.Context) (int64, error)
}

// hashCost bcrypt计算成本
var hashCost = bcrypt.DefaultCost

type service struct {
	repo      Repository
	orders    OrderRemover
	txManager transaction.Manager
}

// NewService 创建用户领域服务
func NewService(repo Repository, orders OrderRemover, txManager transaction.Manager) Service {
	return &service{repo: repo, orders: orders, txManager: txManager}
}

// CreateUser 注册
// 1. 校验姓名、邮箱格式、密码非空
// 2. 邮箱唯一
// 3. bcrypt哈希后保存
func (s *service) CreateUser(ctx context.Context, params CreateParams) (*User, error) {
	email := normalizeEmail(params.Email)
	if err := validate(strings.TrimSpace(params.Name), email, params.Password); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailDuplicate
	}

	hashed, err := hashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	u := NewUser(params, hashed)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser 部分更新
func (s *service) UpdateUser(ctx context.Context, id uint, patch Patch) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if !isValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		if email != u.Email {
			other, err := s.repo.FindByEmail(ctx, email)
			switch {
			case err == nil && other.ID != u.ID:
				return nil, ErrEmailDuplicate
			case err != nil && !errors.Is(err, ErrUserNotFound):
				return nil, err
			}
		}
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, ErrEmptyName
	}

	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, ErrEmptyPassword
		}
		hashed, err := hashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hashed
	}
	u.applyProfile(patch)

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser 两阶段删除: 订单(含明细) → 用户
// 删除订单不回补库存,与DeleteOrder保持一致
func (s *service) DeleteUser(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := s.txManager.Transaction(ctx, func(txCtx context.Context) error {
		exists, err := s.repo.ExistsByID(txCtx, id)
		if err != nil || !exists {
			return err
		}

		if _, err := s.orders.DeleteByUserID(txCtx, id); err != nil {
			return err
		}

		deleted, err = s.repo.Delete(txCtx, id)
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// Authenticate 校验邮箱密码
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, nil
	}
	return u, nil
}

func (s *service) GetUser(ctx context.Context, id uint) (*User, error) {
	return absentIfNotFound(s.repo.FindByID(ctx, id))
}

func (s *service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return absentIfNotFound(s.repo.FindByEmail(ctx, normalizeEmail(email)))
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

func (s *service) CountUsers(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// =========================================
// 辅助函数
// =========================================

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func validate(name, email, password string) error {
	if name == "" {
		return ErrEmptyName
	}
	if !isValidEmail(email) {
		return ErrInvalidEmail
	}
	if password == "" {
		return ErrEmptyPassword
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", apperrors.Wrap(err, "密码加密失败")
	}
	return string(hashed), nil
}

func absentIfNotFound(u *User, err error) (*User, error) {
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	return u, err
}
