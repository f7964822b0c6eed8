package user

import (
	"strings"
	"time"
)

// User 用户实体(聚合根)
// Password保存bcrypt哈希,不保存明文
type User struct {
	ID        uint
	Name      string
	Email     string
	Password  string
	Address   string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateParams 注册参数,Password为明文,由Service负责哈希
type CreateParams struct {
	Name     string
	Email    string
	Password string
	Address  string
	Phone    string
}

// Patch 部分更新参数,nil表示不修改
type Patch struct {
	Name     *string
	Email    *string
	Password *string
	Address  *string
	Phone    *string
}

// NewUser 创建用户,hashedPassword必须已经过bcrypt处理
func NewUser(p CreateParams, hashedPassword string) *User {
	now := time.Now()
	return &User{
		Name:      strings.TrimSpace(p.Name),
		Email:     normalizeEmail(p.Email),
		Password:  hashedPassword,
		Address:   p.Address,
		Phone:     p.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// applyProfile 合并除密码外的字段
func (u *User) applyProfile(p Patch) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		u.Email = normalizeEmail(*p.Email)
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	u.UpdatedAt = time.Now()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
