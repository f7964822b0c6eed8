package category

import (
	"strings"
	"time"
)

// Category 图书分类
// Name业务唯一;分类下的图书只是反向引用,删除分类时图书一并删除
type Category struct {
	ID          uint
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Patch 部分更新参数,nil表示不修改
type Patch struct {
	Name        *string
	Description *string
}

// NewCategory 创建分类
func NewCategory(name, description string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	now := time.Now()
	return &Category{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyPatch 合并部分更新
func (c *Category) ApplyPatch(p Patch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return ErrEmptyName
		}
		c.Name = name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	c.UpdatedAt = time.Now()
	return nil
}
