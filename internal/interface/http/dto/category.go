package dto

import (
	"github.com/xiebiao/bookshop/internal/domain/category"
)

// CreateCategoryRequest 创建分类
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100" example:"Fiction"`
	Description string `json:"description" example:"Novels, short stories, and other fictional works"`
}

// UpdateCategoryRequest 部分更新分类
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
}

// ToPatch 转换为领域Patch
func (r UpdateCategoryRequest) ToPatch() category.Patch {
	return category.Patch{Name: r.Name, Description: r.Description}
}

// CategoryResponse 分类响应
type CategoryResponse struct {
	ID          uint   `json:"id" example:"1"`
	Name        string `json:"name" example:"Fiction"`
	Description string `json:"description" example:"Novels, short stories, and other fictional works"`
	CreatedAt   string `json:"created_at" example:"2024-01-15 10:30:00"`
	UpdatedAt   string `json:"updated_at" example:"2024-01-15 10:30:00"`
}

// NewCategoryResponse nil返回nil
func NewCategoryResponse(c *category.Category) *CategoryResponse {
	if c == nil {
		return nil
	}
	return &CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   FormatTime(c.CreatedAt),
		UpdatedAt:   FormatTime(c.UpdatedAt),
	}
}

// NewCategoryList 分类列表
func NewCategoryList(categories []*category.Category) []*CategoryResponse {
	list := make([]*CategoryResponse, len(categories))
	for i, c := range categories {
		list[i] = NewCategoryResponse(c)
	}
	return list
}
