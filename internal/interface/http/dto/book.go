package dto

import (
	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/pkg/optional"
)

// CreateBookRequest 创建图书
// price可以写成数字或字符串,统一解析为decimal
type CreateBookRequest struct {
	Title           string          `json:"title" binding:"required,max=200" example:"The Great Novel"`
	Author          string          `json:"author" binding:"required,max=100" example:"Jane Author"`
	Description     string          `json:"description" binding:"max=5000"`
	ISBN            string          `json:"isbn" binding:"required,max=20" example:"978-1234567890"`
	Price           decimal.Decimal `json:"price" swaggertype:"string" example:"19.99"`
	Stock           int             `json:"stock" binding:"min=0" example:"50"`
	CategoryID      *uint           `json:"category_id" example:"1"`
	Publisher       string          `json:"publisher" binding:"max=100" example:"Big Publishing House"`
	PublicationYear int             `json:"publication_year" example:"2020"`
	Language        string          `json:"language" binding:"max=50" example:"English"`
	PageCount       int             `json:"page_count" binding:"min=0" example:"320"`
}

// ToParams 转换为领域参数
func (r CreateBookRequest) ToParams() book.CreateParams {
	return book.CreateParams{
		Title:           r.Title,
		Author:          r.Author,
		Description:     r.Description,
		ISBN:            r.ISBN,
		Price:           r.Price,
		Stock:           r.Stock,
		CategoryID:      r.CategoryID,
		Publisher:       r.Publisher,
		PublicationYear: r.PublicationYear,
		Language:        r.Language,
		PageCount:       r.PageCount,
	}
}

// UpdateBookRequest 部分更新图书
// category_id传null表示移出分类,不传表示不修改
// 库存只能通过 POST /books/:id/stock 调整
type UpdateBookRequest struct {
	Title           *string                 `json:"title" binding:"omitempty,max=200"`
	Author          *string                 `json:"author" binding:"omitempty,max=100"`
	Description     *string                 `json:"description"`
	ISBN            *string                 `json:"isbn" binding:"omitempty,max=20"`
	Price           *decimal.Decimal        `json:"price" swaggertype:"string"`
	Publisher       *string                 `json:"publisher" binding:"omitempty,max=100"`
	PublicationYear *int                    `json:"publication_year"`
	Language        *string                 `json:"language" binding:"omitempty,max=50"`
	PageCount       *int                    `json:"page_count"`
	CategoryID      optional.Nullable[uint] `json:"category_id" swaggertype:"integer"`
}

// ToPatch 转换为领域Patch
func (r UpdateBookRequest) ToPatch() book.Patch {
	return book.Patch{
		Title:           r.Title,
		Author:          r.Author,
		Description:     r.Description,
		ISBN:            r.ISBN,
		Price:           r.Price,
		Publisher:       r.Publisher,
		PublicationYear: r.PublicationYear,
		Language:        r.Language,
		PageCount:       r.PageCount,
		CategoryID:      r.CategoryID,
	}
}

// AdjustStockRequest 库存调整,delta为负表示扣减
type AdjustStockRequest struct {
	Delta *int `json:"delta" binding:"required" example:"-2"`
}

// ListBooksQuery 图书查询条件
type ListBooksQuery struct {
	Title      string `form:"title" binding:"max=200"`
	Author     string `form:"author" binding:"max=100"`
	CategoryID *uint  `form:"category_id"`
	Year       *int   `form:"year"`
}

// ToFilter 转换为领域查询条件
func (q ListBooksQuery) ToFilter() book.Filter {
	return book.Filter{
		TitleContains:   q.Title,
		AuthorContains:  q.Author,
		CategoryID:      q.CategoryID,
		PublicationYear: q.Year,
	}
}

// BookResponse 图书响应
type BookResponse struct {
	ID              uint   `json:"id" example:"1"`
	Title           string `json:"title" example:"The Great Novel"`
	Author          string `json:"author" example:"Jane Author"`
	Description     string `json:"description"`
	ISBN            string `json:"isbn" example:"978-1234567890"`
	Price           string `json:"price" example:"19.99"`
	Stock           int    `json:"stock" example:"50"`
	CategoryID      *uint  `json:"category_id" example:"1"`
	Publisher       string `json:"publisher" example:"Big Publishing House"`
	PublicationYear int    `json:"publication_year" example:"2020"`
	Language        string `json:"language" example:"English"`
	PageCount       int    `json:"page_count" example:"320"`
	CreatedAt       string `json:"created_at" example:"2024-01-15 10:30:00"`
	UpdatedAt       string `json:"updated_at" example:"2024-01-15 10:30:00"`
}

// NewBookResponse nil返回nil
func NewBookResponse(b *book.Book) *BookResponse {
	if b == nil {
		return nil
	}
	return &BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Description:     b.Description,
		ISBN:            b.ISBN,
		Price:           b.Price.StringFixed(2),
		Stock:           b.Stock,
		CategoryID:      b.CategoryID,
		Publisher:       b.Publisher,
		PublicationYear: b.PublicationYear,
		Language:        b.Language,
		PageCount:       b.PageCount,
		CreatedAt:       FormatTime(b.CreatedAt),
		UpdatedAt:       FormatTime(b.UpdatedAt),
	}
}

// NewBookList 图书列表
func NewBookList(books []*book.Book) []*BookResponse {
	list := make([]*BookResponse, len(books))
	for i, b := range books {
		list[i] = NewBookResponse(b)
	}
	return list
}
