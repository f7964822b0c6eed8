package book

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookshop/pkg/optional"
)

// Book 图书实体(聚合根)
// 1. 价格使用decimal,避免浮点误差
// 2. ISBN业务唯一(数据库唯一索引兜底)
// 3. Stock只能通过Service.AdjustStock修改,且永远不能为负
type Book struct {
	ID              uint
	Title           string
	Author          string
	Description     string
	ISBN            string
	Price           decimal.Decimal
	Stock           int
	CategoryID      *uint // 所属分类(可选)
	Publisher       string
	PublicationYear int
	Language        string
	PageCount       int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateParams 创建图书参数
type CreateParams struct {
	Title           string
	Author          string
	Description     string
	ISBN            string
	Price           decimal.Decimal
	Stock           int
	CategoryID      *uint
	Publisher       string
	PublicationYear int
	Language        string
	PageCount       int
}

// Patch 部分更新参数,nil表示不修改
// CategoryID可以显式置空(移出分类)
type Patch struct {
	Title           *string
	Author          *string
	Description     *string
	ISBN            *string
	Price           *decimal.Decimal
	Publisher       *string
	PublicationYear *int
	Language        *string
	PageCount       *int
	CategoryID      optional.Nullable[uint]
}

// NewBook 创建图书(工厂方法),会做基础校验
func NewBook(p CreateParams) (*Book, error) {
	b := &Book{
		Title:           strings.TrimSpace(p.Title),
		Author:          strings.TrimSpace(p.Author),
		Description:     p.Description,
		ISBN:            strings.TrimSpace(p.ISBN),
		Price:           p.Price,
		Stock:           p.Stock,
		CategoryID:      p.CategoryID,
		Publisher:       p.Publisher,
		PublicationYear: p.PublicationYear,
		Language:        p.Language,
		PageCount:       p.PageCount,
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	if b.Stock < 0 {
		return nil, ErrInvalidStock
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	return b, nil
}

// ApplyPatch 合并部分更新,合并后重新校验
func (b *Book) ApplyPatch(p Patch) error {
	updated := *b
	if p.Title != nil {
		updated.Title = strings.TrimSpace(*p.Title)
	}
	if p.Author != nil {
		updated.Author = strings.TrimSpace(*p.Author)
	}
	if p.Description != nil {
		updated.Description = *p.Description
	}
	if p.ISBN != nil {
		updated.ISBN = strings.TrimSpace(*p.ISBN)
	}
	if p.Price != nil {
		updated.Price = *p.Price
	}
	if p.Publisher != nil {
		updated.Publisher = *p.Publisher
	}
	if p.PublicationYear != nil {
		updated.PublicationYear = *p.PublicationYear
	}
	if p.Language != nil {
		updated.Language = *p.Language
	}
	if p.PageCount != nil {
		updated.PageCount = *p.PageCount
	}
	p.CategoryID.Apply(&updated.CategoryID)

	if err := updated.validate(); err != nil {
		return err
	}
	updated.UpdatedAt = time.Now()
	*b = updated
	return nil
}

// InCategory 是否属于指定分类
func (b *Book) InCategory(categoryID uint) bool {
	return b.CategoryID != nil && *b.CategoryID == categoryID
}

func (b *Book) validate() error {
	if b.Title == "" || b.Author == "" {
		return ErrMissingFields
	}
	if b.ISBN == "" {
		return ErrInvalidISBN
	}
	if !validPrice(b.Price) {
		return ErrInvalidPrice
	}
	if b.PageCount < 0 {
		return ErrInvalidPageCount
	}
	return nil
}

// maxPrice 与价格列decimal(10,2)的上限一致
var maxPrice = decimal.RequireFromString("99999999.99")

// validPrice 非负、不超过maxPrice、最多两位小数
func validPrice(price decimal.Decimal) bool {
	return !price.IsNegative() && !price.GreaterThan(maxPrice) && price.Equal(price.Round(2))
}
