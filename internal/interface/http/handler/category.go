package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/category"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/response"
)

// CategoryHandler 分类HTTP处理器
type CategoryHandler struct {
	categories category.Service
	books      book.Service
}

// NewCategoryHandler 创建分类处理器
func NewCategoryHandler(categories category.Service, books book.Service) *CategoryHandler {
	return &CategoryHandler{categories: categories, books: books}
}

// ListCategories 分类列表
// @Summary      分类列表
// @Tags         分类
// @Produce      json
// @Param        name_contains query string false "名称包含(不区分大小写)"
// @Success      200 {object} response.Response{data=[]dto.CategoryResponse}
// @Router       /api/v1/categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.ListCategories(c.Request.Context(), c.Query("name_contains"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewCategoryList(categories))
}

// CreateCategory 创建分类
// @Summary      创建分类
// @Tags         分类
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateCategoryRequest true "分类信息"
// @Success      201 {object} response.Response{data=dto.CategoryResponse}
// @Failure      409 {object} response.Response "分类名已存在"
// @Router       /api/v1/categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.categories.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewCategoryResponse(created))
}

// GetCategory 分类详情
// @Summary      分类详情
// @Tags         分类
// @Produce      json
// @Param        id path int true "分类ID"
// @Success      200 {object} response.Response{data=dto.CategoryResponse}
// @Router       /api/v1/categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	found, err := h.categories.GetCategory(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewCategoryResponse(found))
}

// GetCategoryByName 按名称精确查询
// @Summary      按名称查询分类
// @Tags         分类
// @Produce      json
// @Param        name query string true "分类名"
// @Success      200 {object} response.Response{data=dto.CategoryResponse}
// @Router       /api/v1/categories/by-name [get]
func (h *CategoryHandler) GetCategoryByName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "name不能为空")
		return
	}

	found, err := h.categories.GetCategoryByName(c.Request.Context(), name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewCategoryResponse(found))
}

// UpdateCategory 部分更新分类
// @Summary      更新分类
// @Tags         分类
// @Accept       json
// @Produce      json
// @Param        id path int true "分类ID"
// @Param        request body dto.UpdateCategoryRequest true "需要修改的字段"
// @Success      200 {object} response.Response{data=dto.CategoryResponse}
// @Failure      404 {object} response.Response "分类不存在"
// @Router       /api/v1/categories/{id} [patch]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.categories.UpdateCategory(c.Request.Context(), id, req.ToPatch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewCategoryResponse(updated))
}

// DeleteCategory 删除分类及其下的全部图书
// @Summary      删除分类
// @Tags         分类
// @Produce      json
// @Param        id path int true "分类ID"
// @Success      200 {object} response.Response{data=dto.DeletedResponse}
// @Router       /api/v1/categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.categories.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.DeletedResponse{Deleted: deleted})
}

// ListCategoryBooks 分类下的图书
// @Summary      分类下的图书
// @Tags         分类
// @Produce      json
// @Param        id path int true "分类ID"
// @Success      200 {object} response.Response{data=[]dto.BookResponse}
// @Router       /api/v1/categories/{id}/books [get]
func (h *CategoryHandler) ListCategoryBooks(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	books, err := h.books.ListBooks(c.Request.Context(), book.Filter{CategoryID: &id})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewBookList(books))
}
