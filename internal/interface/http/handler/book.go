package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/pkg/metrics"
	"github.com/xiebiao/bookshop/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	books book.Service
}

// NewBookHandler 创建图书处理器
func NewBookHandler(books book.Service) *BookHandler {
	return &BookHandler{books: books}
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  按书名/作者(包含,不区分大小写)、分类、出版年份过滤
// @Tags         图书
// @Produce      json
// @Param        title       query string false "书名包含"
// @Param        author      query string false "作者包含"
// @Param        category_id query int    false "分类ID"
// @Param        year        query int    false "出版年份"
// @Success      200 {object} response.Response{data=[]dto.BookResponse}
// @Router       /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var query dto.ListBooksQuery
	if !bindQuery(c, &query) {
		return
	}

	books, err := h.books.ListBooks(c.Request.Context(), query.ToFilter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewBookList(books))
}

// CreateBook 创建图书
// @Summary      创建图书
// @Tags         图书
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateBookRequest true "图书信息"
// @Success      201 {object} response.Response{data=dto.BookResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "分类不存在"
// @Failure      409 {object} response.Response "ISBN已存在"
// @Router       /api/v1/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req dto.CreateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.books.CreateBook(c.Request.Context(), req.ToParams())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewBookResponse(created))
}

// GetBook 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	found, err := h.books.GetBook(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewBookResponse(found))
}

// GetBookByISBN 按ISBN查询
// @Summary      按ISBN查询图书
// @Tags         图书
// @Produce      json
// @Param        isbn path string true "ISBN"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Router       /api/v1/books/isbn/{isbn} [get]
func (h *BookHandler) GetBookByISBN(c *gin.Context) {
	found, err := h.books.GetBookByISBN(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewBookResponse(found))
}

// UpdateBook 部分更新图书
// @Summary      更新图书
// @Description  category_id传null移出分类;库存请使用库存调整接口
// @Tags         图书
// @Accept       json
// @Produce      json
// @Param        id path int true "图书ID"
// @Param        request body dto.UpdateBookRequest true "需要修改的字段"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Failure      404 {object} response.Response "图书或分类不存在"
// @Failure      409 {object} response.Response "ISBN已存在"
// @Router       /api/v1/books/{id} [patch]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.books.UpdateBook(c.Request.Context(), id, req.ToPatch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewBookResponse(updated))
}

// DeleteBook 删除图书
// @Summary      删除图书
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=dto.DeletedResponse}
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.books.DeleteBook(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.DeletedResponse{Deleted: deleted})
}

// AdjustStock 调整库存
// @Summary      调整库存
// @Tags         图书
// @Accept       json
// @Produce      json
// @Param        id path int true "图书ID"
// @Param        request body dto.AdjustStockRequest true "库存变化量"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Failure      400 {object} response.Response "调整后库存为负"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id}/stock [post]
func (h *BookHandler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.books.AdjustStock(c.Request.Context(), id, *req.Delta)
	if err != nil {
		response.Error(c, err)
		return
	}
	metrics.IncCounterVec(metrics.StockAdjustmentsTotal, map[string]string{"reason": metrics.StockReasonManual})
	response.Success(c, dto.NewBookResponse(updated))
}
