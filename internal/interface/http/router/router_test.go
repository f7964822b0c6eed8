package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apporder "github.com/xiebiao/bookshop/internal/application/order"
	appuser "github.com/xiebiao/bookshop/internal/application/user"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/category"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/internal/interface/http/handler"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/pkg/jwt"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/metrics"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	store := memory.NewStore()
	books := book.NewService(store.Books(), store.Categories(), store, nil)
	categories := category.NewService(store.Categories(), books, store)
	users := user.NewService(store.Users(), store.Orders(), store)
	engine := apporder.NewEngine(store, store.Orders(), store.Users(), store.Books(), books, nil, logger.Discard())

	jwtManager := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	login := appuser.NewLoginUseCase(users, jwtManager, nil, time.Hour, logger.Discard())
	logout := appuser.NewLogoutUseCase(nil, time.Hour)

	h := Handlers{
		User:     handler.NewUserHandler(users, engine, login, logout, appuser.NewRefreshUseCase(jwtManager)),
		Category: handler.NewCategoryHandler(categories, books),
		Book:     handler.NewBookHandler(books),
		Order:    handler.NewOrderHandler(engine),
	}
	return New(Options{Mode: gin.TestMode}, h, middleware.NewAuthMiddleware(jwtManager, nil), logger.Discard())
}

func call(t *testing.T, r *gin.Engine, method, path string, body interface{}, headers ...string) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func createUser(t *testing.T, r *gin.Engine, email string) dto.UserResponse {
	t.Helper()
	status, env := call(t, r, http.MethodPost, "/api/v1/users", gin.H{
		"name": "Test User", "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var u dto.UserResponse
	decode(t, env, &u)
	return u
}

func createBook(t *testing.T, r *gin.Engine, isbn string, price string, stock int, categoryID *uint) dto.BookResponse {
	t.Helper()
	body := gin.H{"title": "Book " + isbn, "author": "Author", "isbn": isbn, "price": price, "stock": stock}
	if categoryID != nil {
		body["category_id"] = *categoryID
	}
	status, env := call(t, r, http.MethodPost, "/api/v1/books", body)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var b dto.BookResponse
	decode(t, env, &b)
	return b
}

func getBook(t *testing.T, r *gin.Engine, id uint) dto.BookResponse {
	t.Helper()
	status, env := call(t, r, http.MethodGet, fmt.Sprintf("/api/v1/books/%d", id), nil)
	require.Equal(t, http.StatusOK, status)
	var b dto.BookResponse
	decode(t, env, &b)
	return b
}

func TestPingAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	status, env := call(t, r, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, env.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestInvalidPathID(t *testing.T) {
	r := newTestRouter(t)

	status, env := call(t, r, http.MethodGet, "/api/v1/books/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40900, env.Code)
}

func TestCategoryAndBookEndpoints(t *testing.T) {
	r := newTestRouter(t)

	status, env := call(t, r, http.MethodPost, "/api/v1/categories", gin.H{"name": "Fiction", "description": "Novels"})
	require.Equal(t, http.StatusCreated, status)
	var fiction dto.CategoryResponse
	decode(t, env, &fiction)

	t.Run("重复分类名", func(t *testing.T) {
		status, env := call(t, r, http.MethodPost, "/api/v1/categories", gin.H{"name": "Fiction"})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, 40009, env.Code)
	})

	t.Run("按名称查询和模糊搜索", func(t *testing.T) {
		status, env := call(t, r, http.MethodGet, "/api/v1/categories/by-name?name=Fiction", nil)
		require.Equal(t, http.StatusOK, status)
		var found dto.CategoryResponse
		decode(t, env, &found)
		assert.Equal(t, fiction.ID, found.ID)

		_, env = call(t, r, http.MethodGet, "/api/v1/categories?name_contains=fic", nil)
		var list []dto.CategoryResponse
		decode(t, env, &list)
		assert.Len(t, list, 1)
	})

	novel := createBook(t, r, "978-1234567890", "19.99", 50, &fiction.ID)
	assert.Equal(t, "19.99", novel.Price)
	require.NotNil(t, novel.CategoryID)

	t.Run("不存在的分类", func(t *testing.T) {
		missing := uint(999)
		body := gin.H{"title": "X", "author": "Y", "isbn": "978-0000000000", "price": "1.00", "category_id": missing}
		status, env := call(t, r, http.MethodPost, "/api/v1/books", body)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, 40400, env.Code)
	})

	t.Run("按ISBN和分类查询", func(t *testing.T) {
		status, env := call(t, r, http.MethodGet, "/api/v1/books/isbn/978-1234567890", nil)
		require.Equal(t, http.StatusOK, status)
		var b dto.BookResponse
		decode(t, env, &b)
		assert.Equal(t, novel.ID, b.ID)

		_, env = call(t, r, http.MethodGet, fmt.Sprintf("/api/v1/categories/%d/books", fiction.ID), nil)
		var list []dto.BookResponse
		decode(t, env, &list)
		assert.Len(t, list, 1)

		_, env = call(t, r, http.MethodGet, "/api/v1/books?title=BOOK&author=auth", nil)
		decode(t, env, &list)
		assert.Len(t, list, 1)
	})

	t.Run("查询不存在的图书返回null", func(t *testing.T) {
		status, env := call(t, r, http.MethodGet, "/api/v1/books/999", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, 0, env.Code)
		assert.Equal(t, "null", string(env.Data))
	})

	t.Run("部分更新并移出分类", func(t *testing.T) {
		status, env := call(t, r, http.MethodPatch, fmt.Sprintf("/api/v1/books/%d", novel.ID), gin.H{
			"title": "Renamed", "category_id": nil,
		})
		require.Equal(t, http.StatusOK, status, env.Message)
		var b dto.BookResponse
		decode(t, env, &b)
		assert.Equal(t, "Renamed", b.Title)
		assert.Equal(t, "Author", b.Author)
		assert.Nil(t, b.CategoryID)
		assert.Equal(t, 50, b.Stock)
	})

	t.Run("调整库存", func(t *testing.T) {
		manual := metrics.StockAdjustmentsTotal.WithLabelValues(metrics.StockReasonManual)
		before := testutil.ToFloat64(manual)

		status, env := call(t, r, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/stock", novel.ID), gin.H{"delta": -5})
		require.Equal(t, http.StatusOK, status)
		var b dto.BookResponse
		decode(t, env, &b)
		assert.Equal(t, 45, b.Stock)

		status, env = call(t, r, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/stock", novel.ID), gin.H{"delta": -100})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, 45, getBook(t, r, novel.ID).Stock)
		assert.Equal(t, before+1, testutil.ToFloat64(manual), "只统计成功的调整")

		status, _ = call(t, r, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/stock", novel.ID), gin.H{})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("删除两次", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/books/%d", novel.ID)
		_, env := call(t, r, http.MethodDelete, path, nil)
		var res dto.DeletedResponse
		decode(t, env, &res)
		assert.True(t, res.Deleted)

		_, env = call(t, r, http.MethodDelete, path, nil)
		decode(t, env, &res)
		assert.False(t, res.Deleted)
	})

	t.Run("删除分类级联删除图书", func(t *testing.T) {
		b := createBook(t, r, "978-5555555555", "5.00", 1, &fiction.ID)

		_, env := call(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", fiction.ID), nil)
		var res dto.DeletedResponse
		decode(t, env, &res)
		assert.True(t, res.Deleted)

		_, env = call(t, r, http.MethodGet, fmt.Sprintf("/api/v1/books/%d", b.ID), nil)
		assert.Equal(t, "null", string(env.Data))
	})
}

func TestOrderEndpoints(t *testing.T) {
	r := newTestRouter(t)

	u := createUser(t, r, "buyer@example.com")
	novel := createBook(t, r, "978-1111111111", "19.99", 10, nil)
	manual := createBook(t, r, "978-2222222222", "5.50", 3, nil)

	status, env := call(t, r, http.MethodPost, "/api/v1/orders", gin.H{
		"user_id": u.ID,
		"items": []gin.H{
			{"book_id": novel.ID, "quantity": 2},
			{"book_id": manual.ID, "quantity": 1},
		},
		"shipping_address": "1 Road",
		"payment_method":   "Credit Card",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created dto.OrderResponse
	decode(t, env, &created)
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, "45.48", created.TotalAmount)
	assert.Len(t, created.Items, 2)
	assert.Equal(t, 8, getBook(t, r, novel.ID).Stock)
	assert.Equal(t, 2, getBook(t, r, manual.ID).Stock)

	orderPath := fmt.Sprintf("/api/v1/orders/%d", created.ID)

	t.Run("库存不足", func(t *testing.T) {
		status, env := call(t, r, http.MethodPost, "/api/v1/orders", gin.H{
			"user_id": u.ID,
			"items":   []gin.H{{"book_id": manual.ID, "quantity": 5}},
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, 40001, env.Code)
		assert.Equal(t, 2, getBook(t, r, manual.ID).Stock)
	})

	t.Run("用户不存在", func(t *testing.T) {
		status, _ := call(t, r, http.MethodPost, "/api/v1/orders", gin.H{
			"user_id": 999,
			"items":   []gin.H{{"book_id": novel.ID, "quantity": 1}},
		})
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("追加和移除明细", func(t *testing.T) {
		status, env := call(t, r, http.MethodPost, orderPath+"/items", gin.H{"book_id": novel.ID, "quantity": 1})
		require.Equal(t, http.StatusOK, status, env.Message)
		var o dto.OrderResponse
		decode(t, env, &o)
		assert.Equal(t, "65.47", o.TotalAmount)
		assert.Len(t, o.Items, 2)
		assert.Equal(t, 7, getBook(t, r, novel.ID).Stock)

		var manualItem uint
		for _, item := range o.Items {
			if item.BookID == manual.ID {
				manualItem = item.ID
			}
		}
		require.NotZero(t, manualItem)

		status, env = call(t, r, http.MethodDelete, fmt.Sprintf("%s/items/%d", orderPath, manualItem), nil)
		require.Equal(t, http.StatusOK, status, env.Message)
		decode(t, env, &o)
		assert.Equal(t, "59.97", o.TotalAmount)
		assert.Len(t, o.Items, 1)
		assert.Equal(t, 3, getBook(t, r, manual.ID).Stock)
	})

	t.Run("修改状态和物流", func(t *testing.T) {
		status, env := call(t, r, http.MethodPatch, orderPath+"/status", gin.H{"status": "BOGUS"})
		assert.Equal(t, http.StatusBadRequest, status, env.Message)

		status, env = call(t, r, http.MethodPatch, orderPath+"/status", gin.H{"status": "PROCESSING"})
		require.Equal(t, http.StatusOK, status)

		status, env = call(t, r, http.MethodPatch, orderPath+"/shipping", gin.H{"tracking_number": "TRK1"})
		require.Equal(t, http.StatusOK, status)
		var o dto.OrderResponse
		decode(t, env, &o)
		require.NotNil(t, o.TrackingNumber)
		assert.Equal(t, "TRK1", *o.TrackingNumber)
		assert.Equal(t, "1 Road", o.ShippingAddress)
		assert.Equal(t, "PROCESSING", o.Status)
	})

	t.Run("按条件查询", func(t *testing.T) {
		_, env := call(t, r, http.MethodGet, fmt.Sprintf("/api/v1/orders?user_id=%d&status=PROCESSING", u.ID), nil)
		var list []dto.OrderResponse
		decode(t, env, &list)
		assert.Len(t, list, 1)

		_, env = call(t, r, http.MethodGet, "/api/v1/orders?status=PENDING", nil)
		decode(t, env, &list)
		assert.Empty(t, list)

		status, _ := call(t, r, http.MethodGet, "/api/v1/orders?status=nope", nil)
		assert.Equal(t, http.StatusBadRequest, status)

		_, env = call(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/orders", u.ID), nil)
		decode(t, env, &list)
		assert.Len(t, list, 1)

		status, _ = call(t, r, http.MethodGet, "/api/v1/users/999/orders", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("取消订单回补库存", func(t *testing.T) {
		status, env := call(t, r, http.MethodPost, orderPath+"/cancel", nil)
		require.Equal(t, http.StatusOK, status, env.Message)
		var o dto.OrderResponse
		decode(t, env, &o)
		assert.Equal(t, "CANCELLED", o.Status)
		assert.Equal(t, 10, getBook(t, r, novel.ID).Stock)

		status, _ = call(t, r, http.MethodPost, orderPath+"/cancel", nil)
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = call(t, r, http.MethodPost, orderPath+"/items", gin.H{"book_id": novel.ID, "quantity": 1})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("删除订单", func(t *testing.T) {
		_, env := call(t, r, http.MethodDelete, orderPath, nil)
		var res dto.DeletedResponse
		decode(t, env, &res)
		assert.True(t, res.Deleted)

		_, env = call(t, r, http.MethodGet, orderPath, nil)
		assert.Equal(t, "null", string(env.Data))
	})
}

func TestUserEndpoints(t *testing.T) {
	r := newTestRouter(t)

	u := createUser(t, r, "John.Doe@Example.com")
	assert.Equal(t, "john.doe@example.com", u.Email)

	t.Run("重复邮箱", func(t *testing.T) {
		status, env := call(t, r, http.MethodPost, "/api/v1/users", gin.H{
			"name": "Other", "email": "john.doe@example.com", "password": "x",
		})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, 40009, env.Code)
	})

	t.Run("按邮箱查询", func(t *testing.T) {
		_, env := call(t, r, http.MethodGet, "/api/v1/users/by-email?email=john.doe@example.com", nil)
		var found dto.UserResponse
		decode(t, env, &found)
		assert.Equal(t, u.ID, found.ID)

		status, _ := call(t, r, http.MethodGet, "/api/v1/users/by-email", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("部分更新", func(t *testing.T) {
		status, env := call(t, r, http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", u.ID), gin.H{"phone": "555-0000"})
		require.Equal(t, http.StatusOK, status)
		var updated dto.UserResponse
		decode(t, env, &updated)
		assert.Equal(t, "555-0000", updated.Phone)
		assert.Equal(t, "Test User", updated.Name)
	})

	t.Run("登录和登出", func(t *testing.T) {
		status, env := call(t, r, http.MethodPost, "/api/v1/users/authenticate", gin.H{
			"email": "john.doe@example.com", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, 40100, env.Code)

		status, env = call(t, r, http.MethodPost, "/api/v1/users/authenticate", gin.H{
			"email": "john.doe@example.com", "password": "password123",
		})
		require.Equal(t, http.StatusOK, status)
		var auth dto.AuthenticateResponse
		decode(t, env, &auth)
		assert.NotEmpty(t, auth.AccessToken)
		assert.Equal(t, u.ID, auth.User.ID)

		status, env = call(t, r, http.MethodPost, "/api/v1/users/refresh", gin.H{"refresh_token": auth.RefreshToken})
		require.Equal(t, http.StatusOK, status)
		var refreshed dto.RefreshTokenResponse
		decode(t, env, &refreshed)
		assert.NotEmpty(t, refreshed.AccessToken)

		status, _ = call(t, r, http.MethodPost, "/api/v1/users/refresh", gin.H{"refresh_token": auth.AccessToken})
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = call(t, r, http.MethodPost, "/api/v1/users/logout", nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = call(t, r, http.MethodPost, "/api/v1/users/logout", nil, "Authorization", "Bearer "+auth.RefreshToken)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = call(t, r, http.MethodPost, "/api/v1/users/logout", nil, "Authorization", "Bearer "+auth.AccessToken)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("删除用户级联删除订单", func(t *testing.T) {
		b := createBook(t, r, "978-3333333333", "10.00", 5, nil)
		status, env := call(t, r, http.MethodPost, "/api/v1/orders", gin.H{
			"user_id": u.ID,
			"items":   []gin.H{{"book_id": b.ID, "quantity": 2}},
		})
		require.Equal(t, http.StatusCreated, status)
		var o dto.OrderResponse
		decode(t, env, &o)

		_, env = call(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", u.ID), nil)
		var res dto.DeletedResponse
		decode(t, env, &res)
		assert.True(t, res.Deleted)

		_, env = call(t, r, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", o.ID), nil)
		assert.Equal(t, "null", string(env.Data))
		// 删除订单不回补库存
		assert.Equal(t, 3, getBook(t, r, b.ID).Stock)
	})
}
