// Package router 组装Gin引擎: 全局中间件 + 运维端点 + /api/v1业务路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/xiebiao/bookshop/docs"
	"github.com/xiebiao/bookshop/internal/interface/http/handler"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/pkg/response"
)

const tracerName = "bookshop/http"

// Handlers 路由需要的全部处理器
type Handlers struct {
	User     *handler.UserHandler
	Category *handler.CategoryHandler
	Book     *handler.BookHandler
	Order    *handler.OrderHandler
}

// Options 引擎选项
type Options struct {
	Mode          string // debug | release | test
	EnableSwagger bool
}

// New 创建并配置Gin引擎
//
// 中间件顺序: Recovery → Logger → Tracing → Metrics → OptionalAuth
// 业务接口不做权限控制,只有登出要求携带有效Token
func New(opts Options, h Handlers, auth *middleware.AuthMiddleware, log *logrus.Logger) *gin.Engine {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.Logger(log),
		middleware.Tracing(tracerName),
		middleware.Metrics(),
		auth.OptionalAuth(),
	)

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.GET("", h.User.ListUsers)
			users.POST("", h.User.CreateUser)
			users.GET("/by-email", h.User.GetUserByEmail)
			users.POST("/authenticate", h.User.Authenticate)
			users.POST("/refresh", h.User.RefreshToken)
			users.POST("/logout", auth.RequireAuth(), h.User.Logout)
			users.GET("/:id", h.User.GetUser)
			users.PATCH("/:id", h.User.UpdateUser)
			users.DELETE("/:id", h.User.DeleteUser)
			users.GET("/:id/orders", h.User.ListUserOrders)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", h.Category.ListCategories)
			categories.POST("", h.Category.CreateCategory)
			categories.GET("/by-name", h.Category.GetCategoryByName)
			categories.GET("/:id", h.Category.GetCategory)
			categories.PATCH("/:id", h.Category.UpdateCategory)
			categories.DELETE("/:id", h.Category.DeleteCategory)
			categories.GET("/:id/books", h.Category.ListCategoryBooks)
		}

		books := v1.Group("/books")
		{
			books.GET("", h.Book.ListBooks)
			books.POST("", h.Book.CreateBook)
			books.GET("/isbn/:isbn", h.Book.GetBookByISBN)
			books.GET("/:id", h.Book.GetBook)
			books.PATCH("/:id", h.Book.UpdateBook)
			books.DELETE("/:id", h.Book.DeleteBook)
			books.POST("/:id/stock", h.Book.AdjustStock)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("", h.Order.ListOrders)
			orders.POST("", h.Order.CreateOrder)
			orders.GET("/:id", h.Order.GetOrder)
			orders.DELETE("/:id", h.Order.DeleteOrder)
			orders.PATCH("/:id/status", h.Order.UpdateOrderStatus)
			orders.PATCH("/:id/shipping", h.Order.UpdateOrderShipping)
			orders.POST("/:id/items", h.Order.AddOrderItem)
			orders.DELETE("/:id/items/:itemId", h.Order.RemoveOrderItem)
			orders.POST("/:id/cancel", h.Order.CancelOrder)
		}
	}

	return r
}
