// Package bootstrap 首次启动的示例数据
package bootstrap

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookshop/internal/application/order"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/category"
	domainorder "github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/transaction"
	"github.com/xiebiao/bookshop/internal/domain/user"
)

// Seeder 示例数据初始化,只在用户表为空时执行
type Seeder struct {
	txManager  transaction.Manager
	users      user.Service
	categories category.Service
	books      book.Service
	orders     *order.Engine
	log        logrus.FieldLogger
}

// NewSeeder 创建示例数据初始化器
func NewSeeder(
	txManager transaction.Manager,
	users user.Service,
	categories category.Service,
	books book.Service,
	orders *order.Engine,
	log logrus.FieldLogger,
) *Seeder {
	return &Seeder{
		txManager:  txManager,
		users:      users,
		categories: categories,
		books:      books,
		orders:     orders,
		log:        log,
	}
}

var sampleUsers = []user.CreateParams{
	{Name: "John Doe", Email: "john.doe@example.com", Password: "password123", Address: "123 Main St, Anytown, USA", Phone: "555-123-4567"},
	{Name: "Jane Smith", Email: "jane.smith@example.com", Password: "password456", Address: "456 Oak Ave, Somewhere, USA", Phone: "555-987-6543"},
	{Name: "Bob Johnson", Email: "bob.johnson@example.com", Password: "password789", Address: "789 Pine Rd, Nowhere, USA", Phone: "555-456-7890"},
}

var sampleCategories = []struct{ name, description string }{
	{"Fiction", "Novels, short stories, and other fictional works"},
	{"Non-Fiction", "Biographies, histories, and other factual works"},
	{"Science Fiction", "Futuristic and speculative fiction"},
	{"Mystery", "Detective stories and thrillers"},
	{"Romance", "Love stories and romantic fiction"},
}

type sampleBook struct {
	category string
	params   book.CreateParams
}

var sampleBooks = []sampleBook{
	{"Fiction", book.CreateParams{Title: "The Great Novel", Author: "Jane Author", Description: "A sweeping epic of love and loss", ISBN: "978-1234567890", Price: decimal.RequireFromString("19.99"), Stock: 50, Publisher: "Big Publishing House", PublicationYear: 2020, Language: "English", PageCount: 320}},
	{"Non-Fiction", book.CreateParams{Title: "History of Everything", Author: "John Historian", Description: "A comprehensive history of the world", ISBN: "978-0987654321", Price: decimal.RequireFromString("24.99"), Stock: 30, Publisher: "Academic Press", PublicationYear: 2019, Language: "English", PageCount: 500}},
	{"Science Fiction", book.CreateParams{Title: "Space Adventures", Author: "Zoe Spacer", Description: "Thrilling adventures in deep space", ISBN: "978-5678901234", Price: decimal.RequireFromString("15.99"), Stock: 40, Publisher: "Future Books", PublicationYear: 2021, Language: "English", PageCount: 280}},
	{"Mystery", book.CreateParams{Title: "The Mystery of the Missing Book", Author: "Sherlock Writer", Description: "A detective solves the case of a missing rare book", ISBN: "978-8765432109", Price: decimal.RequireFromString("12.99"), Stock: 25, Publisher: "Mystery House", PublicationYear: 2022, Language: "English", PageCount: 240}},
	{"Romance", book.CreateParams{Title: "Love in Paris", Author: "Amour Writer", Description: "A romantic story set in the city of love", ISBN: "978-2345678901", Price: decimal.RequireFromString("14.99"), Stock: 35, Publisher: "Heart Press", PublicationYear: 2020, Language: "English", PageCount: 260}},
}

// Seed 用户表非空时什么都不做,返回false
// 全部数据在一个事务中写入,中途失败不会留下半套数据
func (s *Seeder) Seed(ctx context.Context) (bool, error) {
	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		s.log.WithField("users", count).Info("已有数据,跳过初始化")
		return false, nil
	}

	err = s.txManager.Transaction(ctx, func(txCtx context.Context) error {
		users, err := s.seedUsers(txCtx)
		if err != nil {
			return err
		}
		categories, err := s.seedCategories(txCtx)
		if err != nil {
			return err
		}
		books, err := s.seedBooks(txCtx, categories)
		if err != nil {
			return err
		}
		return s.seedOrders(txCtx, users, books)
	})
	if err != nil {
		return false, fmt.Errorf("初始化示例数据失败: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"users":      len(sampleUsers),
		"categories": len(sampleCategories),
		"books":      len(sampleBooks),
	}).Info("示例数据初始化完成")
	return true, nil
}

func (s *Seeder) seedUsers(ctx context.Context) (map[string]*user.User, error) {
	result := make(map[string]*user.User, len(sampleUsers))
	for _, p := range sampleUsers {
		u, err := s.users.CreateUser(ctx, p)
		if err != nil {
			return nil, err
		}
		result[u.Email] = u
	}
	return result, nil
}

func (s *Seeder) seedCategories(ctx context.Context) (map[string]uint, error) {
	result := make(map[string]uint, len(sampleCategories))
	for _, c := range sampleCategories {
		created, err := s.categories.CreateCategory(ctx, c.name, c.description)
		if err != nil {
			return nil, err
		}
		result[created.Name] = created.ID
	}
	return result, nil
}

func (s *Seeder) seedBooks(ctx context.Context, categories map[string]uint) (map[string]*book.Book, error) {
	result := make(map[string]*book.Book, len(sampleBooks))
	for _, sb := range sampleBooks {
		p := sb.params
		categoryID := categories[sb.category]
		p.CategoryID = &categoryID
		b, err := s.books.CreateBook(ctx, p)
		if err != nil {
			return nil, err
		}
		result[b.ISBN] = b
	}
	return result, nil
}

// seedOrders 通过订单引擎下单(扣减库存),再设置到示例状态
func (s *Seeder) seedOrders(ctx context.Context, users map[string]*user.User, books map[string]*book.Book) error {
	john := users["john.doe@example.com"]
	jane := users["jane.smith@example.com"]

	johnOrder, err := s.orders.CreateOrder(ctx, order.CreateOrderRequest{
		UserID: john.ID,
		Items: []order.CreateOrderItem{
			{BookID: books["978-1234567890"].ID, Quantity: 1},
			{BookID: books["978-0987654321"].ID, Quantity: 1},
		},
		ShippingAddress: john.Address,
		BillingAddress:  john.Address,
		PaymentMethod:   "Credit Card",
	})
	if err != nil {
		return err
	}
	tracking := "TRK123456789"
	if _, err := s.orders.UpdateOrderShipping(ctx, johnOrder.ID, nil, &tracking); err != nil {
		return err
	}
	if _, err := s.orders.UpdateOrderStatus(ctx, johnOrder.ID, domainorder.StatusDelivered); err != nil {
		return err
	}

	janeOrder, err := s.orders.CreateOrder(ctx, order.CreateOrderRequest{
		UserID:          jane.ID,
		Items:           []order.CreateOrderItem{{BookID: books["978-5678901234"].ID, Quantity: 1}},
		ShippingAddress: jane.Address,
		BillingAddress:  jane.Address,
		PaymentMethod:   "PayPal",
	})
	if err != nil {
		return err
	}
	_, err = s.orders.UpdateOrderStatus(ctx, janeOrder.ID, domainorder.StatusProcessing)
	return err
}
