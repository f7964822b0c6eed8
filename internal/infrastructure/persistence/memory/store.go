// Package memory 内存版仓储实现
//
// 与mysql包实现相同的仓储接口和错误约定,用于单元测试和本地演示。
// Transaction持有全局锁并在fn返回错误时整体回滚到事务开始前的快照,
// 因此同一Store上的事务是串行执行的。提交回调在释放锁之后执行。
package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/category"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/transaction"
	"github.com/xiebiao/bookshop/internal/domain/user"
)

type txKey struct{}

// Store 内存数据库
type Store struct {
	mu   sync.Mutex
	data tables
}

type tables struct {
	seq        uint
	users      map[uint]user.User
	books      map[uint]book.Book
	categories map[uint]category.Category
	orders     map[uint]order.Order // 不含Items
	items      map[uint]order.OrderItem
}

// NewStore 创建空的内存数据库
func NewStore() *Store {
	return &Store{data: tables{
		users:      map[uint]user.User{},
		books:      map[uint]book.Book{},
		categories: map[uint]category.Category{},
		orders:     map[uint]order.Order{},
		items:      map[uint]order.OrderItem{},
	}}
}

// Transaction 实现transaction.Manager
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	hookCtx, runHooks := transaction.WithCommitHooks(ctx)
	if err := s.run(context.WithValue(hookCtx, txKey{}, true), fn); err != nil {
		return err
	}
	runHooks()
	return nil
}

// run 持锁执行fn,失败时恢复快照
func (s *Store) run(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// Books 图书仓储
func (s *Store) Books() book.Repository { return &bookRepository{s: s} }

// Categories 分类仓储
func (s *Store) Categories() category.Repository { return &categoryRepository{s: s} }

// Users 用户仓储
func (s *Store) Users() user.Repository { return &userRepository{s: s} }

// Orders 订单仓储
func (s *Store) Orders() order.Repository { return &orderRepository{s: s} }

// lock 事务外的调用自行加锁,事务内已经持有锁
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) nextID() uint {
	s.data.seq++
	return s.data.seq
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

func (t tables) clone() tables {
	c := tables{
		seq:        t.seq,
		users:      make(map[uint]user.User, len(t.users)),
		books:      make(map[uint]book.Book, len(t.books)),
		categories: make(map[uint]category.Category, len(t.categories)),
		orders:     make(map[uint]order.Order, len(t.orders)),
		items:      make(map[uint]order.OrderItem, len(t.items)),
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.books {
		c.books[k] = copyBook(v)
	}
	for k, v := range t.categories {
		c.categories[k] = v
	}
	for k, v := range t.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range t.items {
		c.items[k] = v
	}
	return c
}

func copyBook(b book.Book) book.Book {
	if b.CategoryID != nil {
		id := *b.CategoryID
		b.CategoryID = &id
	}
	return b
}

func copyOrder(o order.Order) order.Order {
	if o.TrackingNumber != nil {
		tn := *o.TrackingNumber
		o.TrackingNumber = &tn
	}
	o.Items = nil
	return o
}
