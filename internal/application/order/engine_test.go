package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/logger"
)

type fixture struct {
	store  *memory.Store
	engine *Engine
	books  book.Service
	events *messaging.RecordingPublisher
	userID uint
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	books := book.NewService(store.Books(), store.Categories(), store, nil)
	events := &messaging.RecordingPublisher{}

	u := &user.User{Name: "Alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, store.Users().Create(context.Background(), u))

	return &fixture{
		store:  store,
		engine: NewEngine(store, store.Orders(), store.Users(), store.Books(), books, events, logger.Discard()),
		books:  books,
		events: events,
		userID: u.ID,
	}
}

func (f *fixture) addBook(t *testing.T, isbn, price string, stock int) *book.Book {
	t.Helper()
	b, err := f.books.CreateBook(context.Background(), book.CreateParams{
		Title:  "Book " + isbn,
		Author: "Author",
		ISBN:   isbn,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) stockOf(t *testing.T, id uint) int {
	t.Helper()
	b, err := f.books.GetBook(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b.Stock
}

func (f *fixture) placeOrder(t *testing.T, bookID uint, qty int) *order.Order {
	t.Helper()
	o, err := f.engine.CreateOrder(context.Background(), CreateOrderRequest{
		UserID: f.userID,
		Items:  []CreateOrderItem{{BookID: bookID, Quantity: qty}},
	})
	require.NoError(t, err)
	return o
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// 库存5,下单3本 → 总额=3×单价,库存剩2
func TestCreateOrder_ReservesStock(t *testing.T) {
	f := setup(t)
	b := f.addBook(t, "B", "12.50", 5)

	o := f.placeOrder(t, b.ID, 3)

	assert.Equal(t, order.StatusPending, o.Status)
	assert.True(t, dec("37.50").Equal(o.TotalAmount), "total=%s", o.TotalAmount)
	require.Len(t, o.Items, 1)
	assert.NotZero(t, o.Items[0].ID)
	assert.True(t, b.Price.Equal(o.Items[0].Price))
	assert.Regexp(t, `^ORD\d{14}[0-9A-F]{8}$`, o.OrderNo)
	assert.Equal(t, 2, f.stockOf(t, b.ID))
	assert.Equal(t, []string{order.EventCreated}, f.events.Types())

	got, err := f.engine.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(got.TotalAmount))
}

// 接上例,再加4本 → 库存不足,库存和总额都不变
func TestAddOrderItem_InsufficientStock(t *testing.T) {
	f := setup(t)
	b := f.addBook(t, "B", "12.50", 5)
	o := f.placeOrder(t, b.ID, 3)

	_, err := f.engine.AddOrderItem(context.Background(), o.ID, b.ID, 4)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientStock(err))
	assert.True(t, apperrors.IsInvalidArgument(err))
	assert.ErrorIs(t, err, book.ErrInsufficientStock)

	assert.Equal(t, 2, f.stockOf(t, b.ID))
	got, _ := f.engine.GetOrder(context.Background(), o.ID)
	assert.True(t, dec("37.50").Equal(got.TotalAmount))
	assert.Equal(t, 3, got.Items[0].Quantity)
}

// 已发货的订单不能取消,状态保持SHIPPED
func TestCancelOrder_Shipped(t *testing.T) {
	f := setup(t)
	b := f.addBook(t, "B", "10", 5)
	o := f.placeOrder(t, b.ID, 2)

	_, err := f.engine.UpdateOrderStatus(context.Background(), o.ID, order.StatusShipped)
	require.NoError(t, err)

	_, err = f.engine.CancelOrder(context.Background(), o.ID)
	assert.ErrorIs(t, err, order.ErrCannotCancel)
	assert.True(t, apperrors.IsInvalidArgument(err))

	got, _ := f.engine.GetOrder(context.Background(), o.ID)
	assert.Equal(t, order.StatusShipped, got.Status)
	assert.Equal(t, 3, f.stockOf(t, b.ID))
}

// 删除别的订单的明细 → 参数错误,库存不变
func TestRemoveOrderItem_OtherOrder(t *testing.T) {
	f := setup(t)
	b := f.addBook(t, "B", "10", 10)
	o1 := f.placeOrder(t, b.ID, 2)
	o2 := f.placeOrder(t, b.ID, 3)

	_, err := f.engine.RemoveOrderItem(context.Background(), o1.ID, o2.Items[0].ID)
	assert.ErrorIs(t, err, order.ErrItemNotInOrder)
	assert.True(t, apperrors.IsInvalidArgument(err))
	assert.Equal(t, 5, f.stockOf(t, b.ID))

	_, err = f.engine.RemoveOrderItem(context.Background(), o1.ID, 9999)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateOrder_Validation(t *testing.T) {
	f := setup(t)
	b := f.addBook(t, "B", "10", 5)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   CreateOrderRequest
		check func(error) bool
	}{
		{"无明细", CreateOrderRequest{UserID: f.userID}, apperrors.IsInvalidArgument},
		{"数量为0", CreateOrderRequest{UserID: f.userID, Items: []CreateOrderItem{{BookID: b.ID, Quantity: 0}}}, apperrors.IsInvalidArgument},
		{"用户不存在", CreateOrderRequest{UserID: 999, Items: []CreateOrderItem{{BookID: b.ID, Quantity: 1}}}, apperrors.IsNotFound},
		{"图书不存在", CreateOrderRequest{UserID: f.userID, Items: []CreateOrderItem{{BookID: 999, Quantity: 1}}}, apperrors.IsNotFound},
		{"库存不足", CreateOrderRequest{UserID: f.userID, Items: []CreateOrderItem{{BookID: b.ID, Quantity: 6}}}, apperrors.IsInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.CreateOrder(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}

	assert.Equal(t, 5, f.stockOf(t, b.ID))
	orders, err := f.engine.ListOrders(ctx, order.Filter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.events.Types())
}

// 第二本书库存不足时,第一本书已经锁定的库存也要回滚
func TestCreateOrder_RollbackOnPartialFailure(t *testing.T) {
	f := setup(t)
	b1 := f.addBook(t, "B1", "10", 5)
	b2 := f.addBook(t, "B2", "20", 1)

	_, err := f.engine.CreateOrder(context.Background(), CreateOrderRequest{
		UserID: f.userID,
		Items: []CreateOrderItem{
			{BookID: b1.ID, Quantity: 2},
			{BookID: b2.ID, Quantity: 2},
		},
	})
	assert.True(t, apperrors.IsInsufficientStock(err))

	assert.Equal(t, 5, f.stockOf(t, b1.ID))
	assert.Equal(t, 1, f.stockOf(t, b2.ID))
}

func TestCreateOrder_MergesDuplicateLines(t *testing.T) {
	f := setup(t)
	b := f.addBook(t, "B", "3", 10)

	o, err := f.engine.CreateOrder(context.Background(), CreateOrderRequest{
		UserID: f.userID,
		Items: []CreateOrderItem{
			{BookID: b.ID, Quantity: 2},
			{BookID: b.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 5, o.Items[0].Quantity)
	assert.True(t, dec("15").Equal(o.TotalAmount))
	assert.Equal(t, 5, f.stockOf(t, b.ID))
}

func TestAddOrderItem(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b1 := f.addBook(t, "B1", "10", 10)
	b2 := f.addBook(t, "B2", "4.25", 10)
	o := f.placeOrder(t, b1.ID, 1)

	// 已有的书: 累加数量并沿用原价格快照
	newPrice := dec("99")
	_, err := f.books.UpdateBook(ctx, b1.ID, book.Patch{Price: &newPrice})
	require.NoError(t, err)

	o, err = f.engine.AddOrderItem(ctx, o.ID, b1.ID, 2)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.True(t, dec("30").Equal(o.TotalAmount))

	// 新书: 按当前价格新增明细
	o, err = f.engine.AddOrderItem(ctx, o.ID, b2.ID, 2)
	require.NoError(t, err)
	require.Len(t, o.Items, 2)
	assert.True(t, dec("38.50").Equal(o.TotalAmount))

	assert.Equal(t, 7, f.stockOf(t, b1.ID))
	assert.Equal(t, 8, f.stockOf(t, b2.ID))

	got, _ := f.engine.GetOrder(ctx, o.ID)
	assert.True(t, dec("38.50").Equal(got.TotalAmount))
	assert.Len(t, got.Items, 2)

	_, err = f.engine.AddOrderItem(ctx, o.ID, b2.ID, 0)
	assert.ErrorIs(t, err, order.ErrInvalidQuantity)
	_, err = f.engine.AddOrderItem(ctx, 999, b2.ID, 1)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
	_, err = f.engine.AddOrderItem(ctx, o.ID, 999, 1)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

// 下单后逐条删除明细 → 库存恢复,总额为0
func TestRemoveAllItems_RoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b1 := f.addBook(t, "B1", "10", 4)
	b2 := f.addBook(t, "B2", "7.5", 6)

	o, err := f.engine.CreateOrder(ctx, CreateOrderRequest{
		UserID: f.userID,
		Items: []CreateOrderItem{
			{BookID: b1.ID, Quantity: 4},
			{BookID: b2.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.stockOf(t, b1.ID))

	for _, item := range o.Items {
		o, err = f.engine.RemoveOrderItem(ctx, o.ID, item.ID)
		require.NoError(t, err)
	}

	assert.Empty(t, o.Items)
	assert.True(t, o.TotalAmount.IsZero())
	assert.Equal(t, 4, f.stockOf(t, b1.ID))
	assert.Equal(t, 6, f.stockOf(t, b2.ID))
}

func TestCancelOrder_Restocks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b1 := f.addBook(t, "B1", "10", 5)
	b2 := f.addBook(t, "B2", "10", 5)

	o, err := f.engine.CreateOrder(ctx, CreateOrderRequest{
		UserID: f.userID,
		Items: []CreateOrderItem{
			{BookID: b1.ID, Quantity: 2},
			{BookID: b2.ID, Quantity: 5},
		},
	})
	require.NoError(t, err)

	// 下单后图书被删除,取消时跳过该书的回补
	_, err = f.books.DeleteBook(ctx, b2.ID)
	require.NoError(t, err)

	cancelled, err := f.engine.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
	assert.Equal(t, 5, f.stockOf(t, b1.ID))

	// 不能重复取消
	_, err = f.engine.CancelOrder(ctx, o.ID)
	assert.ErrorIs(t, err, order.ErrAlreadyCancelled)
	assert.Equal(t, 5, f.stockOf(t, b1.ID))

	// 已取消的订单不能再增删明细
	_, err = f.engine.AddOrderItem(ctx, o.ID, b1.ID, 1)
	assert.ErrorIs(t, err, order.ErrOrderCancelled)
	_, err = f.engine.RemoveOrderItem(ctx, o.ID, o.Items[0].ID)
	assert.ErrorIs(t, err, order.ErrOrderCancelled)
	assert.Equal(t, 5, f.stockOf(t, b1.ID))

	_, err = f.engine.CancelOrder(ctx, 999)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.addBook(t, "B", "10", 5)
	o := f.placeOrder(t, b.ID, 1)

	_, err := f.engine.UpdateOrderStatus(ctx, o.ID, order.Status("LOST"))
	assert.ErrorIs(t, err, order.ErrInvalidStatus)

	// 状态直接设置,不影响库存
	updated, err := f.engine.UpdateOrderStatus(ctx, o.ID, order.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, updated.Status)
	assert.Equal(t, 4, f.stockOf(t, b.ID))

	_, err = f.engine.UpdateOrderStatus(ctx, 999, order.StatusShipped)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestUpdateOrderShipping(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.addBook(t, "B", "10", 5)
	o, err := f.engine.CreateOrder(ctx, CreateOrderRequest{
		UserID:          f.userID,
		Items:           []CreateOrderItem{{BookID: b.ID, Quantity: 1}},
		ShippingAddress: "北京市海淀区",
	})
	require.NoError(t, err)
	assert.Nil(t, o.TrackingNumber)

	tracking := "SF1234567890"
	updated, err := f.engine.UpdateOrderShipping(ctx, o.ID, nil, &tracking)
	require.NoError(t, err)
	assert.Equal(t, "北京市海淀区", updated.ShippingAddress)
	require.NotNil(t, updated.TrackingNumber)
	assert.Equal(t, tracking, *updated.TrackingNumber)

	addr := "上海市浦东新区"
	updated, err = f.engine.UpdateOrderShipping(ctx, o.ID, &addr, nil)
	require.NoError(t, err)
	assert.Equal(t, addr, updated.ShippingAddress)
	assert.Equal(t, tracking, *updated.TrackingNumber)
}

func TestDeleteOrder_KeepsStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.addBook(t, "B", "10", 5)
	o := f.placeOrder(t, b.ID, 2)

	deleted, err := f.engine.DeleteOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 3, f.stockOf(t, b.ID))

	got, err := f.engine.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	deleted, err = f.engine.DeleteOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Contains(t, f.events.Types(), order.EventDeleted)
}

func TestListOrders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.addBook(t, "B", "10", 10)
	o1 := f.placeOrder(t, b.ID, 1)
	f.placeOrder(t, b.ID, 1)

	_, err := f.engine.UpdateOrderStatus(ctx, o1.ID, order.StatusProcessing)
	require.NoError(t, err)

	processing := order.StatusProcessing
	list, err := f.engine.ListOrders(ctx, order.Filter{Status: &processing})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, o1.ID, list[0].ID)

	mine, err := f.engine.ListUserOrders(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = f.engine.ListUserOrders(ctx, 999)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestCreateOrder_ConcurrentNoOversell(t *testing.T) {
	f := setup(t)
	b := f.addBook(t, "B", "10", 10)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.CreateOrder(context.Background(), CreateOrderRequest{
				UserID: f.userID,
				Items:  []CreateOrderItem{{BookID: b.ID, Quantity: 1}},
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, success)
	assert.Equal(t, 0, f.stockOf(t, b.ID))
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, order.Event) error {
	return errors.New("broker down")
}

// 事件发布失败不影响业务结果
func TestEventPublishFailureIgnored(t *testing.T) {
	f := setup(t)
	f.engine.events = failingPublisher{}
	b := f.addBook(t, "B", "10", 5)

	o := f.placeOrder(t, b.ID, 1)
	assert.NotZero(t, o.ID)
}

func TestMergeLines(t *testing.T) {
	lines, err := mergeLines([]CreateOrderItem{{BookID: 2, Quantity: 1}, {BookID: 1, Quantity: 1}, {BookID: 2, Quantity: 4}})
	require.NoError(t, err)
	assert.Equal(t, []CreateOrderItem{{BookID: 2, Quantity: 5}, {BookID: 1, Quantity: 1}}, lines)

	_, err = mergeLines(nil)
	assert.ErrorIs(t, err, order.ErrInvalidOrderItems)
	_, err = mergeLines([]CreateOrderItem{{BookID: 1, Quantity: -1}})
	assert.ErrorIs(t, err, order.ErrInvalidQuantity)
}
