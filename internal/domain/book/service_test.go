package book_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/category"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/optional"
)

// mapCache 记录失效调用的缓存
type mapCache struct {
	mu          sync.Mutex
	items       map[uint]book.Book
	invalidated []uint
}

func newMapCache() *mapCache {
	return &mapCache{items: map[uint]book.Book{}}
}

func (c *mapCache) Get(_ context.Context, id uint) *book.Book {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.items[id]
	if !ok {
		return nil
	}
	return &b
}

func (c *mapCache) Set(_ context.Context, b *book.Book) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[b.ID] = *b
}

func (c *mapCache) Invalidate(_ context.Context, ids ...uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.items, id)
	}
	c.invalidated = append(c.invalidated, ids...)
}

type fixture struct {
	store   *memory.Store
	svc     book.Service
	cache   *mapCache
	catRepo category.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	cache := newMapCache()
	return &fixture{
		store:   store,
		svc:     book.NewService(store.Books(), store.Categories(), store, cache),
		cache:   cache,
		catRepo: store.Categories(),
	}
}

func params(isbn string, stock int) book.CreateParams {
	return book.CreateParams{
		Title:  "Clean Code",
		Author: "Robert C. Martin",
		ISBN:   isbn,
		Price:  decimal.RequireFromString("39.90"),
		Stock:  stock,
	}
}

func TestCreateBook(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	b, err := f.svc.CreateBook(ctx, params("978-0132350884", 10))
	require.NoError(t, err)
	assert.NotZero(t, b.ID)

	_, err = f.svc.CreateBook(ctx, params("978-0132350884", 1))
	assert.ErrorIs(t, err, book.ErrISBNDuplicate)
	assert.True(t, apperrors.IsDuplicateKey(err))

	// 末尾的0不算多余小数位
	p := params("978-0134494166", 1)
	p.Price = decimal.RequireFromString("99999999.990")
	_, err = f.svc.CreateBook(ctx, p)
	assert.NoError(t, err)
}

func TestCreateBook_Validation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tests := []struct {
		name    string
		mutate  func(p *book.CreateParams)
		wantErr error
	}{
		{"空书名", func(p *book.CreateParams) { p.Title = " " }, book.ErrMissingFields},
		{"空ISBN", func(p *book.CreateParams) { p.ISBN = "" }, book.ErrInvalidISBN},
		{"负价格", func(p *book.CreateParams) { p.Price = decimal.NewFromInt(-1) }, book.ErrInvalidPrice},
		{"三位小数", func(p *book.CreateParams) { p.Price = decimal.RequireFromString("9.999") }, book.ErrInvalidPrice},
		{"价格超出上限", func(p *book.CreateParams) { p.Price = decimal.NewFromInt(1_000_000_000) }, book.ErrInvalidPrice},
		{"负库存", func(p *book.CreateParams) { p.Stock = -1 }, book.ErrInvalidStock},
		{"负页数", func(p *book.CreateParams) { p.PageCount = -5 }, book.ErrInvalidPageCount},
		{"分类不存在", func(p *book.CreateParams) { id := uint(99); p.CategoryID = &id }, book.ErrCategoryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := params("isbn-"+tt.name, 1)
			tt.mutate(&p)
			_, err := f.svc.CreateBook(ctx, p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateBook(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	c := &category.Category{Name: "编程"}
	require.NoError(t, f.catRepo.Create(ctx, c))

	b1, err := f.svc.CreateBook(ctx, params("isbn-1", 3))
	require.NoError(t, err)
	b2, err := f.svc.CreateBook(ctx, params("isbn-2", 3))
	require.NoError(t, err)

	title := "Clean Architecture"
	updated, err := f.svc.UpdateBook(ctx, b1.ID, book.Patch{
		Title:      &title,
		CategoryID: optional.Of(c.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, c.ID, *updated.CategoryID)
	assert.Equal(t, 3, updated.Stock)
	assert.Contains(t, f.cache.invalidated, b1.ID)

	// 显式置空分类
	updated, err = f.svc.UpdateBook(ctx, b1.ID, book.Patch{CategoryID: optional.Null[uint]()})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)

	badPrice := decimal.RequireFromString("9.999")
	_, err = f.svc.UpdateBook(ctx, b1.ID, book.Patch{Price: &badPrice})
	assert.ErrorIs(t, err, book.ErrInvalidPrice)
	got, err := f.svc.GetBook(ctx, b1.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("39.90")))

	taken := "isbn-2"
	_, err = f.svc.UpdateBook(ctx, b1.ID, book.Patch{ISBN: &taken})
	assert.ErrorIs(t, err, book.ErrISBNDuplicate)

	// 改成自己当前的ISBN不算冲突
	same := "isbn-2"
	_, err = f.svc.UpdateBook(ctx, b2.ID, book.Patch{ISBN: &same})
	assert.NoError(t, err)

	_, err = f.svc.UpdateBook(ctx, 999, book.Patch{Title: &title})
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	b, err := f.svc.CreateBook(ctx, params("isbn-1", 5))
	require.NoError(t, err)

	updated, err := f.svc.AdjustStock(ctx, b.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)

	updated, err = f.svc.AdjustStock(ctx, b.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 13, updated.Stock)

	_, err = f.svc.AdjustStock(ctx, b.ID, -14)
	assert.ErrorIs(t, err, book.ErrNegativeStock)
	assert.True(t, apperrors.IsInvalidArgument(err))

	_, err = f.svc.AdjustStock(ctx, 999, 1)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	got, err := f.svc.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 13, got.Stock)
}

func TestAdjustStock_InvalidatesAfterOuterCommit(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	b, err := f.svc.CreateBook(ctx, params("isbn-1", 5))
	require.NoError(t, err)
	_, err = f.svc.GetBook(ctx, b.ID)
	require.NoError(t, err)
	f.cache.invalidated = nil

	err = f.store.Transaction(ctx, func(txCtx context.Context) error {
		if _, err := f.svc.AdjustStock(txCtx, b.ID, -1); err != nil {
			return err
		}
		// 外层事务未提交,缓存保持不变
		assert.Empty(t, f.cache.invalidated)
		assert.NotNil(t, f.cache.Get(ctx, b.ID))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, f.cache.invalidated)
	assert.Nil(t, f.cache.Get(ctx, b.ID))

	t.Run("回滚不淘汰", func(t *testing.T) {
		_, err := f.svc.GetBook(ctx, b.ID)
		require.NoError(t, err)
		f.cache.invalidated = nil

		err = f.store.Transaction(ctx, func(txCtx context.Context) error {
			if _, err := f.svc.AdjustStock(txCtx, b.ID, -1); err != nil {
				return err
			}
			return errors.New("下游失败")
		})
		require.Error(t, err)
		assert.Empty(t, f.cache.invalidated)

		got, err := f.svc.GetBook(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, got.Stock)
	})
}

func TestAdjustStock_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	b, err := f.svc.CreateBook(ctx, params("isbn-1", 10))
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.AdjustStock(ctx, b.ID, -1); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, success)
	got, _ := f.svc.GetBook(ctx, b.ID)
	assert.Equal(t, 0, got.Stock)
}

func TestGetBook_CacheAside(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	missing, err := f.svc.GetBook(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)

	b, err := f.svc.CreateBook(ctx, params("isbn-1", 1))
	require.NoError(t, err)

	_, err = f.svc.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.NotNil(t, f.cache.Get(ctx, b.ID))

	deleted, err := f.svc.DeleteBook(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Nil(t, f.cache.Get(ctx, b.ID))

	deleted, err = f.svc.DeleteBook(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGetBookByISBN(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.CreateBook(ctx, params("isbn-1", 1))
	require.NoError(t, err)

	got, err := f.svc.GetBookByISBN(ctx, "isbn-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = f.svc.GetBookByISBN(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteBooksByCategory(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	c := &category.Category{Name: "编程"}
	require.NoError(t, f.catRepo.Create(ctx, c))

	p := params("isbn-1", 1)
	p.CategoryID = &c.ID
	b1, err := f.svc.CreateBook(ctx, p)
	require.NoError(t, err)
	b2, err := f.svc.CreateBook(ctx, params("isbn-2", 1))
	require.NoError(t, err)

	n, err := f.svc.DeleteBooksByCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Contains(t, f.cache.invalidated, b1.ID)

	left, err := f.svc.ListBooks(ctx, book.Filter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, b2.ID, left[0].ID)
}
