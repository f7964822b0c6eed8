package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/book"
)

type bookRepository struct {
	s *Store
}

func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.data.books {
		if existing.ISBN == b.ISBN {
			return book.ErrISBNDuplicate
		}
	}

	now := time.Now()
	b.ID = r.s.nextID()
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.data.books[b.ID] = copyBook(*b)
	return nil
}

func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	defer r.s.lock(ctx)()
	return r.get(id)
}

func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	return r.FindByID(ctx, id)
}

func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	defer r.s.lock(ctx)()
	for id, b := range r.s.data.books {
		if b.ISBN == isbn {
			return r.get(id)
		}
	}
	return nil, book.ErrBookNotFound
}

func (r *bookRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	_, err := r.FindByISBN(ctx, isbn)
	if err == book.ErrBookNotFound {
		return false, nil
	}
	return err == nil, err
}

// Update 不修改库存,与mysql实现一致
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.data.books[b.ID]
	if !ok {
		return book.ErrBookNotFound
	}
	for id, other := range r.s.data.books {
		if id != b.ID && other.ISBN == b.ISBN {
			return book.ErrISBNDuplicate
		}
	}

	updated := copyBook(*b)
	updated.Stock = stored.Stock
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now()
	r.s.data.books[b.ID] = updated
	b.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id uint) (bool, error) {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.books[id]; !ok {
		return false, nil
	}
	delete(r.s.data.books, id)
	return true, nil
}

func (r *bookRepository) DeleteByCategoryID(ctx context.Context, categoryID uint) ([]uint, error) {
	defer r.s.lock(ctx)()

	var ids []uint
	for id, b := range r.s.data.books {
		if b.InCategory(categoryID) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		delete(r.s.data.books, id)
	}
	return ids, nil
}

func (r *bookRepository) List(ctx context.Context, filter book.Filter) ([]*book.Book, error) {
	defer r.s.lock(ctx)()

	title := strings.ToLower(filter.TitleContains)
	author := strings.ToLower(filter.AuthorContains)

	result := make([]*book.Book, 0)
	for id, b := range r.s.data.books {
		if title != "" && !strings.Contains(strings.ToLower(b.Title), title) {
			continue
		}
		if author != "" && !strings.Contains(strings.ToLower(b.Author), author) {
			continue
		}
		if filter.CategoryID != nil && !b.InCategory(*filter.CategoryID) {
			continue
		}
		if filter.PublicationYear != nil && b.PublicationYear != *filter.PublicationYear {
			continue
		}
		found, _ := r.get(id)
		result = append(result, found)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *bookRepository) UpdateStock(ctx context.Context, id uint, delta int) error {
	defer r.s.lock(ctx)()

	b, ok := r.s.data.books[id]
	if !ok {
		return book.ErrBookNotFound
	}
	if b.Stock+delta < 0 {
		return book.ErrInsufficientStock
	}
	b.Stock += delta
	b.UpdatedAt = time.Now()
	r.s.data.books[id] = b
	return nil
}

// get 调用方已持锁
func (r *bookRepository) get(id uint) (*book.Book, error) {
	b, ok := r.s.data.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	found := copyBook(b)
	return &found, nil
}
