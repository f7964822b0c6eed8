package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/transaction"
	"github.com/xiebiao/bookshop/pkg/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestBookRepository_UpdateStock(t *testing.T) {
	ctx := context.Background()

	t.Run("扣减成功", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewBookRepository(db)

		mock.ExpectExec("UPDATE `books` SET").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateStock(ctx, 1, -2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("库存不足", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewBookRepository(db)

		mock.ExpectExec("UPDATE `books` SET").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT \\* FROM `books`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "stock", "price"}).AddRow(1, "Go", 1, "10.00"))

		err := repo.UpdateStock(ctx, 1, -2)
		assert.ErrorIs(t, err, book.ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("图书不存在", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewBookRepository(db)

		mock.ExpectExec("UPDATE `books` SET").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT \\* FROM `books`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := repo.UpdateStock(ctx, 99, 1)
		assert.ErrorIs(t, err, book.ErrBookNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookRepository_CreateDuplicateISBN(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookRepository(db)

	mock.ExpectExec("INSERT INTO `books`").
		WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry '978-1' for key 'isbn'"})

	err := repo.Create(context.Background(), &book.Book{Title: "Go", Author: "A", ISBN: "978-1", Price: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, book.ErrISBNDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_FindByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `books`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	found, err := repo.FindByID(context.Background(), 42)
	assert.Nil(t, found)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestOrderRepository_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectExec("DELETE FROM `order_items`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `orders`").WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_ListCreatedRangeExclusive(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOrderRepository(db)

	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	before := after.Add(24 * time.Hour)
	mock.ExpectQuery("SELECT \\* FROM `orders` WHERE created_at > \\? AND created_at < \\?").
		WithArgs(after, before).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	list, err := repo.List(context.Background(), order.Filter{CreatedAfter: &after, CreatedBefore: &before})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_DeleteItemNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectExec("DELETE FROM `order_items`").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteItem(context.Background(), 5)
	assert.ErrorIs(t, err, order.ErrOrderItemNotFound)
}

func TestTxManager_RetryOnDeadlock(t *testing.T) {
	db, mock := setupMockDB(t)
	txm := NewTxManager(db, 2, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	attempts := 0
	err := txm.Transaction(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return &mysql.MySQLError{Number: mysqlDeadlock, Message: "Deadlock found"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_GiveUpAfterMaxRetries(t *testing.T) {
	db, mock := setupMockDB(t)
	txm := NewTxManager(db, 1, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectRollback()

	attempts := 0
	err := txm.Transaction(context.Background(), func(ctx context.Context) error {
		attempts++
		return &pq.Error{Code: pqSerializationFailure}
	})
	assert.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_NoRetryOnBusinessError(t *testing.T) {
	db, mock := setupMockDB(t)
	txm := NewTxManager(db, 3, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectRollback()

	attempts := 0
	err := txm.Transaction(context.Background(), func(ctx context.Context) error {
		attempts++
		return book.ErrInsufficientStock
	})
	assert.ErrorIs(t, err, book.ErrInsufficientStock)
	assert.Equal(t, 1, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_NestedJoinsOuter(t *testing.T) {
	db, mock := setupMockDB(t)
	txm := NewTxManager(db, 0, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectCommit()

	var outer, inner *gorm.DB
	err := txm.Transaction(context.Background(), func(ctx context.Context) error {
		outer = getDB(ctx, db)
		return txm.Transaction(ctx, func(ctx context.Context) error {
			inner = getDB(ctx, db)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Same(t, outer, inner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_AfterCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("提交后执行", func(t *testing.T) {
		db, mock := setupMockDB(t)
		txm := NewTxManager(db, 0, logger.Discard())
		mock.ExpectBegin()
		mock.ExpectCommit()

		var calls []string
		err := txm.Transaction(ctx, func(ctx context.Context) error {
			return txm.Transaction(ctx, func(ctx context.Context) error {
				transaction.AfterCommit(ctx, func() { calls = append(calls, "hook") })
				calls = append(calls, "body")
				return nil
			})
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"body", "hook"}, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("回滚不执行", func(t *testing.T) {
		db, mock := setupMockDB(t)
		txm := NewTxManager(db, 0, logger.Discard())
		mock.ExpectBegin()
		mock.ExpectRollback()

		called := false
		err := txm.Transaction(ctx, func(ctx context.Context) error {
			transaction.AfterCommit(ctx, func() { called = true })
			return book.ErrInsufficientStock
		})
		assert.ErrorIs(t, err, book.ErrInsufficientStock)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("重试只执行最终提交的那次", func(t *testing.T) {
		db, mock := setupMockDB(t)
		txm := NewTxManager(db, 1, logger.Discard())
		mock.ExpectBegin()
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectCommit()

		attempts, calls := 0, 0
		err := txm.Transaction(ctx, func(ctx context.Context) error {
			attempts++
			transaction.AfterCommit(ctx, func() { calls++ })
			if attempts == 1 {
				return &mysql.MySQLError{Number: mysqlDeadlock, Message: "Deadlock found"}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		duplicate bool
		retryable bool
	}{
		{"mysql重复键", &mysql.MySQLError{Number: mysqlDuplicateEntry}, true, false},
		{"mysql死锁", &mysql.MySQLError{Number: mysqlDeadlock}, false, true},
		{"mysql锁等待超时", &mysql.MySQLError{Number: mysqlLockWaitTimeout}, false, true},
		{"pq唯一约束", &pq.Error{Code: pqUniqueViolation}, true, false},
		{"pq死锁", &pq.Error{Code: pqDeadlockDetected}, false, true},
		{"gorm重复键", gorm.ErrDuplicatedKey, true, false},
		{"包装后的死锁", errors.Join(errors.New("ctx"), &mysql.MySQLError{Number: mysqlDeadlock}), false, true},
		{"普通错误", errors.New("boom"), false, false},
		{"nil", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.duplicate, isDuplicateError(tt.err))
			assert.Equal(t, tt.retryable, isRetryable(tt.err))
		})
	}
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%go%", likePattern("Go"))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_OFF"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, ParseLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, ParseLogLevel("ERROR"))
	assert.Equal(t, gormlogger.Info, ParseLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, ParseLogLevel("whatever"))
}
