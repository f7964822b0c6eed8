package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookshop/internal/domain/book"
)

// BookCache 图书详情缓存(Cache-Aside)
//
//	读: 先查缓存,未命中再查库并回填
//	写: 先写库,再删缓存
//
// 缓存读写失败只记日志,降级为直接查库
type BookCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewBookCache 创建图书缓存
func NewBookCache(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *BookCache {
	return &BookCache{client: client, ttl: ttl, log: log}
}

// Get 未命中或出错返回nil
func (c *BookCache) Get(ctx context.Context, id uint) *book.Book {
	data, err := c.client.Get(ctx, bookKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("book_id", id).Warn("读取图书缓存失败")
		}
		return nil
	}

	var b book.Book
	if err := json.Unmarshal(data, &b); err != nil {
		c.log.WithError(err).WithField("book_id", id).Warn("图书缓存数据损坏")
		return nil
	}
	return &b
}

// Set 回填缓存
func (c *BookCache) Set(ctx context.Context, b *book.Book) {
	data, err := json.Marshal(b)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, bookKey(b.ID), data, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("book_id", b.ID).Warn("写入图书缓存失败")
	}
}

// Invalidate 删除缓存
func (c *BookCache) Invalidate(ctx context.Context, ids ...uint) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = bookKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).WithField("book_ids", ids).Warn("删除图书缓存失败")
	}
}

func bookKey(id uint) string {
	return fmt.Sprintf("book:%d", id)
}
