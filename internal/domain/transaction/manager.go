package transaction

import (
	"context"
	"sync"
)

// Manager 事务管理器接口
// 由infrastructure层(mysql.TxManager、memory.Store)实现,fn内所有仓储操作在同一事务中执行。
// ctx中已有事务时加入外层事务,不再开启新事务。
// 实现方在最外层事务开始时调用WithCommitHooks,提交成功后执行返回的run。
type Manager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type hooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func()
}

// WithCommitHooks 为一次事务尝试创建回调作用域
// 提交成功后调用run;回滚或重试时丢弃,不调用run
func WithCommitHooks(ctx context.Context) (txCtx context.Context, run func()) {
	h := &commitHooks{}
	return context.WithValue(ctx, hooksKey{}, h), h.run
}

// AfterCommit 注册最外层事务提交后执行的回调
// ctx不在事务中时立即执行
//
//	transaction.AfterCommit(ctx, func() { cache.Invalidate(ctx, id) })
func AfterCommit(ctx context.Context, fn func()) {
	h, ok := ctx.Value(hooksKey{}).(*commitHooks)
	if !ok {
		fn()
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

func (h *commitHooks) run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
