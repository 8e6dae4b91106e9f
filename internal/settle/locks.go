package settle

import (
	"sync"
	"sync/atomic"
)

// poolLock 单个池的写锁
//
// transferring 是划转进行中标志：引擎在临界区内发起对外划转前置位，
// 划转回调若试图重入同一个池的写路径，会在拿锁前被该标志挡下，
// 相当于链上重入保护的离线版本。
type poolLock struct {
	mu           sync.Mutex
	transferring atomic.Bool
}

// lockRegistry 按池ID惰性分配写锁；不同池的操作完全并行
type lockRegistry struct {
	mu    sync.Mutex
	locks map[int64]*poolLock
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[int64]*poolLock)}
}

func (r *lockRegistry) get(poolId int64) *poolLock {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[poolId]
	if !ok {
		l = &poolLock{}
		r.locks[poolId] = l
	}
	return l
}

// acquire 进入池的单写临界区；划转进行中直接失败
func (r *lockRegistry) acquire(poolId int64) (*poolLock, error) {
	l := r.get(poolId)
	if l.transferring.Load() {
		return nil, ErrTransferInProgress
	}
	l.mu.Lock()
	return l, nil
}

func (l *poolLock) release() {
	l.mu.Unlock()
}

// beginTransfer 标记划转开始，返回结束函数
func (l *poolLock) beginTransfer() func() {
	l.transferring.Store(true)
	return func() { l.transferring.Store(false) }
}
