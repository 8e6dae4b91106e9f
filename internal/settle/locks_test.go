package settle

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockRegistrySerializesSamePool(t *testing.T) {
	r := newLockRegistry()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := r.acquire(1)
			require.NoError(t, err)
			defer l.release()
			counter++
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
}

func TestLockRegistryParallelAcrossPools(t *testing.T) {
	r := newLockRegistry()

	l1, err := r.acquire(1)
	require.NoError(t, err)
	defer l1.release()

	// 持有池1的锁时，池2的操作不受影响
	done := make(chan struct{})
	go func() {
		l2, err := r.acquire(2)
		require.NoError(t, err)
		l2.release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("acquiring a different pool's lock blocked")
	}
}

func TestLockRejectsReentryDuringTransfer(t *testing.T) {
	r := newLockRegistry()

	l, err := r.acquire(1)
	require.NoError(t, err)
	end := l.beginTransfer()

	// 划转进行中：同一个池的写路径被拒绝，而不是死锁
	_, err = r.acquire(1)
	require.ErrorIs(t, err, ErrTransferInProgress)

	end()
	l.release()

	l2, err := r.acquire(1)
	require.NoError(t, err)
	l2.release()
}
