package transfer

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// MockRecord 一条模拟划转记录
type MockRecord struct {
	Direction string // collect / payout
	Address   string
	Token     string
	Amount    int64
}

// MockClient 内存版划转实现
//
// 链未启用时由组合根注入，生成模拟交易哈希并记录每笔划转；
// 引擎测试用它断言资金流动。
type MockClient struct {
	mu      sync.Mutex
	records []MockRecord

	// FailNext 置位后下一次调用返回错误（测试回滚路径用）
	FailNext bool
}

// NewMockClient 创建内存版划转客户端
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Collect 记录收款并返回模拟交易哈希
func (m *MockClient) Collect(_ context.Context, from, token string, amount int64) (string, error) {
	return m.record("collect", from, token, amount)
}

// Payout 记录付款并返回模拟交易哈希
func (m *MockClient) Payout(_ context.Context, to, token string, amount int64) (string, error) {
	return m.record("payout", to, token, amount)
}

// Records 返回目前为止的全部划转记录
func (m *MockClient) Records() []MockRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockRecord, len(m.records))
	copy(out, m.records)
	return out
}

func (m *MockClient) record(direction, addr, token string, amount int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return "", fmt.Errorf("mock transfer failure: %s %d %s", direction, amount, token)
	}
	m.records = append(m.records, MockRecord{
		Direction: direction,
		Address:   addr,
		Token:     token,
		Amount:    amount,
	})
	return mockTxHash(), nil
}

// mockTxHash 生成模拟交易哈希
func mockTxHash() string {
	b := make([]byte, 32)
	rand.Read(b)
	return "0x" + hex.EncodeToString(b)
}
