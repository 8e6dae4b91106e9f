package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockClientRecords(t *testing.T) {
	m := NewMockClient()
	ctx := context.Background()

	hash, err := m.Collect(ctx, "0xaaa", "USDT", 500)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	_, err = m.Payout(ctx, "0xbbb", "USDT", 300)
	require.NoError(t, err)

	records := m.Records()
	require.Len(t, records, 2)
	require.Equal(t, "collect", records[0].Direction)
	require.Equal(t, int64(500), records[0].Amount)
	require.Equal(t, "payout", records[1].Direction)
	require.Equal(t, "0xbbb", records[1].Address)
}

func TestMockClientFailNext(t *testing.T) {
	m := NewMockClient()
	m.FailNext = true

	_, err := m.Payout(context.Background(), "0xbbb", "USDT", 300)
	require.Error(t, err)
	require.Empty(t, m.Records())

	// 失败只生效一次
	_, err = m.Payout(context.Background(), "0xbbb", "USDT", 300)
	require.NoError(t, err)
	require.Len(t, m.Records(), 1)
}
