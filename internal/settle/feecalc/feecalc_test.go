package feecalc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateFeeBps(t *testing.T) {
	require.NoError(t, ValidateFeeBps(0))
	require.NoError(t, ValidateFeeBps(250))
	require.NoError(t, ValidateFeeBps(MaxFeeBps))
	require.ErrorIs(t, ValidateFeeBps(MaxFeeBps+1), ErrFeeTooHigh)
	require.ErrorIs(t, ValidateFeeBps(-1), ErrFeeTooHigh)
}

func TestPlatformFee(t *testing.T) {
	require.Equal(t, int64(25), PlatformFee(1000, 250))
	require.Equal(t, int64(0), PlatformFee(1000, 0))
	require.Equal(t, int64(975), NetAmount(1000, 250))

	// 整数截断：39 * 250 / 10000 = 0
	require.Equal(t, int64(0), PlatformFee(39, 250))
	require.Equal(t, int64(39), NetAmount(39, 250))
}

func TestEarlyWithdrawalPenalty(t *testing.T) {
	penalty, refund := EarlyWithdrawalPenalty(500, 1000)
	require.Equal(t, int64(50), penalty)
	require.Equal(t, int64(450), refund)

	// 守恒：penalty + refund == amount，任意组合无舍入损耗
	for _, amount := range []int64{1, 3, 7, 99, 500, 10001, 123456789} {
		for _, bps := range []int64{0, 1, 333, 999, 1000, 5000, 9999} {
			p, r := EarlyWithdrawalPenalty(amount, bps)
			require.Equal(t, amount, p+r, "amount=%d bps=%d", amount, bps)
		}
	}
}

func TestProportionalDistribution(t *testing.T) {
	amounts, err := ProportionalDistribution(11000, []int64{6000, 5000})
	require.NoError(t, err)
	require.Equal(t, []int64{6000, 5000}, amounts)

	// 余数归入最后一份
	amounts, err = ProportionalDistribution(100, []int64{1, 1, 1})
	require.NoError(t, err)
	require.Equal(t, []int64{33, 33, 34}, amounts)

	// 分配守恒
	for _, total := range []int64{1, 10, 9999, 1000001} {
		amounts, err := ProportionalDistribution(total, []int64{7, 13, 29, 1})
		require.NoError(t, err)
		var sum int64
		for _, a := range amounts {
			sum += a
		}
		require.Equal(t, total, sum, "total=%d", total)
	}
}

func TestProportionalDistributionNoVotes(t *testing.T) {
	_, err := ProportionalDistribution(1000, []int64{0, 0})
	require.ErrorIs(t, err, ErrNoVotes)
}

func TestAllocationPercent(t *testing.T) {
	require.Equal(t, int64(5454), AllocationPercent(6000, 11000))
	require.Equal(t, int64(4545), AllocationPercent(5000, 11000))
	require.Equal(t, int64(10000), AllocationPercent(500, 500))
	require.Equal(t, int64(0), AllocationPercent(500, 0))
}
