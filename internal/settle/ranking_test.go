package settle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRankPitches(t *testing.T) {
	ranked := rankPitches([]pitchRank{
		{PitchId: 3, Weight: 100},
		{PitchId: 1, Weight: 300},
		{PitchId: 2, Weight: 300},
		{PitchId: 4, Weight: 200},
	})
	require.Equal(t, []pitchRank{
		{PitchId: 1, Weight: 300},
		{PitchId: 2, Weight: 300},
		{PitchId: 4, Weight: 200},
		{PitchId: 3, Weight: 100},
	}, ranked)
}

func TestSelectWinnersTopThree(t *testing.T) {
	winners := selectWinners([]pitchRank{
		{PitchId: 1, Weight: 500},
		{PitchId: 2, Weight: 400},
		{PitchId: 3, Weight: 300},
		{PitchId: 4, Weight: 200},
	}, 3)
	require.Len(t, winners, 3)
	require.Equal(t, int64(1), winners[0].PitchId)
	require.Equal(t, int64(3), winners[2].PitchId)
}

func TestSelectWinnersTieAtCutoff(t *testing.T) {
	// 第三名与第四、五名平票：全部纳入，获胜数超过上限
	winners := selectWinners([]pitchRank{
		{PitchId: 1, Weight: 500},
		{PitchId: 2, Weight: 400},
		{PitchId: 3, Weight: 300},
		{PitchId: 4, Weight: 300},
		{PitchId: 5, Weight: 300},
		{PitchId: 6, Weight: 100},
	}, 3)
	require.Len(t, winners, 5)
	require.Equal(t, int64(5), winners[4].PitchId)
}

func TestSelectWinnersExcludesZeroWeight(t *testing.T) {
	winners := selectWinners([]pitchRank{
		{PitchId: 1, Weight: 500},
		{PitchId: 2, Weight: 0},
		{PitchId: 3, Weight: 0},
	}, 3)
	require.Len(t, winners, 1)
	require.Equal(t, int64(1), winners[0].PitchId)
}

func TestSelectWinnersFewerThanMax(t *testing.T) {
	winners := selectWinners([]pitchRank{
		{PitchId: 7, Weight: 6000},
		{PitchId: 9, Weight: 5000},
	}, 3)
	require.Len(t, winners, 2)
}

func TestPlanAllocationsTwoWinnerScenario(t *testing.T) {
	// 两个候选项目，权重 6000/5000，净池总额 11000
	winners := selectWinners([]pitchRank{
		{PitchId: 1, Weight: 6000},
		{PitchId: 2, Weight: 5000},
	}, 3)
	plans, err := planAllocations(11000, winners)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	require.Equal(t, int64(5454), plans[0].Bps)
	require.Equal(t, int64(4545), plans[1].Bps)

	// 金额守恒：余数归入排名最后的项目
	require.Equal(t, int64(11000), plans[0].Amount+plans[1].Amount)
	require.Equal(t, int64(6000), plans[0].Amount)
	require.Equal(t, int64(5000), plans[1].Amount)
}

func TestPlanAllocationsConservation(t *testing.T) {
	winners := []pitchRank{
		{PitchId: 1, Weight: 7},
		{PitchId: 2, Weight: 13},
		{PitchId: 3, Weight: 29},
	}
	for _, net := range []int64{1, 100, 9999, 1000003} {
		plans, err := planAllocations(net, winners)
		require.NoError(t, err)
		var sum int64
		for _, p := range plans {
			sum += p.Amount
		}
		require.Equal(t, net, sum, "net=%d", net)
	}
}

func TestPlanAllocationsNoVotes(t *testing.T) {
	_, err := planAllocations(1000, []pitchRank{{PitchId: 1, Weight: 0}})
	require.Error(t, err)
}

func TestQuorumNeeded(t *testing.T) {
	// 3 个投票人 51% → 2
	require.Equal(t, int64(2), quorumNeeded(3, 5100))
	// 1 个投票人 → 1
	require.Equal(t, int64(1), quorumNeeded(1, 5100))
	// 100 个投票人 51% → 51
	require.Equal(t, int64(51), quorumNeeded(100, 5100))
	// 2 个投票人 51% → 2（1.02 向上取整）
	require.Equal(t, int64(2), quorumNeeded(2, 5100))
	// 无投票人时至少为 1，放款前还有资格校验兜底
	require.Equal(t, int64(1), quorumNeeded(0, 5100))
}
