package settle

import (
	"sort"

	"github.com/blues/crowdvc/internal/settle/feecalc"
)

// pitchRank 排名条目
type pitchRank struct {
	PitchId int64
	Weight  int64
}

// rankPitches 按投票权重降序排序，同权重按 pitch id 升序
//
// 这里的 id 升序只决定展示顺序和余数归属，不用于淘汰。
func rankPitches(entries []pitchRank) []pitchRank {
	ranked := make([]pitchRank, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		return ranked[i].PitchId < ranked[j].PitchId
	})
	return ranked
}

// selectWinners 选出前 maxWinners 名，并把与末位权重并列的项目全部纳入
//
// 平票不淘汰，因此获胜数可能超过 maxWinners。零权重项目不入选。
func selectWinners(entries []pitchRank, maxWinners int) []pitchRank {
	ranked := rankPitches(entries)

	// 去掉零票项目
	n := 0
	for _, e := range ranked {
		if e.Weight > 0 {
			ranked[n] = e
			n++
		}
	}
	ranked = ranked[:n]

	if maxWinners <= 0 || len(ranked) <= maxWinners {
		return ranked
	}

	// 与第 maxWinners 名同权重的全部保留
	cutoff := ranked[maxWinners-1].Weight
	end := maxWinners
	for end < len(ranked) && ranked[end].Weight == cutoff {
		end++
	}
	return ranked[:end]
}

// winnerAllocPlan 单个获胜项目的分配方案
type winnerAllocPlan struct {
	PitchId int64
	Weight  int64
	Bps     int64
	Amount  int64
}

// planAllocations 根据获胜名单和净池总额计算各项目分配
//
// 比例相对获胜项目的权重之和计算；金额按比例整除，
// 余数归入排名最后的项目，保证合计恰好等于 netTotal。
// bps 一律向下取整，合计可以小于 10000 基点且余下基点不补给
// 任何项目：守恒只由金额列保证，bps 仅作展示口径。
func planAllocations(netTotal int64, winners []pitchRank) ([]winnerAllocPlan, error) {
	weights := make([]int64, len(winners))
	var winnerWeight int64
	for i, w := range winners {
		weights[i] = w.Weight
		winnerWeight += w.Weight
	}

	amounts, err := feecalc.ProportionalDistribution(netTotal, weights)
	if err != nil {
		return nil, err
	}

	plans := make([]winnerAllocPlan, len(winners))
	for i, w := range winners {
		plans[i] = winnerAllocPlan{
			PitchId: w.PitchId,
			Weight:  w.Weight,
			Bps:     feecalc.AllocationPercent(w.Weight, winnerWeight),
			Amount:  amounts[i],
		}
	}
	return plans, nil
}

// quorumNeeded 计算里程碑审批法定人数
//
// 按该项目的去重投票人数取比例并向上取整，至少为 1；
// 按人数而非权重计，避免单一大户独自放款。
func quorumNeeded(voterCount, quorumBps int64) int64 {
	if voterCount <= 0 {
		return 1
	}
	needed := (voterCount*quorumBps + feecalc.BpsDenominator - 1) / feecalc.BpsDenominator
	if needed < 1 {
		needed = 1
	}
	return needed
}
