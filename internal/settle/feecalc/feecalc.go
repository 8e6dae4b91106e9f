package feecalc

import (
	"errors"
)

const (
	// BpsDenominator 基点分母，10000 基点 = 100%
	BpsDenominator = 10000

	// MaxFeeBps 平台手续费上限（10%）
	MaxFeeBps = 1000
)

var (
	ErrFeeTooHigh = errors.New("手续费比例超过上限")
	ErrNoVotes    = errors.New("总投票权重为零，无法分配")
)

// ValidateFeeBps 校验手续费配置（创建池时调用一次，不在每笔计算时调用）
func ValidateFeeBps(feeBps int64) error {
	if feeBps < 0 || feeBps > MaxFeeBps {
		return ErrFeeTooHigh
	}
	return nil
}

// PlatformFee 计算平台手续费
func PlatformFee(amount, feeBps int64) int64 {
	return amount * feeBps / BpsDenominator
}

// NetAmount 计算扣除手续费后的净额
func NetAmount(amount, feeBps int64) int64 {
	return amount - PlatformFee(amount, feeBps)
}

// EarlyWithdrawalPenalty 计算提前退出的罚金和退款
//
// 整数运算保证 penalty + refund == amount，不产生舍入损耗。
func EarlyWithdrawalPenalty(amount, penaltyBps int64) (penalty, refund int64) {
	penalty = amount * penaltyBps / BpsDenominator
	refund = amount - penalty
	return penalty, refund
}

// ProportionalDistribution 按权重比例分配总额
//
// 每份为 totalAmount * weight / sum(weights) 的整数商，
// 舍入余数全部归入最后一份，保证 sum(amounts) == totalAmount。
// 权重顺序由调用方确定并保持稳定。
func ProportionalDistribution(totalAmount int64, weights []int64) ([]int64, error) {
	var totalWeight int64
	for _, w := range weights {
		totalWeight += w
	}
	if totalWeight == 0 {
		return nil, ErrNoVotes
	}

	amounts := make([]int64, len(weights))
	var distributed int64
	for i, w := range weights {
		amounts[i] = totalAmount * w / totalWeight
		distributed += amounts[i]
	}

	// 余数补给最后一份
	amounts[len(amounts)-1] += totalAmount - distributed
	return amounts, nil
}

// AllocationPercent 计算权重占比（基点）
func AllocationPercent(weight, totalWeight int64) int64 {
	if totalWeight == 0 {
		return 0
	}
	return weight * BpsDenominator / totalWeight
}
