package validate

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrEmptyAddress      = errors.New("地址不能为空")
	ErrInvalidAddress    = errors.New("地址格式无效")
	ErrNonPositiveAmount = errors.New("金额必须大于0")
	ErrEmptyName         = errors.New("名称不能为空")
	ErrDurationTooShort  = errors.New("持续时间低于下限")
	ErrDurationTooLong   = errors.New("持续时间超过上限")
	ErrGoalTooLow        = errors.New("目标金额低于下限")
	ErrGoalTooHigh       = errors.New("目标金额超过上限")
	ErrDeadlineNotFuture = errors.New("截止时间必须晚于当前时间")
	ErrDeadlineOrder     = errors.New("投票截止时间必须早于募资截止时间")
	ErrBoundsOrder       = errors.New("最小贡献额不能大于最大贡献额")
	ErrNoCandidates      = errors.New("候选项目不能为空")
	ErrDuplicatePitch    = errors.New("候选项目重复")
	ErrNonPositiveId     = errors.New("标识必须大于0")
)

// Address 校验地址非空且为合法的十六进制地址
func Address(addr string) error {
	if addr == "" {
		return ErrEmptyAddress
	}
	if !common.IsHexAddress(addr) {
		return ErrInvalidAddress
	}
	return nil
}

// PositiveAmount 校验金额为正
func PositiveAmount(amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	return nil
}

// PositiveId 校验标识为正
func PositiveId(id int64) error {
	if id <= 0 {
		return ErrNonPositiveId
	}
	return nil
}

// NonEmpty 校验字符串非空
func NonEmpty(s string) error {
	if s == "" {
		return ErrEmptyName
	}
	return nil
}

// Duration 校验持续时间在 [min, max] 范围内
func Duration(d, min, max time.Duration) error {
	if d < min {
		return ErrDurationTooShort
	}
	if max > 0 && d > max {
		return ErrDurationTooLong
	}
	return nil
}

// FundingGoal 校验目标金额在 [min, max] 范围内
func FundingGoal(goal, min, max int64) error {
	if goal < min {
		return ErrGoalTooLow
	}
	if max > 0 && goal > max {
		return ErrGoalTooHigh
	}
	return nil
}

// FutureDeadline 校验截止时间严格在未来
func FutureDeadline(deadline, now time.Time) error {
	if !deadline.After(now) {
		return ErrDeadlineNotFuture
	}
	return nil
}

// PoolBounds 新池的全局边界配置
type PoolBounds struct {
	MinGoal     int64
	MaxGoal     int64
	MinDuration time.Duration
	MaxDuration time.Duration
}

// CandidateInput 新池请求中的候选项目
type CandidateInput struct {
	PitchId      int64
	OwnerAddress string
}

// NewPoolInput 新池请求
type NewPoolInput struct {
	Name            string
	FundingGoal     int64
	MinContribution int64
	MaxContribution int64
	VotingDeadline  time.Time
	FundingDeadline time.Time
	Candidates      []CandidateInput
}

// NewPool 组合校验新池请求，遇到第一个错误即返回
func NewPool(in NewPoolInput, bounds PoolBounds, now time.Time) error {
	if err := NonEmpty(in.Name); err != nil {
		return err
	}
	if err := FundingGoal(in.FundingGoal, bounds.MinGoal, bounds.MaxGoal); err != nil {
		return err
	}
	if in.MaxContribution > 0 && in.MinContribution > in.MaxContribution {
		return ErrBoundsOrder
	}
	if err := FutureDeadline(in.VotingDeadline, now); err != nil {
		return err
	}
	if !in.VotingDeadline.Before(in.FundingDeadline) {
		return ErrDeadlineOrder
	}
	if err := Duration(in.FundingDeadline.Sub(now), bounds.MinDuration, bounds.MaxDuration); err != nil {
		return err
	}
	if len(in.Candidates) == 0 {
		return ErrNoCandidates
	}
	seen := make(map[int64]struct{}, len(in.Candidates))
	for _, c := range in.Candidates {
		if err := PositiveId(c.PitchId); err != nil {
			return err
		}
		if _, ok := seen[c.PitchId]; ok {
			return ErrDuplicatePitch
		}
		seen[c.PitchId] = struct{}{}
		if err := Address(c.OwnerAddress); err != nil {
			return err
		}
	}
	return nil
}
