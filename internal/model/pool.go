package model

import (
	"time"
)

// PoolModel 投资池模型
type PoolModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Name     string `json:"name" gorm:"not null" binding:"required"`
	Category string `json:"category"`

	// 募资信息（金额统一为最小单位整数）
	FundingGoal     int64  `json:"funding_goal" gorm:"not null" binding:"required,min=1"`
	Token           string `json:"token" gorm:"not null"`
	TokenDecimals   int    `json:"token_decimals" gorm:"default:18"`
	MinContribution int64  `json:"min_contribution" gorm:"default:0"`
	MaxContribution int64  `json:"max_contribution" gorm:"default:0"`
	FeeBps          int64  `json:"fee_bps" gorm:"default:0"`
	PenaltyBps      int64  `json:"penalty_bps" gorm:"default:0"`

	// 时间信息
	VotingDeadline  time.Time `json:"voting_deadline" gorm:"not null"`
	FundingDeadline time.Time `json:"funding_deadline" gorm:"not null"`

	// 状态
	Status PoolStatus `json:"status" gorm:"default:'active'"`

	// 汇总信息
	TotalGross      int64 `json:"total_gross" gorm:"default:0"`       // 总贡献金额（含手续费）
	TotalNet        int64 `json:"total_net" gorm:"default:0"`         // 扣除手续费后的总金额
	TotalFees       int64 `json:"total_fees" gorm:"default:0"`        // 累计手续费
	TotalPenalties  int64 `json:"total_penalties" gorm:"default:0"`   // 累计提前退出罚金
	TotalVoteWeight int64 `json:"total_vote_weight" gorm:"default:0"` // 总投票权重
}

// PoolStatus 池状态
type PoolStatus string

const (
	PoolStatusActive PoolStatus = "active" // 进行中
	PoolStatusFunded PoolStatus = "funded" // 达标，进入里程碑分配
	PoolStatusFailed PoolStatus = "failed" // 未达标，可退款
	PoolStatusClosed PoolStatus = "closed" // 分配完成，已归档
)

// TableName 自定义表名
func (PoolModel) TableName() string {
	return "pool"
}
