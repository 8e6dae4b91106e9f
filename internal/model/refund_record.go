package model

import (
	"time"
)

// RefundRecordModel 退款记录
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PoolId         int64  `json:"pool_id" gorm:"not null;index"`
	ContributionId int64  `json:"contribution_id" gorm:"not null"`
	Address        string `json:"address" gorm:"not null"`
	Amount         int64  `json:"amount" gorm:"not null"`  // 实际退还金额
	Penalty        int64  `json:"penalty" gorm:"default:0"` // 提前退出时扣除的罚金
	Kind           RefundKind `json:"kind" gorm:"not null"`
	TxHash         string `json:"tx_hash" gorm:"uniqueIndex"`
}

// RefundKind 退款类型
type RefundKind string

const (
	RefundKindEarlyWithdraw RefundKind = "early_withdraw" // 投票截止前提前退出（扣罚金）
	RefundKindPoolFailed    RefundKind = "pool_failed"    // 池失败全额退款（含手续费）
)

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
