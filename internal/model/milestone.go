package model

import (
	"time"
)

// MilestoneModel 获胜项目的里程碑
type MilestoneModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PoolId  int64 `json:"pool_id" gorm:"not null;uniqueIndex:idx_pool_pitch_idx,priority:1"`
	PitchId int64 `json:"pitch_id" gorm:"not null;uniqueIndex:idx_pool_pitch_idx,priority:2"`
	Idx     int   `json:"idx" gorm:"not null;uniqueIndex:idx_pool_pitch_idx,priority:3"`

	Description string `json:"description" gorm:"type:text;not null"`
	FundingBps  int64  `json:"funding_bps" gorm:"not null"` // 占该项目分配额的比例（基点），同一项目合计 10000

	Completed   bool   `json:"completed" gorm:"default:false"`
	Disputed    bool   `json:"disputed" gorm:"default:false"`
	EvidenceRef string `json:"evidence_ref"`

	ApprovalCount   int64 `json:"approval_count" gorm:"default:0"`
	ApprovalsNeeded int64 `json:"approvals_needed" gorm:"default:0"`

	Distributed       bool       `json:"distributed" gorm:"default:false"`
	DistributedAmount int64      `json:"distributed_amount" gorm:"default:0"`
	DistributedAt     *time.Time `json:"distributed_at"`
	TxHash            string     `json:"tx_hash"`
}

// TableName 自定义表名
func (MilestoneModel) TableName() string {
	return "milestone"
}

// MilestoneApprovalModel 里程碑审批记录（每个投票人每个里程碑一次）
type MilestoneApprovalModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	PoolId  int64  `json:"pool_id" gorm:"not null;uniqueIndex:idx_milestone_approver,priority:1"`
	PitchId int64  `json:"pitch_id" gorm:"not null;uniqueIndex:idx_milestone_approver,priority:2"`
	Idx     int    `json:"idx" gorm:"not null;uniqueIndex:idx_milestone_approver,priority:3"`
	Address string `json:"address" gorm:"not null;uniqueIndex:idx_milestone_approver,priority:4"`
}

// TableName 自定义表名
func (MilestoneApprovalModel) TableName() string {
	return "milestone_approval"
}
