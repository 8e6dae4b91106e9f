package model

import (
	"time"
)

// WinnerAllocationModel 获胜项目的资金分配
type WinnerAllocationModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PoolId  int64 `json:"pool_id" gorm:"not null;uniqueIndex:idx_pool_winner,priority:1"`
	PitchId int64 `json:"pitch_id" gorm:"not null;uniqueIndex:idx_pool_winner,priority:2"`

	Rank          int   `json:"rank" gorm:"not null"`           // 排名（权重降序，pitch id 升序）
	VoteWeight    int64 `json:"vote_weight" gorm:"not null"`    // 结算时的投票权重
	AllocationBps int64 `json:"allocation_bps" gorm:"not null"` // 分配比例（基点）
	Amount        int64 `json:"amount" gorm:"not null"`         // 分配金额
	ClaimedAmount int64 `json:"claimed_amount" gorm:"default:0"`
}

// FullyClaimed 分配是否已全部释放
func (w *WinnerAllocationModel) FullyClaimed() bool {
	return w.ClaimedAmount >= w.Amount
}

// TableName 自定义表名
func (WinnerAllocationModel) TableName() string {
	return "winner_allocation"
}
