package model

import (
	"time"
)

// TransferRecordModel 代币划转记录
//
// 记录结算引擎发起的每一笔对外划转（里程碑放款、
// 平台手续费入账），与触发它的账本变更同事务写入。
type TransferRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	PoolId  int64           `json:"pool_id" gorm:"not null;index"`
	Purpose TransferPurpose `json:"purpose" gorm:"not null"`
	To      string          `json:"to" gorm:"not null"`
	Token   string          `json:"token" gorm:"not null"`
	Amount  int64           `json:"amount" gorm:"not null"`
	TxHash  string          `json:"tx_hash" gorm:"uniqueIndex"`
}

// TransferPurpose 划转用途
type TransferPurpose string

const (
	TransferPurposeMilestone TransferPurpose = "milestone_payout" // 里程碑放款
	TransferPurposeTreasury  TransferPurpose = "treasury_fee"     // 手续费划入平台金库
)

// TableName 自定义表名
func (TransferRecordModel) TableName() string {
	return "transfer_record"
}
