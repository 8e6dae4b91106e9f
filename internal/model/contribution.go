package model

import (
	"time"
)

// ContributionModel 贡献记录
//
// 每个 (pool, contributor) 只保留一条累计记录：重复贡献合并到
// 同一条记录上，gross/fee/net 累加，避免覆盖历史数据。
type ContributionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PoolId  int64  `json:"pool_id" gorm:"not null;uniqueIndex:idx_pool_contributor,priority:1"`
	Address string `json:"address" gorm:"not null;uniqueIndex:idx_pool_contributor,priority:2"`

	GrossAmount int64  `json:"gross_amount" gorm:"not null"` // 累计贡献金额
	FeeAmount   int64  `json:"fee_amount" gorm:"default:0"`  // 累计平台手续费
	NetAmount   int64  `json:"net_amount" gorm:"not null"`   // 累计净额（投票权重来源）
	Token       string `json:"token" gorm:"not null"`

	ReceiptId string `json:"receipt_id" gorm:"uniqueIndex;not null"` // 贡献凭证（不可转让）

	Withdrawn bool `json:"withdrawn" gorm:"default:false"` // 是否已提前退出
	Refunded  bool `json:"refunded" gorm:"default:false"`  // 失败池退款标记
}

// TableName 自定义表名
func (ContributionModel) TableName() string {
	return "contribution"
}
