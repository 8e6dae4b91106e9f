package model

import (
	"time"
)

// VoteModel 投票记录
//
// 每个贡献者在一个池内最多一票；贡献前可以改票，
// 贡献到账后票被锁定。
type VoteModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PoolId  int64  `json:"pool_id" gorm:"not null;uniqueIndex:idx_pool_voter,priority:1"`
	Address string `json:"address" gorm:"not null;uniqueIndex:idx_pool_voter,priority:2"`
	PitchId int64  `json:"pitch_id" gorm:"not null;index"`

	Weight int64 `json:"weight" gorm:"default:0"`       // 投票权重（净贡献额）
	Locked bool  `json:"locked" gorm:"default:false"`   // 贡献后锁定
}

// TableName 自定义表名
func (VoteModel) TableName() string {
	return "vote"
}
