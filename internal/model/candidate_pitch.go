package model

import (
	"time"
)

// CandidatePitchModel 池内候选项目
type CandidatePitchModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PoolId       int64  `json:"pool_id" gorm:"not null;uniqueIndex:idx_pool_pitch,priority:1"`
	PitchId      int64  `json:"pitch_id" gorm:"not null;uniqueIndex:idx_pool_pitch,priority:2"`
	OwnerAddress string `json:"owner_address" gorm:"not null"`

	// 累计投票信息
	VoteWeight int64 `json:"vote_weight" gorm:"default:0"` // 累计投票权重
	VoterCount int64 `json:"voter_count" gorm:"default:0"` // 投票人数（去重）
}

// TableName 自定义表名
func (CandidatePitchModel) TableName() string {
	return "candidate_pitch"
}
