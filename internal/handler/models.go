package handler

import (
	"time"

	"github.com/blues/crowdvc/internal/settle"
)

// CreatePoolRequest 创建池请求
type CreatePoolRequest struct {
	Name            string             `json:"name" binding:"required"`
	Category        string             `json:"category"`
	FundingGoal     int64              `json:"funding_goal" binding:"required,min=1"`
	Token           string             `json:"token" binding:"required"`
	TokenDecimals   int                `json:"token_decimals"`
	MinContribution int64              `json:"min_contribution"`
	MaxContribution int64              `json:"max_contribution"`
	VotingDeadline  time.Time          `json:"voting_deadline" binding:"required"`
	FundingDeadline time.Time          `json:"funding_deadline" binding:"required"`
	Candidates      []CandidateRequest `json:"candidates" binding:"required,dive"`
}

// CandidateRequest 候选项目
type CandidateRequest struct {
	PitchId      int64  `json:"pitch_id" binding:"required,min=1"`
	OwnerAddress string `json:"owner_address" binding:"required"`
}

// ContributeRequest 贡献请求
type ContributeRequest struct {
	Amount  int64  `json:"amount" binding:"required,min=1"`
	Token   string `json:"token" binding:"required"`
	PitchId int64  `json:"pitch_id"`
}

// VoteRequest 投票请求
type VoteRequest struct {
	PitchId int64 `json:"pitch_id" binding:"required,min=1"`
}

// SetMilestonesRequest 设置里程碑请求
type SetMilestonesRequest struct {
	Milestones []settle.MilestoneInput `json:"milestones" binding:"required,dive"`
}

// CompleteMilestoneRequest 里程碑完成请求
type CompleteMilestoneRequest struct {
	EvidenceRef string `json:"evidence_ref" binding:"required"`
}

// DisputeRequest 争议标记请求
type DisputeRequest struct {
	Disputed bool `json:"disputed"`
}
