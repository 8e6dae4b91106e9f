package task

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"github.com/blues/crowdvc/internal/config"
	"github.com/blues/crowdvc/internal/logger"
	"github.com/blues/crowdvc/internal/model"
	"github.com/blues/crowdvc/internal/settle"
)

// VotingDeadlineJob 投票截止结算任务
//
// 扫描已过投票截止时间仍处于进行中的池，逐个触发结算。
type VotingDeadlineJob struct {
	db     *gorm.DB
	config *config.Config
	engine *settle.Engine
}

// NewVotingDeadlineJob 创建投票截止结算任务
func NewVotingDeadlineJob(db *gorm.DB, cfg *config.Config, engine *settle.Engine) *VotingDeadlineJob {
	return &VotingDeadlineJob{db: db, config: cfg, engine: engine}
}

// GetName 获取任务名称
func (j *VotingDeadlineJob) GetName() string {
	return "voting_deadline_sweeper"
}

// GetSchedule 获取调度配置
func (j *VotingDeadlineJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *VotingDeadlineJob) Execute() {
	now := time.Now()

	var pools []model.PoolModel
	err := j.db.Where("status = ? AND voting_deadline <= ?", model.PoolStatusActive, now).
		Find(&pools).Error
	if err != nil {
		logger.Error("Failed to fetch pools past voting deadline: %v", err)
		return
	}
	if len(pools) == 0 {
		return
	}

	logger.Info("Voting deadline sweep: %d pools to settle", len(pools))

	settledCount := 0
	for _, pool := range pools {
		result, err := j.engine.EndVoting(context.Background(), pool.Id)
		if err != nil {
			// API 调用可能抢先结算了同一个池
			if errors.Is(err, settle.ErrPoolNotActive) {
				continue
			}
			logger.Error("Failed to settle pool %d: %v", pool.Id, err)
			continue
		}
		logger.Info("Pool %d settled by sweeper: status=%s winners=%d",
			pool.Id, result.Status, len(result.Winners))
		settledCount++
	}

	logger.Info("Voting deadline sweep completed. Settled %d pools", settledCount)
}
