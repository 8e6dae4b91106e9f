package task

import (
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"github.com/blues/crowdvc/internal/config"
	"github.com/blues/crowdvc/internal/logger"
	"github.com/blues/crowdvc/internal/model"
	"github.com/blues/crowdvc/internal/settle"
)

// PoolArchiveJob 池归档任务
//
// 扫描已达标池，分配额度全部领取完毕的转入关闭状态。
type PoolArchiveJob struct {
	db     *gorm.DB
	config *config.Config
	engine *settle.Engine
}

// NewPoolArchiveJob 创建池归档任务
func NewPoolArchiveJob(db *gorm.DB, cfg *config.Config, engine *settle.Engine) *PoolArchiveJob {
	return &PoolArchiveJob{db: db, config: cfg, engine: engine}
}

// GetName 获取任务名称
func (j *PoolArchiveJob) GetName() string {
	return "pool_archiver"
}

// GetSchedule 获取调度配置
func (j *PoolArchiveJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *PoolArchiveJob) Execute() {
	var pools []model.PoolModel
	err := j.db.Where("status = ?", model.PoolStatusFunded).Find(&pools).Error
	if err != nil {
		logger.Error("Failed to fetch funded pools: %v", err)
		return
	}
	if len(pools) == 0 {
		return
	}

	closedCount := 0
	for _, pool := range pools {
		if err := j.engine.ClosePool(pool.Id); err != nil {
			// 仍有未领取完的分配，留待下次扫描
			if errors.Is(err, settle.ErrNotDistributable) || errors.Is(err, settle.ErrPoolNotFunded) {
				continue
			}
			logger.Error("Failed to archive pool %d: %v", pool.Id, err)
			continue
		}
		closedCount++
	}

	if closedCount > 0 {
		logger.Info("Pool archive sweep completed. Closed %d pools", closedCount)
	}
}
