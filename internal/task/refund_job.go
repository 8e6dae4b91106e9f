package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"

	"github.com/blues/crowdvc/internal/config"
	"github.com/blues/crowdvc/internal/logger"
	"github.com/blues/crowdvc/internal/model"
	"github.com/blues/crowdvc/internal/settle"
)

// RefundJob 失败池退款任务
//
// 扫描失败池中尚未退款的贡献记录，并发发起退款，避免依赖
// 贡献者逐个主动请求。
type RefundJob struct {
	db     *gorm.DB
	config *config.Config
	engine *settle.Engine
}

// NewRefundJob 创建退款任务
func NewRefundJob(db *gorm.DB, cfg *config.Config, engine *settle.Engine) *RefundJob {
	return &RefundJob{db: db, config: cfg, engine: engine}
}

// GetName 获取任务名称
func (j *RefundJob) GetName() string {
	return "failed_pool_refunder"
}

// GetSchedule 获取调度配置
func (j *RefundJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *RefundJob) Execute() {
	var pools []model.PoolModel
	err := j.db.Where("status = ?", model.PoolStatusFailed).Find(&pools).Error
	if err != nil {
		logger.Error("Failed to fetch failed pools: %v", err)
		return
	}
	if len(pools) == 0 {
		return
	}

	for _, pool := range pools {
		j.refundPool(pool.Id)
	}
}

// refundPool 对单个失败池的未退款贡献并发退款
func (j *RefundJob) refundPool(poolId int64) {
	var contributions []model.ContributionModel
	err := j.db.Where("pool_id = ? AND refunded = ? AND withdrawn = ?", poolId, false, false).
		Find(&contributions).Error
	if err != nil {
		logger.Error("Failed to fetch pending refunds for pool %d: %v", poolId, err)
		return
	}
	if len(contributions) == 0 {
		return
	}

	logger.Info("Refunding pool %d: %d pending contributions", poolId, len(contributions))

	workerPool, err := ants.NewPool(j.config.Task.RefundWorkers)
	if err != nil {
		logger.Error("Failed to create refund worker pool: %v", err)
		return
	}
	defer workerPool.Release()

	var wg sync.WaitGroup
	for _, contribution := range contributions {
		wg.Add(1)
		address := contribution.Address
		submitErr := workerPool.Submit(func() {
			defer wg.Done()
			amount, err := j.engine.RequestRefund(context.Background(), poolId, address)
			if err != nil {
				// 贡献者可能在扫描后自行请求了退款
				if errors.Is(err, settle.ErrAlreadyRefunded) {
					return
				}
				logger.Error("Failed to refund pool %d contributor %s: %v", poolId, address, err)
				return
			}
			logger.Info("Refunded pool %d contributor %s: amount=%d", poolId, address, amount)
		})
		if submitErr != nil {
			wg.Done()
			logger.Error("Failed to submit refund task for pool %d contributor %s: %v",
				poolId, address, submitErr)
		}
	}
	wg.Wait()
}
