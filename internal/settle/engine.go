package settle

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/blues/crowdvc/internal/config"
	"github.com/blues/crowdvc/internal/logger"
	"github.com/blues/crowdvc/internal/model"
	"github.com/blues/crowdvc/internal/settle/feecalc"
	"github.com/blues/crowdvc/internal/settle/validate"
	"github.com/blues/crowdvc/internal/transfer"
)

// Engine 投资池结算引擎
//
// 所有会修改池状态的操作都在该池的单写临界区内执行：
// 同一个池的并发调用被串行化，不同池完全并行。
// 对外划转（收款、放款）与触发它的账本变更同属一个数据库事务，
// 划转失败则事务回滚，账本与资金永远一致。
type Engine struct {
	db         *gorm.DB
	cfg        config.SettlementConfig
	transferer transfer.Transferer
	locks      *lockRegistry
}

// NewEngine 创建结算引擎
func NewEngine(db *gorm.DB, cfg config.SettlementConfig, t transfer.Transferer) (*Engine, error) {
	if err := feecalc.ValidateFeeBps(cfg.FeeBps); err != nil {
		return nil, fmt.Errorf("settlement fee config: %w", err)
	}
	if cfg.PenaltyBps < 0 || cfg.PenaltyBps > feecalc.BpsDenominator {
		return nil, fmt.Errorf("settlement penalty config out of range: %d", cfg.PenaltyBps)
	}
	// 收手续费就必须有金库地址，否则结算时手续费滞留托管账户
	if cfg.FeeBps > 0 {
		if err := validate.Address(cfg.Treasury); err != nil {
			return nil, fmt.Errorf("settlement treasury config: %w", err)
		}
	}
	return &Engine{
		db:         db,
		cfg:        cfg,
		transferer: t,
		locks:      newLockRegistry(),
	}, nil
}

// CreatePoolInput 新池请求
type CreatePoolInput struct {
	Name            string
	Category        string
	FundingGoal     int64
	Token           string
	TokenDecimals   int
	MinContribution int64
	MaxContribution int64
	VotingDeadline  time.Time
	FundingDeadline time.Time
	Candidates      []validate.CandidateInput
}

// CreatePool 创建投资池及其候选项目
func (e *Engine) CreatePool(in CreatePoolInput) (*model.PoolModel, error) {
	now := time.Now()
	vIn := validate.NewPoolInput{
		Name:            in.Name,
		FundingGoal:     in.FundingGoal,
		MinContribution: in.MinContribution,
		MaxContribution: in.MaxContribution,
		VotingDeadline:  in.VotingDeadline,
		FundingDeadline: in.FundingDeadline,
		Candidates:      in.Candidates,
	}
	bounds := validate.PoolBounds{
		MinGoal:     e.cfg.MinGoal,
		MaxGoal:     e.cfg.MaxGoal,
		MinDuration: e.cfg.MinDuration(),
		MaxDuration: e.cfg.MaxDuration(),
	}
	if err := validate.NewPool(vIn, bounds, now); err != nil {
		return nil, err
	}
	if err := validate.NonEmpty(in.Token); err != nil {
		return nil, err
	}

	pool := &model.PoolModel{
		Name:            in.Name,
		Category:        in.Category,
		FundingGoal:     in.FundingGoal,
		Token:           in.Token,
		TokenDecimals:   in.TokenDecimals,
		MinContribution: in.MinContribution,
		MaxContribution: in.MaxContribution,
		FeeBps:          e.cfg.FeeBps,
		PenaltyBps:      e.cfg.PenaltyBps,
		VotingDeadline:  in.VotingDeadline,
		FundingDeadline: in.FundingDeadline,
		Status:          model.PoolStatusActive,
	}
	if pool.TokenDecimals == 0 {
		pool.TokenDecimals = 18
	}

	tx := e.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := tx.Create(pool).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("创建池失败: %w", err)
	}

	for _, c := range in.Candidates {
		pitch := &model.CandidatePitchModel{
			PoolId:       pool.Id,
			PitchId:      c.PitchId,
			OwnerAddress: c.OwnerAddress,
		}
		if err := tx.Create(pitch).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("创建候选项目失败: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.Info("Pool %d created: goal=%d token=%s candidates=%d",
		pool.Id, pool.FundingGoal, pool.Token, len(in.Candidates))
	return pool, nil
}

// ClosePool 归档已完成全部分配的池
func (e *Engine) ClosePool(poolId int64) error {
	lock, err := e.locks.acquire(poolId)
	if err != nil {
		return err
	}
	defer lock.release()

	pool, err := e.loadPool(e.db, poolId)
	if err != nil {
		return err
	}
	if pool.Status != model.PoolStatusFunded {
		return ErrPoolNotFunded
	}

	var winners []model.WinnerAllocationModel
	if err := e.db.Where("pool_id = ?", poolId).Find(&winners).Error; err != nil {
		return err
	}
	for _, w := range winners {
		if !w.FullyClaimed() {
			return ErrNotDistributable
		}
	}

	if err := e.db.Model(pool).Update("status", model.PoolStatusClosed).Error; err != nil {
		return err
	}
	logger.Info("Pool %d closed: all allocations fully claimed", poolId)
	return nil
}

// GetPool 获取池详情
func (e *Engine) GetPool(poolId int64) (*model.PoolModel, error) {
	return e.loadPool(e.db, poolId)
}

// ListPools 分页获取池列表
func (e *Engine) ListPools(page, pageSize int) ([]model.PoolModel, int64, error) {
	var pools []model.PoolModel
	var total int64

	if err := e.db.Model(&model.PoolModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := e.db.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&pools).Error; err != nil {
		return nil, 0, err
	}
	return pools, total, nil
}

// GetWinners 获取获胜名单（按排名）
func (e *Engine) GetWinners(poolId int64) ([]model.WinnerAllocationModel, error) {
	pool, err := e.loadPool(e.db, poolId)
	if err != nil {
		return nil, err
	}
	if pool.Status != model.PoolStatusFunded && pool.Status != model.PoolStatusClosed {
		return nil, ErrPoolNotFunded
	}

	var winners []model.WinnerAllocationModel
	if err := e.db.Where("pool_id = ?", poolId).
		Order("rank ASC").
		Find(&winners).Error; err != nil {
		return nil, err
	}
	return winners, nil
}

// GetContribution 获取某个贡献者在池内的累计贡献
func (e *Engine) GetContribution(poolId int64, address string) (*model.ContributionModel, error) {
	var c model.ContributionModel
	err := e.db.Where("pool_id = ? AND address = ?", poolId, address).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContributionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListContributions 分页获取池的贡献记录
func (e *Engine) ListContributions(poolId int64, page, pageSize int) ([]model.ContributionModel, int64, error) {
	var records []model.ContributionModel
	var total int64

	if err := e.db.Model(&model.ContributionModel{}).
		Where("pool_id = ?", poolId).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := e.db.Where("pool_id = ?", poolId).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// GetPoolStats 获取池统计信息
func (e *Engine) GetPoolStats(poolId int64) (map[string]interface{}, error) {
	pool, err := e.loadPool(e.db, poolId)
	if err != nil {
		return nil, err
	}

	var contributorCount int64
	if err := e.db.Model(&model.ContributionModel{}).
		Where("pool_id = ? AND withdrawn = ?", poolId, false).
		Count(&contributorCount).Error; err != nil {
		return nil, err
	}

	var voteCount int64
	if err := e.db.Model(&model.VoteModel{}).
		Where("pool_id = ?", poolId).
		Count(&voteCount).Error; err != nil {
		return nil, err
	}

	// 计算完成百分比
	completionPercentage := float64(0)
	if pool.FundingGoal > 0 {
		completionPercentage = float64(pool.TotalGross) / float64(pool.FundingGoal) * 100
	}

	// 计算剩余投票时间
	remainingTime := time.Duration(0)
	if pool.Status == model.PoolStatusActive && time.Now().Before(pool.VotingDeadline) {
		remainingTime = time.Until(pool.VotingDeadline)
	}

	return map[string]interface{}{
		"pool_id":               pool.Id,
		"status":                pool.Status,
		"total_gross":           pool.TotalGross,
		"total_net":             pool.TotalNet,
		"total_fees":            pool.TotalFees,
		"funding_goal":          pool.FundingGoal,
		"completion_percentage": completionPercentage,
		"contributor_count":     contributorCount,
		"vote_count":            voteCount,
		"total_vote_weight":     pool.TotalVoteWeight,
		"remaining_voting_time": remainingTime.String(),
	}, nil
}

// loadPool 加载池，不存在时返回 ErrPoolNotFound
func (e *Engine) loadPool(db *gorm.DB, poolId int64) (*model.PoolModel, error) {
	var pool model.PoolModel
	err := db.First(&pool, poolId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPoolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("获取池详情失败: %w", err)
	}
	return &pool, nil
}

// loadPitch 加载池内候选项目
func (e *Engine) loadPitch(db *gorm.DB, poolId, pitchId int64) (*model.CandidatePitchModel, error) {
	var pitch model.CandidatePitchModel
	err := db.Where("pool_id = ? AND pitch_id = ?", poolId, pitchId).First(&pitch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPitchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pitch, nil
}
