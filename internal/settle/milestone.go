package settle

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/blues/crowdvc/internal/logger"
	"github.com/blues/crowdvc/internal/model"
	"github.com/blues/crowdvc/internal/settle/feecalc"
	"github.com/blues/crowdvc/internal/settle/validate"
)

// MilestoneInput 单个里程碑定义
type MilestoneInput struct {
	Description string `json:"description" binding:"required"`
	FundingBps  int64  `json:"funding_bps" binding:"required,min=1"`
}

// SetMilestones 项目方设置里程碑计划
//
// 每个获胜项目只能设置一次，比例合计必须为 10000 基点。
func (e *Engine) SetMilestones(poolId, pitchId int64, caller string, milestones []MilestoneInput) error {
	if err := validate.Address(caller); err != nil {
		return err
	}
	if len(milestones) == 0 {
		return ErrBadMilestoneSplit
	}
	var totalBps int64
	for _, m := range milestones {
		if err := validate.NonEmpty(m.Description); err != nil {
			return err
		}
		if m.FundingBps <= 0 {
			return ErrBadMilestoneSplit
		}
		totalBps += m.FundingBps
	}
	if totalBps != feecalc.BpsDenominator {
		return ErrBadMilestoneSplit
	}

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

	pitch, err := e.loadPitch(e.db, poolId, pitchId)
	if err != nil {
		return err
	}
	if pitch.OwnerAddress != caller {
		return ErrNotPitchOwner
	}
	if _, err := e.loadWinner(e.db, poolId, pitchId); err != nil {
		return err
	}

	var existing int64
	if err := e.db.Model(&model.MilestoneModel{}).
		Where("pool_id = ? AND pitch_id = ?", poolId, pitchId).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return ErrMilestonesSet
	}

	tx := e.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	for i, m := range milestones {
		row := &model.MilestoneModel{
			PoolId:      poolId,
			PitchId:     pitchId,
			Idx:         i,
			Description: m.Description,
			FundingBps:  m.FundingBps,
		}
		if err := tx.Create(row).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	logger.Info("Pool %d pitch %d milestones set: count=%d", poolId, pitchId, len(milestones))
	return nil
}

// CompleteMilestone 项目方提交里程碑完成证明
//
// 重置审批计数，法定人数按该项目当前的去重投票人数计算。
func (e *Engine) CompleteMilestone(poolId, pitchId int64, idx int, caller, evidenceRef string) error {
	if err := validate.Address(caller); err != nil {
		return err
	}

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

	pitch, err := e.loadPitch(e.db, poolId, pitchId)
	if err != nil {
		return err
	}
	if pitch.OwnerAddress != caller {
		return ErrNotPitchOwner
	}

	milestone, err := e.loadMilestone(e.db, poolId, pitchId, idx)
	if err != nil {
		return err
	}
	if milestone.Completed {
		return ErrAlreadyCompleted
	}

	// 法定人数按人头而非权重，防止单一大户独自放款
	var voterCount int64
	if err := e.db.Model(&model.VoteModel{}).
		Where("pool_id = ? AND pitch_id = ? AND locked = ?", poolId, pitchId, true).
		Count(&voterCount).Error; err != nil {
		return err
	}

	updates := map[string]interface{}{
		"completed":        true,
		"evidence_ref":     evidenceRef,
		"approval_count":   0,
		"approvals_needed": quorumNeeded(voterCount, e.cfg.QuorumBps),
	}
	if err := e.db.Model(milestone).Updates(updates).Error; err != nil {
		return err
	}

	logger.Info("Pool %d pitch %d milestone %d completed: quorum=%d of %d voters",
		poolId, pitchId, idx, quorumNeeded(voterCount, e.cfg.QuorumBps), voterCount)
	return nil
}

// ApproveMilestone 投票人审批里程碑
//
// 仅限给该项目投过票的贡献者，每人每个里程碑一次。
func (e *Engine) ApproveMilestone(poolId, pitchId int64, idx int, caller string) (int64, error) {
	if err := validate.Address(caller); err != nil {
		return 0, err
	}

	lock, err := e.locks.acquire(poolId)
	if err != nil {
		return 0, err
	}
	defer lock.release()

	pool, err := e.loadPool(e.db, poolId)
	if err != nil {
		return 0, err
	}
	if pool.Status != model.PoolStatusFunded {
		return 0, ErrPoolNotFunded
	}

	milestone, err := e.loadMilestone(e.db, poolId, pitchId, idx)
	if err != nil {
		return 0, err
	}
	if !milestone.Completed {
		return 0, ErrNotCompleted
	}
	if milestone.Disputed {
		return 0, ErrMilestoneDisputed
	}
	if milestone.Distributed {
		return 0, ErrAlreadyDistributed
	}

	// 审批资格：对该项目持有已锁定投票
	var vote model.VoteModel
	err = e.db.Where("pool_id = ? AND address = ? AND pitch_id = ? AND locked = ?",
		poolId, caller, pitchId, true).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotPitchVoter
	}
	if err != nil {
		return 0, err
	}

	var approved int64
	if err := e.db.Model(&model.MilestoneApprovalModel{}).
		Where("pool_id = ? AND pitch_id = ? AND idx = ? AND address = ?",
			poolId, pitchId, idx, caller).
		Count(&approved).Error; err != nil {
		return 0, err
	}
	if approved > 0 {
		return 0, ErrAlreadyApproved
	}

	tx := e.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	approval := &model.MilestoneApprovalModel{
		PoolId:  poolId,
		PitchId: pitchId,
		Idx:     idx,
		Address: caller,
	}
	if err := tx.Create(approval).Error; err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Model(milestone).
		Update("approval_count", gorm.Expr("approval_count + 1")).Error; err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit().Error; err != nil {
		return 0, err
	}

	return milestone.ApprovalCount + 1, nil
}

// DistributeMilestoneFunds 发放里程碑资金
//
// 审批达到法定人数后任何人都可触发；放款金额为该项目分配额
// 乘里程碑比例，累计发放不得超过项目总分配额。同一里程碑只发放一次。
func (e *Engine) DistributeMilestoneFunds(ctx context.Context, poolId, pitchId int64, idx int) (int64, error) {
	lock, err := e.locks.acquire(poolId)
	if err != nil {
		return 0, err
	}
	defer lock.release()

	pool, err := e.loadPool(e.db, poolId)
	if err != nil {
		return 0, err
	}
	if pool.Status != model.PoolStatusFunded {
		return 0, ErrPoolNotFunded
	}

	milestone, err := e.loadMilestone(e.db, poolId, pitchId, idx)
	if err != nil {
		return 0, err
	}
	if !milestone.Completed {
		return 0, ErrNotCompleted
	}
	if milestone.Disputed {
		return 0, ErrMilestoneDisputed
	}
	if milestone.Distributed {
		return 0, ErrAlreadyDistributed
	}
	if milestone.ApprovalCount < milestone.ApprovalsNeeded {
		return 0, ErrQuorumNotReached
	}

	winner, err := e.loadWinner(e.db, poolId, pitchId)
	if err != nil {
		return 0, err
	}
	pitch, err := e.loadPitch(e.db, poolId, pitchId)
	if err != nil {
		return 0, err
	}

	amount := winner.Amount * milestone.FundingBps / feecalc.BpsDenominator

	// 防御舍入漂移：最后一个里程碑补足剩余额度
	remaining := winner.Amount - winner.ClaimedAmount
	var laterCount int64
	if err := e.db.Model(&model.MilestoneModel{}).
		Where("pool_id = ? AND pitch_id = ? AND idx > ? AND distributed = ?",
			poolId, pitchId, idx, false).
		Count(&laterCount).Error; err != nil {
		return 0, err
	}
	var undistributedBefore int64
	if err := e.db.Model(&model.MilestoneModel{}).
		Where("pool_id = ? AND pitch_id = ? AND idx < ? AND distributed = ?",
			poolId, pitchId, idx, false).
		Count(&undistributedBefore).Error; err != nil {
		return 0, err
	}
	if laterCount == 0 && undistributedBefore == 0 {
		amount = remaining
	}

	if amount > remaining {
		return 0, ErrExceedsAllocation
	}

	tx := e.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	now := time.Now()
	endTransfer := lock.beginTransfer()
	txHash, err := e.transferer.Payout(ctx, pitch.OwnerAddress, pool.Token, amount)
	endTransfer()
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	milestoneUpdates := map[string]interface{}{
		"distributed":        true,
		"distributed_amount": amount,
		"distributed_at":     &now,
		"tx_hash":            txHash,
	}
	if err := tx.Model(milestone).Updates(milestoneUpdates).Error; err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Model(winner).
		Update("claimed_amount", gorm.Expr("claimed_amount + ?", amount)).Error; err != nil {
		tx.Rollback()
		return 0, err
	}
	record := &model.TransferRecordModel{
		PoolId:  poolId,
		Purpose: model.TransferPurposeMilestone,
		To:      pitch.OwnerAddress,
		Token:   pool.Token,
		Amount:  amount,
		TxHash:  txHash,
	}
	if err := tx.Create(record).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}

	logger.Info("Pool %d pitch %d milestone %d distributed: amount=%d to=%s",
		poolId, pitchId, idx, amount, pitch.OwnerAddress)
	return amount, nil
}

// SetMilestoneDispute 仲裁人标记或解除里程碑争议
//
// 争议中的里程碑不可审批、不可放款；仲裁策略本身由外部协作方决定。
func (e *Engine) SetMilestoneDispute(poolId, pitchId int64, idx int, disputed bool) error {
	lock, err := e.locks.acquire(poolId)
	if err != nil {
		return err
	}
	defer lock.release()

	milestone, err := e.loadMilestone(e.db, poolId, pitchId, idx)
	if err != nil {
		return err
	}
	if milestone.Distributed {
		return ErrAlreadyDistributed
	}
	if err := e.db.Model(milestone).Update("disputed", disputed).Error; err != nil {
		return err
	}
	logger.Info("Pool %d pitch %d milestone %d disputed=%v", poolId, pitchId, idx, disputed)
	return nil
}

// ListMilestones 获取项目的里程碑列表
func (e *Engine) ListMilestones(poolId, pitchId int64) ([]model.MilestoneModel, error) {
	var milestones []model.MilestoneModel
	if err := e.db.Where("pool_id = ? AND pitch_id = ?", poolId, pitchId).
		Order("idx ASC").
		Find(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}

// loadMilestone 加载里程碑
func (e *Engine) loadMilestone(db *gorm.DB, poolId, pitchId int64, idx int) (*model.MilestoneModel, error) {
	var m model.MilestoneModel
	err := db.Where("pool_id = ? AND pitch_id = ? AND idx = ?", poolId, pitchId, idx).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 区分「没设置」和「下标越界」
		var count int64
		if cErr := db.Model(&model.MilestoneModel{}).
			Where("pool_id = ? AND pitch_id = ?", poolId, pitchId).
			Count(&count).Error; cErr == nil && count == 0 {
			return nil, ErrMilestonesNotSet
		}
		return nil, ErrMilestoneNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// loadWinner 加载获胜分配记录
func (e *Engine) loadWinner(db *gorm.DB, poolId, pitchId int64) (*model.WinnerAllocationModel, error) {
	var w model.WinnerAllocationModel
	err := db.Where("pool_id = ? AND pitch_id = ?", poolId, pitchId).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotWinner
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
