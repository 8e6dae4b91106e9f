package settle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blues/crowdvc/internal/logger"
	"github.com/blues/crowdvc/internal/model"
	"github.com/blues/crowdvc/internal/settle/feecalc"
	"github.com/blues/crowdvc/internal/settle/validate"
)

// ContributeInput 贡献请求
type ContributeInput struct {
	PoolId      int64
	Contributor string
	Amount      int64 // 毛额（最小单位）
	Token       string
	PitchId     int64 // 首次贡献且此前未投票时必填
}

// Contribute 记录贡献并更新投票权重
//
// 同一贡献者重复贡献合并为一条累计记录。首次贡献会绑定并锁定投票：
// 已有待定投票的直接锁定，否则按请求中的 PitchId 投票。
// 收款划转失败时整个事务回滚。
func (e *Engine) Contribute(ctx context.Context, in ContributeInput) (*model.ContributionModel, error) {
	if err := validate.Address(in.Contributor); err != nil {
		return nil, err
	}
	if err := validate.PositiveAmount(in.Amount); err != nil {
		return nil, err
	}

	lock, err := e.locks.acquire(in.PoolId)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	pool, err := e.loadPool(e.db, in.PoolId)
	if err != nil {
		return nil, err
	}
	if pool.Status != model.PoolStatusActive {
		return nil, ErrPoolNotActive
	}
	if !time.Now().Before(pool.VotingDeadline) {
		return nil, ErrVotingClosed
	}
	if in.Token != pool.Token {
		return nil, ErrTokenMismatch
	}
	if pool.MinContribution > 0 && in.Amount < pool.MinContribution {
		return nil, ErrBelowMinContribution
	}

	fee := feecalc.PlatformFee(in.Amount, pool.FeeBps)
	net := in.Amount - fee

	tx := e.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	contribution, err := e.upsertContribution(tx, pool, in, fee, net)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := e.attachVote(tx, in, net); err != nil {
		tx.Rollback()
		return nil, err
	}

	// 池汇总
	updates := map[string]interface{}{
		"total_gross":       gorm.Expr("total_gross + ?", in.Amount),
		"total_net":         gorm.Expr("total_net + ?", net),
		"total_fees":        gorm.Expr("total_fees + ?", fee),
		"total_vote_weight": gorm.Expr("total_vote_weight + ?", net),
	}
	if err := tx.Model(pool).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// 收款与账本同事务：划转失败则全部回滚
	endTransfer := lock.beginTransfer()
	_, err = e.transferer.Collect(ctx, in.Contributor, pool.Token, in.Amount)
	endTransfer()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.Info("Pool %d contribution: address=%s gross=%d fee=%d net=%d receipt=%s",
		in.PoolId, in.Contributor, in.Amount, fee, net, contribution.ReceiptId)
	return contribution, nil
}

// upsertContribution 创建或合并贡献记录
func (e *Engine) upsertContribution(tx *gorm.DB, pool *model.PoolModel, in ContributeInput, fee, net int64) (*model.ContributionModel, error) {
	var c model.ContributionModel
	err := tx.Where("pool_id = ? AND address = ?", in.PoolId, in.Contributor).First(&c).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c = model.ContributionModel{
			PoolId:      in.PoolId,
			Address:     in.Contributor,
			GrossAmount: in.Amount,
			FeeAmount:   fee,
			NetAmount:   net,
			Token:       in.Token,
			ReceiptId:   uuid.NewString(),
		}
		if err := e.checkMaxContribution(pool, c.GrossAmount); err != nil {
			return nil, err
		}
		if err := tx.Create(&c).Error; err != nil {
			return nil, err
		}
		return &c, nil

	case err != nil:
		return nil, err

	case c.Withdrawn:
		// 提前退出后重新入场：复用记录，重新计数
		if err := e.checkMaxContribution(pool, in.Amount); err != nil {
			return nil, err
		}
		c.GrossAmount = in.Amount
		c.FeeAmount = fee
		c.NetAmount = net
		c.Withdrawn = false
		c.ReceiptId = uuid.NewString()
		if err := tx.Save(&c).Error; err != nil {
			return nil, err
		}
		return &c, nil

	default:
		// 追加贡献：累加，不覆盖
		if err := e.checkMaxContribution(pool, c.GrossAmount+in.Amount); err != nil {
			return nil, err
		}
		c.GrossAmount += in.Amount
		c.FeeAmount += fee
		c.NetAmount += net
		if err := tx.Save(&c).Error; err != nil {
			return nil, err
		}
		return &c, nil
	}
}

// checkMaxContribution 校验累计贡献不超过池上限
func (e *Engine) checkMaxContribution(pool *model.PoolModel, merged int64) error {
	if pool.MaxContribution > 0 && merged > pool.MaxContribution {
		return ErrAboveMaxContribution
	}
	return nil
}

// attachVote 贡献时绑定并锁定投票
func (e *Engine) attachVote(tx *gorm.DB, in ContributeInput, net int64) error {
	var vote model.VoteModel
	err := tx.Where("pool_id = ? AND address = ?", in.PoolId, in.Contributor).First(&vote).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 没有待定投票：PitchId 必填
		if err := validate.PositiveId(in.PitchId); err != nil {
			return err
		}
		if _, err := e.loadPitch(tx, in.PoolId, in.PitchId); err != nil {
			return err
		}
		vote = model.VoteModel{
			PoolId:  in.PoolId,
			Address: in.Contributor,
			PitchId: in.PitchId,
			Weight:  net,
			Locked:  true,
		}
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}
		return e.bumpPitch(tx, in.PoolId, vote.PitchId, net, 1)
	}
	if err != nil {
		return err
	}

	// 已有投票：锁定后不可改票
	if in.PitchId != 0 && in.PitchId != vote.PitchId {
		if vote.Locked {
			return ErrAlreadyContributed
		}
		// 贡献前仍可改票
		if _, err := e.loadPitch(tx, in.PoolId, in.PitchId); err != nil {
			return err
		}
		vote.PitchId = in.PitchId
	}

	vote.Weight += net
	wasLocked := vote.Locked
	vote.Locked = true
	if err := tx.Save(&vote).Error; err != nil {
		return err
	}

	voterDelta := int64(0)
	if !wasLocked {
		voterDelta = 1
	}
	return e.bumpPitch(tx, in.PoolId, vote.PitchId, net, voterDelta)
}

// bumpPitch 更新候选项目的累计权重和投票人数
func (e *Engine) bumpPitch(tx *gorm.DB, poolId, pitchId, weightDelta, voterDelta int64) error {
	return tx.Model(&model.CandidatePitchModel{}).
		Where("pool_id = ? AND pitch_id = ?", poolId, pitchId).
		Updates(map[string]interface{}{
			"vote_weight": gorm.Expr("vote_weight + ?", weightDelta),
			"voter_count": gorm.Expr("voter_count + ?", voterDelta),
		}).Error
}

// EarlyWithdraw 投票截止前提前退出
//
// 按池配置扣除罚金，释放该贡献者的投票，池汇总同步回退。
// 返回实际退款金额。
func (e *Engine) EarlyWithdraw(ctx context.Context, poolId int64, contributor string) (int64, error) {
	if err := validate.Address(contributor); err != nil {
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
	if pool.Status != model.PoolStatusActive {
		return 0, ErrPoolNotActive
	}
	if !time.Now().Before(pool.VotingDeadline) {
		return 0, ErrVotingClosed
	}

	var c model.ContributionModel
	err = e.db.Where("pool_id = ? AND address = ?", poolId, contributor).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrContributionNotFound
	}
	if err != nil {
		return 0, err
	}
	if c.Withdrawn {
		return 0, ErrAlreadyWithdrawn
	}

	penalty, refund := feecalc.EarlyWithdrawalPenalty(c.GrossAmount, pool.PenaltyBps)

	tx := e.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := tx.Model(&c).Update("withdrawn", true).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	// 释放投票：每条未退出的贡献都对应一条锁定投票，缺失即账本被破坏
	var vote model.VoteModel
	err = tx.Where("pool_id = ? AND address = ?", poolId, contributor).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		logger.Error("Pool %d early withdraw: contribution %d has no vote, refusing to settle", poolId, c.Id)
		return 0, ErrVoteMissing
	}
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := e.bumpPitch(tx, poolId, vote.PitchId, -c.NetAmount, -1); err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Delete(&vote).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	updates := map[string]interface{}{
		"total_gross":       gorm.Expr("total_gross - ?", c.GrossAmount),
		"total_net":         gorm.Expr("total_net - ?", c.NetAmount),
		"total_fees":        gorm.Expr("total_fees - ?", c.FeeAmount),
		"total_vote_weight": gorm.Expr("total_vote_weight - ?", c.NetAmount),
		"total_penalties":   gorm.Expr("total_penalties + ?", penalty),
	}
	if err := tx.Model(pool).Updates(updates).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	endTransfer := lock.beginTransfer()
	txHash, err := e.transferer.Payout(ctx, contributor, pool.Token, refund)
	endTransfer()
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	record := &model.RefundRecordModel{
		PoolId:         poolId,
		ContributionId: c.Id,
		Address:        contributor,
		Amount:         refund,
		Penalty:        penalty,
		Kind:           model.RefundKindEarlyWithdraw,
		TxHash:         txHash,
	}
	if err := tx.Create(record).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}

	logger.Info("Pool %d early withdraw: address=%s refund=%d penalty=%d",
		poolId, contributor, refund, penalty)
	return refund, nil
}

// RequestRefund 失败池退款
//
// 全额退还毛额（含手续费），每个贡献者仅可退款一次。
func (e *Engine) RequestRefund(ctx context.Context, poolId int64, contributor string) (int64, error) {
	if err := validate.Address(contributor); err != nil {
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
	if pool.Status != model.PoolStatusFailed {
		return 0, ErrPoolNotFailed
	}

	var c model.ContributionModel
	err = e.db.Where("pool_id = ? AND address = ?", poolId, contributor).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrContributionNotFound
	}
	if err != nil {
		return 0, err
	}
	if c.Withdrawn {
		return 0, ErrAlreadyWithdrawn
	}
	if c.Refunded {
		return 0, ErrAlreadyRefunded
	}

	tx := e.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := tx.Model(&c).Update("refunded", true).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	// 平台不从失败的池获利：手续费一并退还
	endTransfer := lock.beginTransfer()
	txHash, err := e.transferer.Payout(ctx, contributor, pool.Token, c.GrossAmount)
	endTransfer()
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	record := &model.RefundRecordModel{
		PoolId:         poolId,
		ContributionId: c.Id,
		Address:        contributor,
		Amount:         c.GrossAmount,
		Kind:           model.RefundKindPoolFailed,
		TxHash:         txHash,
	}
	if err := tx.Create(record).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}

	logger.Info("Pool %d refund: address=%s amount=%d", poolId, contributor, c.GrossAmount)
	return c.GrossAmount, nil
}
