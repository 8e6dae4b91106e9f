package settle

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/blues/crowdvc/internal/logger"
	"github.com/blues/crowdvc/internal/model"
	"github.com/blues/crowdvc/internal/settle/validate"
)

// Vote 贡献前的免费投票
//
// 不携带权重，仅登记意向；贡献到账时权重随净额累加并锁定。
func (e *Engine) Vote(poolId int64, voter string, pitchId int64) error {
	if err := validate.Address(voter); err != nil {
		return err
	}
	if err := validate.PositiveId(pitchId); err != nil {
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
	if pool.Status != model.PoolStatusActive {
		return ErrPoolNotActive
	}
	if !time.Now().Before(pool.VotingDeadline) {
		return ErrVotingClosed
	}
	if _, err := e.loadPitch(e.db, poolId, pitchId); err != nil {
		return err
	}

	var vote model.VoteModel
	err = e.db.Where("pool_id = ? AND address = ?", poolId, voter).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		vote = model.VoteModel{
			PoolId:  poolId,
			Address: voter,
			PitchId: pitchId,
		}
		return e.db.Create(&vote).Error
	}
	if err != nil {
		return err
	}
	if vote.Locked {
		return ErrAlreadyContributed
	}
	if vote.PitchId == pitchId {
		return nil
	}
	return e.db.Model(&vote).Update("pitch_id", pitchId).Error
}

// ChangeVote 贡献前改票
func (e *Engine) ChangeVote(poolId int64, voter string, pitchId int64) error {
	return e.Vote(poolId, voter, pitchId)
}

// EndVotingResult 投票结算结果
type EndVotingResult struct {
	Status  model.PoolStatus              `json:"status"`
	Winners []model.WinnerAllocationModel `json:"winners,omitempty"`
}

// EndVoting 投票截止后结算
//
// 未达目标转入失败状态（可退款）；达标则按权重排名选出获胜项目
// （末位平票全部纳入），以净池总额计算各项目分配，
// 累计手续费划入平台金库，池转入已达标状态。
func (e *Engine) EndVoting(ctx context.Context, poolId int64) (*EndVotingResult, error) {
	lock, err := e.locks.acquire(poolId)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	pool, err := e.loadPool(e.db, poolId)
	if err != nil {
		return nil, err
	}
	if pool.Status != model.PoolStatusActive {
		return nil, ErrPoolNotActive
	}
	if time.Now().Before(pool.VotingDeadline) {
		return nil, ErrVotingNotClosed
	}

	// 目标按毛额比较：目标金额的口径是贡献总额
	if pool.TotalGross < pool.FundingGoal {
		if err := e.db.Model(pool).Update("status", model.PoolStatusFailed).Error; err != nil {
			return nil, err
		}
		logger.Info("Pool %d voting ended: goal not met (%d < %d), pool failed",
			poolId, pool.TotalGross, pool.FundingGoal)
		return &EndVotingResult{Status: model.PoolStatusFailed}, nil
	}

	var pitches []model.CandidatePitchModel
	if err := e.db.Where("pool_id = ?", poolId).Find(&pitches).Error; err != nil {
		return nil, err
	}
	entries := make([]pitchRank, len(pitches))
	for i, p := range pitches {
		entries[i] = pitchRank{PitchId: p.PitchId, Weight: p.VoteWeight}
	}

	winners := selectWinners(entries, e.cfg.MaxWinners)
	plans, err := planAllocations(pool.TotalNet, winners)
	if err != nil {
		return nil, err
	}

	tx := e.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	allocations := make([]model.WinnerAllocationModel, len(plans))
	for i, p := range plans {
		allocations[i] = model.WinnerAllocationModel{
			PoolId:        poolId,
			PitchId:       p.PitchId,
			Rank:          i + 1,
			VoteWeight:    p.Weight,
			AllocationBps: p.Bps,
			Amount:        p.Amount,
		}
		if err := tx.Create(&allocations[i]).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Model(pool).Update("status", model.PoolStatusFunded).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// 手续费只在池成功时归平台，划入金库
	if pool.TotalFees > 0 && e.cfg.Treasury == "" {
		// 只会发生在池创建后把 fee_bps 调回 0 并清空金库配置的情况
		logger.Warn("Pool %d has %d fees but no treasury configured, fees stay in escrow",
			poolId, pool.TotalFees)
	}
	if pool.TotalFees > 0 && e.cfg.Treasury != "" {
		endTransfer := lock.beginTransfer()
		txHash, err := e.transferer.Payout(ctx, e.cfg.Treasury, pool.Token, pool.TotalFees)
		endTransfer()
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		record := &model.TransferRecordModel{
			PoolId:  poolId,
			Purpose: model.TransferPurposeTreasury,
			To:      e.cfg.Treasury,
			Token:   pool.Token,
			Amount:  pool.TotalFees,
			TxHash:  txHash,
		}
		if err := tx.Create(record).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.Info("Pool %d voting ended: funded, %d winners, net=%d",
		poolId, len(allocations), pool.TotalNet)
	return &EndVotingResult{Status: model.PoolStatusFunded, Winners: allocations}, nil
}
