package settle

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/blues/crowdvc/internal/config"
	"github.com/blues/crowdvc/internal/model"
	"github.com/blues/crowdvc/internal/settle/validate"
	"github.com/blues/crowdvc/internal/transfer"
)

const (
	addrAlice    = "0x1111111111111111111111111111111111111111"
	addrBob      = "0x2222222222222222222222222222222222222222"
	addrOwner1   = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrOwner2   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	addrTreasury = "0x9999999999999999999999999999999999999999"
)

func testSettlementConfig() config.SettlementConfig {
	return config.SettlementConfig{
		FeeBps:          250,
		PenaltyBps:      1000,
		MaxWinners:      3,
		QuorumBps:       5100,
		MinGoal:         100,
		MinDurationHour: 1,
		MaxDurationHour: 24 * 90,
		Treasury:        addrTreasury,
	}
}

func newTestEngine(t *testing.T) (*Engine, *gorm.DB, *transfer.MockClient) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.PoolModel{},
		&model.CandidatePitchModel{},
		&model.ContributionModel{},
		&model.VoteModel{},
		&model.WinnerAllocationModel{},
		&model.MilestoneModel{},
		&model.MilestoneApprovalModel{},
		&model.RefundRecordModel{},
		&model.TransferRecordModel{},
	))

	mock := transfer.NewMockClient()
	engine, err := NewEngine(db, testSettlementConfig(), mock)
	require.NoError(t, err)
	return engine, db, mock
}

func createActivePool(t *testing.T, e *Engine, goal int64) *model.PoolModel {
	t.Helper()
	pool, err := e.CreatePool(CreatePoolInput{
		Name:            "种子轮联合投资",
		FundingGoal:     goal,
		Token:           "USDC",
		VotingDeadline:  time.Now().Add(2 * time.Hour),
		FundingDeadline: time.Now().Add(4 * time.Hour),
		Candidates: []validate.CandidateInput{
			{PitchId: 1, OwnerAddress: addrOwner1},
			{PitchId: 2, OwnerAddress: addrOwner2},
		},
	})
	require.NoError(t, err)
	return pool
}

// expireVoting 把投票截止时间改到过去，让结算可以触发
func expireVoting(t *testing.T, db *gorm.DB, poolId int64) {
	t.Helper()
	require.NoError(t, db.Model(&model.PoolModel{}).
		Where("id = ?", poolId).
		Update("voting_deadline", time.Now().Add(-time.Minute)).Error)
}

func loadPitchRow(t *testing.T, db *gorm.DB, poolId, pitchId int64) model.CandidatePitchModel {
	t.Helper()
	var pitch model.CandidatePitchModel
	require.NoError(t, db.Where("pool_id = ? AND pitch_id = ?", poolId, pitchId).First(&pitch).Error)
	return pitch
}

func TestNewEngineRequiresTreasuryWhenFeesCharged(t *testing.T) {
	cfg := testSettlementConfig()
	cfg.Treasury = ""

	_, err := NewEngine(nil, cfg, transfer.NewMockClient())
	require.Error(t, err)

	// 不收手续费时无需金库
	cfg.FeeBps = 0
	_, err = NewEngine(nil, cfg, transfer.NewMockClient())
	require.NoError(t, err)
}

func TestContributeLocksVote(t *testing.T) {
	engine, db, mock := newTestEngine(t)
	pool := createActivePool(t, engine, 50000)

	c, err := engine.Contribute(context.Background(), ContributeInput{
		PoolId:      pool.Id,
		Contributor: addrAlice,
		Amount:      10000,
		Token:       "USDC",
		PitchId:     1,
	})
	require.NoError(t, err)
	require.Equal(t, int64(250), c.FeeAmount)
	require.Equal(t, int64(9750), c.NetAmount)

	var vote model.VoteModel
	require.NoError(t, db.Where("pool_id = ? AND address = ?", pool.Id, addrAlice).First(&vote).Error)
	require.True(t, vote.Locked)
	require.Equal(t, int64(9750), vote.Weight)

	pitch := loadPitchRow(t, db, pool.Id, 1)
	require.Equal(t, int64(9750), pitch.VoteWeight)
	require.Equal(t, int64(1), pitch.VoterCount)

	// 贡献后票被锁定：改票和换项目追加贡献都被拒绝
	require.ErrorIs(t, engine.Vote(pool.Id, addrAlice, 2), ErrAlreadyContributed)
	_, err = engine.Contribute(context.Background(), ContributeInput{
		PoolId:      pool.Id,
		Contributor: addrAlice,
		Amount:      5000,
		Token:       "USDC",
		PitchId:     2,
	})
	require.ErrorIs(t, err, ErrAlreadyContributed)

	// 同项目追加贡献：累计不覆盖，投票人数不重复计
	merged, err := engine.Contribute(context.Background(), ContributeInput{
		PoolId:      pool.Id,
		Contributor: addrAlice,
		Amount:      10000,
		Token:       "USDC",
		PitchId:     1,
	})
	require.NoError(t, err)
	require.Equal(t, int64(20000), merged.GrossAmount)
	require.Equal(t, int64(19500), merged.NetAmount)

	pitch = loadPitchRow(t, db, pool.Id, 1)
	require.Equal(t, int64(19500), pitch.VoteWeight)
	require.Equal(t, int64(1), pitch.VoterCount)

	collects := 0
	for _, r := range mock.Records() {
		if r.Direction == "collect" {
			collects++
			require.Equal(t, int64(10000), r.Amount)
		}
	}
	require.Equal(t, 2, collects)
}

func TestEarlyWithdrawReleasesVoteWeight(t *testing.T) {
	engine, db, mock := newTestEngine(t)
	pool := createActivePool(t, engine, 50000)

	_, err := engine.Contribute(context.Background(), ContributeInput{
		PoolId:      pool.Id,
		Contributor: addrAlice,
		Amount:      10000,
		Token:       "USDC",
		PitchId:     1,
	})
	require.NoError(t, err)

	// 罚金按毛额计：10% 罚金，退 9000
	refund, err := engine.EarlyWithdraw(context.Background(), pool.Id, addrAlice)
	require.NoError(t, err)
	require.Equal(t, int64(9000), refund)

	var vote model.VoteModel
	err = db.Where("pool_id = ? AND address = ?", pool.Id, addrAlice).First(&vote).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	pitch := loadPitchRow(t, db, pool.Id, 1)
	require.Zero(t, pitch.VoteWeight)
	require.Zero(t, pitch.VoterCount)

	after, err := engine.GetPool(pool.Id)
	require.NoError(t, err)
	require.Zero(t, after.TotalGross)
	require.Zero(t, after.TotalNet)
	require.Zero(t, after.TotalFees)
	require.Zero(t, after.TotalVoteWeight)
	require.Equal(t, int64(1000), after.TotalPenalties)

	var record model.RefundRecordModel
	require.NoError(t, db.Where("pool_id = ? AND address = ?", pool.Id, addrAlice).First(&record).Error)
	require.Equal(t, model.RefundKindEarlyWithdraw, record.Kind)
	require.Equal(t, int64(9000), record.Amount)
	require.Equal(t, int64(1000), record.Penalty)

	payouts := mock.Records()
	require.Equal(t, "payout", payouts[len(payouts)-1].Direction)
	require.Equal(t, int64(9000), payouts[len(payouts)-1].Amount)

	_, err = engine.EarlyWithdraw(context.Background(), pool.Id, addrAlice)
	require.ErrorIs(t, err, ErrAlreadyWithdrawn)
}

func TestEarlyWithdrawMissingVoteFailsClosed(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	pool := createActivePool(t, engine, 50000)

	_, err := engine.Contribute(context.Background(), ContributeInput{
		PoolId:      pool.Id,
		Contributor: addrAlice,
		Amount:      10000,
		Token:       "USDC",
		PitchId:     1,
	})
	require.NoError(t, err)

	// 人为破坏账本：贡献存在但投票丢失，退出必须整体拒绝
	require.NoError(t, db.Where("pool_id = ? AND address = ?", pool.Id, addrAlice).
		Delete(&model.VoteModel{}).Error)

	_, err = engine.EarlyWithdraw(context.Background(), pool.Id, addrAlice)
	require.ErrorIs(t, err, ErrVoteMissing)

	c, err := engine.GetContribution(pool.Id, addrAlice)
	require.NoError(t, err)
	require.False(t, c.Withdrawn)

	pitch := loadPitchRow(t, db, pool.Id, 1)
	require.Equal(t, int64(9750), pitch.VoteWeight)

	after, err := engine.GetPool(pool.Id)
	require.NoError(t, err)
	require.Equal(t, int64(10000), after.TotalGross)
	require.Equal(t, int64(9750), after.TotalVoteWeight)
	require.Zero(t, after.TotalPenalties)
}

func TestRequestRefundExactlyOnce(t *testing.T) {
	engine, db, mock := newTestEngine(t)
	pool := createActivePool(t, engine, 50000)

	_, err := engine.Contribute(context.Background(), ContributeInput{
		PoolId:      pool.Id,
		Contributor: addrAlice,
		Amount:      10000,
		Token:       "USDC",
		PitchId:     1,
	})
	require.NoError(t, err)

	expireVoting(t, db, pool.Id)
	result, err := engine.EndVoting(context.Background(), pool.Id)
	require.NoError(t, err)
	require.Equal(t, model.PoolStatusFailed, result.Status)

	// 失败池全额退毛额，手续费一并退还
	amount, err := engine.RequestRefund(context.Background(), pool.Id, addrAlice)
	require.NoError(t, err)
	require.Equal(t, int64(10000), amount)

	_, err = engine.RequestRefund(context.Background(), pool.Id, addrAlice)
	require.ErrorIs(t, err, ErrAlreadyRefunded)

	payouts := 0
	for _, r := range mock.Records() {
		if r.Direction == "payout" && r.Address == addrAlice {
			payouts++
			require.Equal(t, int64(10000), r.Amount)
		}
	}
	require.Equal(t, 1, payouts)

	var record model.RefundRecordModel
	require.NoError(t, db.Where("pool_id = ? AND address = ?", pool.Id, addrAlice).First(&record).Error)
	require.Equal(t, model.RefundKindPoolFailed, record.Kind)
}

func TestDistributeMilestoneFundsOnce(t *testing.T) {
	engine, db, mock := newTestEngine(t)
	pool := createActivePool(t, engine, 10000)

	_, err := engine.Contribute(context.Background(), ContributeInput{
		PoolId:      pool.Id,
		Contributor: addrAlice,
		Amount:      6000,
		Token:       "USDC",
		PitchId:     1,
	})
	require.NoError(t, err)
	_, err = engine.Contribute(context.Background(), ContributeInput{
		PoolId:      pool.Id,
		Contributor: addrBob,
		Amount:      5000,
		Token:       "USDC",
		PitchId:     2,
	})
	require.NoError(t, err)

	expireVoting(t, db, pool.Id)
	result, err := engine.EndVoting(context.Background(), pool.Id)
	require.NoError(t, err)
	require.Equal(t, model.PoolStatusFunded, result.Status)
	require.Len(t, result.Winners, 2)

	// 手续费归金库：150 + 125
	treasuryPaid := int64(0)
	for _, r := range mock.Records() {
		if r.Direction == "payout" && r.Address == addrTreasury {
			treasuryPaid += r.Amount
		}
	}
	require.Equal(t, int64(275), treasuryPaid)

	winner := result.Winners[0]
	require.Equal(t, int64(1), winner.PitchId)
	require.Equal(t, int64(5850), winner.Amount)

	err = engine.SetMilestones(pool.Id, 1, addrOwner1, []MilestoneInput{
		{Description: "原型交付", FundingBps: 6000},
		{Description: "首批客户", FundingBps: 4000},
	})
	require.NoError(t, err)

	// 第一个里程碑：完成、审批、放款
	require.NoError(t, engine.CompleteMilestone(pool.Id, 1, 0, addrOwner1, "ipfs://evidence-0"))
	count, err := engine.ApproveMilestone(pool.Id, 1, 0, addrAlice)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	_, err = engine.ApproveMilestone(pool.Id, 1, 0, addrAlice)
	require.ErrorIs(t, err, ErrAlreadyApproved)
	_, err = engine.ApproveMilestone(pool.Id, 1, 0, addrBob)
	require.ErrorIs(t, err, ErrNotPitchVoter)

	amount, err := engine.DistributeMilestoneFunds(context.Background(), pool.Id, 1, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3510), amount)

	// 同一里程碑只放款一次
	_, err = engine.DistributeMilestoneFunds(context.Background(), pool.Id, 1, 0)
	require.ErrorIs(t, err, ErrAlreadyDistributed)

	ownerPayouts := 0
	for _, r := range mock.Records() {
		if r.Direction == "payout" && r.Address == addrOwner1 {
			ownerPayouts++
			require.Equal(t, int64(3510), r.Amount)
		}
	}
	require.Equal(t, 1, ownerPayouts)

	// 末个里程碑补足剩余额度，项目分配全部释放
	require.NoError(t, engine.CompleteMilestone(pool.Id, 1, 1, addrOwner1, "ipfs://evidence-1"))
	_, err = engine.ApproveMilestone(pool.Id, 1, 1, addrAlice)
	require.NoError(t, err)
	amount, err = engine.DistributeMilestoneFunds(context.Background(), pool.Id, 1, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2340), amount)

	var alloc model.WinnerAllocationModel
	require.NoError(t, db.Where("pool_id = ? AND pitch_id = ?", pool.Id, 1).First(&alloc).Error)
	require.True(t, alloc.FullyClaimed())
}

func TestContributeTransferFailureRollsBack(t *testing.T) {
	engine, db, mock := newTestEngine(t)
	pool := createActivePool(t, engine, 50000)

	mock.FailNext = true
	_, err := engine.Contribute(context.Background(), ContributeInput{
		PoolId:      pool.Id,
		Contributor: addrAlice,
		Amount:      10000,
		Token:       "USDC",
		PitchId:     1,
	})
	require.Error(t, err)

	_, err = engine.GetContribution(pool.Id, addrAlice)
	require.ErrorIs(t, err, ErrContributionNotFound)

	var vote model.VoteModel
	err = db.Where("pool_id = ? AND address = ?", pool.Id, addrAlice).First(&vote).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	pitch := loadPitchRow(t, db, pool.Id, 1)
	require.Zero(t, pitch.VoteWeight)

	after, err := engine.GetPool(pool.Id)
	require.NoError(t, err)
	require.Zero(t, after.TotalGross)
	require.Zero(t, after.TotalVoteWeight)
}
