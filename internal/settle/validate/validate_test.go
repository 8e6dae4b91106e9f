package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	addrA = "0x1111111111111111111111111111111111111111"
	addrB = "0x2222222222222222222222222222222222222222"
)

func TestAddress(t *testing.T) {
	require.NoError(t, Address(addrA))
	require.ErrorIs(t, Address(""), ErrEmptyAddress)
	require.ErrorIs(t, Address("not-an-address"), ErrInvalidAddress)
	require.ErrorIs(t, Address("0x123"), ErrInvalidAddress)
}

func TestPositiveAmount(t *testing.T) {
	require.NoError(t, PositiveAmount(1))
	require.ErrorIs(t, PositiveAmount(0), ErrNonPositiveAmount)
	require.ErrorIs(t, PositiveAmount(-5), ErrNonPositiveAmount)
}

func TestDuration(t *testing.T) {
	require.NoError(t, Duration(24*time.Hour, time.Hour, 30*24*time.Hour))
	require.ErrorIs(t, Duration(time.Minute, time.Hour, 0), ErrDurationTooShort)
	require.ErrorIs(t, Duration(40*24*time.Hour, time.Hour, 30*24*time.Hour), ErrDurationTooLong)
}

func TestFundingGoal(t *testing.T) {
	require.NoError(t, FundingGoal(5000, 1000, 100000))
	require.ErrorIs(t, FundingGoal(500, 1000, 100000), ErrGoalTooLow)
	require.ErrorIs(t, FundingGoal(200000, 1000, 100000), ErrGoalTooHigh)
	// max 为 0 表示不设上限
	require.NoError(t, FundingGoal(200000, 1000, 0))
}

func TestFutureDeadline(t *testing.T) {
	now := time.Now()
	require.NoError(t, FutureDeadline(now.Add(time.Hour), now))
	require.ErrorIs(t, FutureDeadline(now, now), ErrDeadlineNotFuture)
	require.ErrorIs(t, FutureDeadline(now.Add(-time.Hour), now), ErrDeadlineNotFuture)
}

func validInput(now time.Time) NewPoolInput {
	return NewPoolInput{
		Name:            "种子轮一期",
		FundingGoal:     10000,
		MinContribution: 100,
		MaxContribution: 5000,
		VotingDeadline:  now.Add(7 * 24 * time.Hour),
		FundingDeadline: now.Add(14 * 24 * time.Hour),
		Candidates: []CandidateInput{
			{PitchId: 1, OwnerAddress: addrA},
			{PitchId: 2, OwnerAddress: addrB},
		},
	}
}

func testBounds() PoolBounds {
	return PoolBounds{
		MinGoal:     1000,
		MaxGoal:     1000000,
		MinDuration: 24 * time.Hour,
		MaxDuration: 90 * 24 * time.Hour,
	}
}

func TestNewPool(t *testing.T) {
	now := time.Now()
	require.NoError(t, NewPool(validInput(now), testBounds(), now))
}

func TestNewPoolShortCircuits(t *testing.T) {
	now := time.Now()
	bounds := testBounds()

	in := validInput(now)
	in.Name = ""
	require.ErrorIs(t, NewPool(in, bounds, now), ErrEmptyName)

	in = validInput(now)
	in.FundingGoal = 1
	require.ErrorIs(t, NewPool(in, bounds, now), ErrGoalTooLow)

	in = validInput(now)
	in.MinContribution = 6000
	require.ErrorIs(t, NewPool(in, bounds, now), ErrBoundsOrder)

	in = validInput(now)
	in.VotingDeadline = now.Add(-time.Hour)
	require.ErrorIs(t, NewPool(in, bounds, now), ErrDeadlineNotFuture)

	in = validInput(now)
	in.FundingDeadline = in.VotingDeadline.Add(-time.Hour)
	require.ErrorIs(t, NewPool(in, bounds, now), ErrDeadlineOrder)

	in = validInput(now)
	in.Candidates = nil
	require.ErrorIs(t, NewPool(in, bounds, now), ErrNoCandidates)

	in = validInput(now)
	in.Candidates = append(in.Candidates, CandidateInput{PitchId: 1, OwnerAddress: addrA})
	require.ErrorIs(t, NewPool(in, bounds, now), ErrDuplicatePitch)

	in = validInput(now)
	in.Candidates[1].OwnerAddress = "bad"
	require.ErrorIs(t, NewPool(in, bounds, now), ErrInvalidAddress)
}
