package settle

import (
	"errors"
)

// 状态类错误：调用方需要重新确认池状态，不应原样重试
var (
	ErrPoolNotFound       = errors.New("池不存在")
	ErrPoolNotActive      = errors.New("池不在进行中状态")
	ErrPoolNotFunded      = errors.New("池不在已达标状态")
	ErrPoolNotFailed      = errors.New("池不在失败状态")
	ErrVotingClosed       = errors.New("投票已截止")
	ErrVotingNotClosed    = errors.New("投票尚未截止")
	ErrAlreadyContributed = errors.New("已贡献，投票已锁定")
	ErrAlreadyWithdrawn   = errors.New("已提前退出")
	ErrAlreadyRefunded    = errors.New("已退款")
	ErrAlreadyApproved    = errors.New("已审批过该里程碑")
	ErrAlreadyCompleted   = errors.New("里程碑已标记完成")
	ErrAlreadyDistributed = errors.New("里程碑资金已发放")
	ErrMilestonesSet      = errors.New("里程碑已设置，不可修改")
	ErrMilestonesNotSet   = errors.New("里程碑尚未设置")
	ErrNotDistributable   = errors.New("池尚未完成全部分配")
	ErrTransferInProgress = errors.New("划转进行中，拒绝重入")
)

// 校验类错误：请求本身不合法，修正后可重试
var (
	ErrContributionNotFound = errors.New("未找到贡献记录")
	ErrPitchNotFound        = errors.New("候选项目不在本池中")
	ErrNotWinner            = errors.New("项目未入选获胜名单")
	ErrMilestoneNotFound    = errors.New("里程碑不存在")
	ErrTokenMismatch        = errors.New("代币与池配置不符")
	ErrBelowMinContribution = errors.New("贡献金额低于最小限制")
	ErrAboveMaxContribution = errors.New("贡献金额超过最大限制")
	ErrBadMilestoneSplit    = errors.New("里程碑比例合计必须为10000基点")
)

// 权限类错误
var (
	ErrNotPitchOwner     = errors.New("调用者不是项目方")
	ErrNotPitchVoter     = errors.New("调用者未给该项目投票")
	ErrMilestoneDisputed = errors.New("里程碑处于争议中")
	ErrNotCompleted      = errors.New("里程碑尚未标记完成")
	ErrQuorumNotReached  = errors.New("审批数未达到法定人数")
)

// 账本类错误：出现即为不变量被破坏，绝不静默忽略
var (
	ErrExceedsAllocation = errors.New("发放金额将超出该项目的总分配额")
	ErrVoteMissing       = errors.New("贡献记录缺少对应的锁定投票")
)
