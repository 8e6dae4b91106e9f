package transfer

import (
	"context"
)

// Transferer 代币划转接口
//
// 结算引擎在账本事务内调用划转，划转失败则整个事务回滚，
// 保证账本与资金流动一致。
type Transferer interface {
	// Collect 从贡献者地址收款到资金托管地址（需要事先授权额度）
	Collect(ctx context.Context, from, token string, amount int64) (txHash string, err error)

	// Payout 从资金托管地址向外付款
	Payout(ctx context.Context, to, token string, amount int64) (txHash string, err error)
}
