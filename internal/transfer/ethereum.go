package transfer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/blues/crowdvc/internal/config"
	"github.com/blues/crowdvc/internal/logger"
)

// ERC20 合约ABI定义（简化版）
const erc20ABI = `[
	{
		"constant": false,
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "value", "type": "uint256"}
		],
		"name": "transfer",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "from", "type": "address"},
			{"name": "to", "type": "address"},
			{"name": "value", "type": "uint256"}
		],
		"name": "transferFrom",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	}
]`

// EthClient 基于以太坊的代币划转实现
type EthClient struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	chainId    *big.Int
	escrow     common.Address
	tokens     map[string]common.Address // token 标识 -> 合约地址
	tokenABI   abi.ABI
}

// Init 初始化以太坊划转客户端
func Init(cfg config.ChainConfig) (*EthClient, error) {
	// 连接以太坊客户端
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	// 解析私钥
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	// 解析ABI
	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}

	// 托管地址即私钥对应地址
	escrow := crypto.PubkeyToAddress(privateKey.PublicKey)

	tokens := make(map[string]common.Address, len(cfg.Tokens))
	for name, addr := range cfg.Tokens {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid token contract address for %s: %s", name, addr)
		}
		tokens[name] = common.HexToAddress(addr)
	}

	return &EthClient{
		client:     client,
		privateKey: privateKey,
		chainId:    big.NewInt(cfg.ChainId),
		escrow:     escrow,
		tokens:     tokens,
		tokenABI:   parsedABI,
	}, nil
}

// EscrowAddress 资金托管地址
func (c *EthClient) EscrowAddress() string {
	return c.escrow.Hex()
}

// Collect 通过 transferFrom 从贡献者地址收款到托管地址
func (c *EthClient) Collect(ctx context.Context, from, token string, amount int64) (string, error) {
	return c.call(ctx, token, "transferFrom",
		common.HexToAddress(from), c.escrow, big.NewInt(amount))
}

// Payout 通过 transfer 从托管地址向外付款
func (c *EthClient) Payout(ctx context.Context, to, token string, amount int64) (string, error) {
	return c.call(ctx, token, "transfer",
		common.HexToAddress(to), big.NewInt(amount))
}

// call 发送代币合约交易并等待上链
func (c *EthClient) call(ctx context.Context, token, method string, args ...interface{}) (string, error) {
	tokenAddr, ok := c.tokens[token]
	if !ok {
		return "", fmt.Errorf("unknown token: %s", token)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainId)
	if err != nil {
		return "", fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx

	contract := bind.NewBoundContract(tokenAddr, c.tokenABI, c.client, c.client, c.client)
	tx, err := contract.Transact(opts, method, args...)
	if err != nil {
		return "", fmt.Errorf("token %s call failed: %w", method, err)
	}

	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		return "", fmt.Errorf("failed to wait for tx %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != 1 {
		return "", fmt.Errorf("token %s tx %s reverted", method, tx.Hash().Hex())
	}

	logger.Info("Token %s confirmed: token=%s tx=%s", method, token, tx.Hash().Hex())
	return tx.Hash().Hex(), nil
}
