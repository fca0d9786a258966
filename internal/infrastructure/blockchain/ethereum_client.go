package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 10 * time.Second

// ClientOption customizes an EthereumClient
type ClientOption func(*EthereumClient)

// WithHTTPClient sets the HTTP client used by the JSON-RPC transport
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *EthereumClient) {
		c.httpClient = httpClient
	}
}

// EthereumClient provides blockchain interaction capabilities over JSON-RPC
type EthereumClient struct {
	rpcURL     string
	timeout    time.Duration
	httpClient *http.Client
	rpcClient  *rpc.Client
	ethClient  *ethclient.Client
	logger     *logger.Logger
}

// NewEthereumClient creates a new Ethereum client. Connect must be called before use.
func NewEthereumClient(rpcURL string, timeout time.Duration, logger *logger.Logger, opts ...ClientOption) *EthereumClient {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	c := &EthereumClient{
		rpcURL:  rpcURL,
		timeout: timeout,
		logger:  logger.WithComponent("ethereum-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c
}

// Connect dials the RPC endpoint
func (c *EthereumClient) Connect(ctx context.Context) error {
	rpcClient, err := rpc.DialOptions(ctx, c.rpcURL, rpc.WithHTTPClient(c.httpClient))
	if err != nil {
		return fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}
	c.rpcClient = rpcClient
	c.ethClient = ethclient.NewClient(rpcClient)

	c.logger.Info("Connected to Ethereum RPC", zap.String("url", redactURL(c.rpcURL)))
	return nil
}

// Close closes the underlying RPC connection
func (c *EthereumClient) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.logger.Info("Ethereum RPC connection closed")
	}
}

// LatestBlockNumber returns the current chain head
func (c *EthereumClient) LatestBlockNumber(ctx context.Context) (uint64, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	number, err := c.ethClient.BlockNumber(reqCtx)
	if err != nil {
		return 0, entity.NewTransportError("eth_blockNumber", err)
	}
	return number, nil
}

// FetchBlock loads a block with its transactions. The tag is "latest" (or empty),
// a block number in decimal or hex, or a 32-byte block hash.
func (c *EthereumClient) FetchBlock(ctx context.Context, tag string) (*entity.Block, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		block *types.Block
		err   error
	)
	tag = strings.TrimSpace(tag)
	switch {
	case tag == "" || tag == "latest":
		block, err = c.ethClient.BlockByNumber(reqCtx, nil)
	case len(tag) == 66 && strings.HasPrefix(tag, "0x"):
		block, err = c.ethClient.BlockByHash(reqCtx, common.HexToHash(tag))
	default:
		number, ok := new(big.Int).SetString(tag, 0)
		if !ok || number.Sign() < 0 {
			return nil, fmt.Errorf("invalid block tag %q", tag)
		}
		block, err = c.ethClient.BlockByNumber(reqCtx, number)
	}
	if err != nil {
		return nil, entity.NewTransportError("eth_getBlockByNumber", err)
	}

	return convertBlock(block), nil
}

// CallContract executes an eth_call against the latest state
func (c *EthereumClient) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.ethClient.CallContract(reqCtx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, entity.NewTransportError("eth_call", err)
	}
	return out, nil
}

// FilterLogs runs an eth_getLogs query
func (c *EthereumClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	logs, err := c.ethClient.FilterLogs(reqCtx, query)
	if err != nil {
		return nil, entity.NewTransportError("eth_getLogs", err)
	}
	return logs, nil
}

// CallContext performs a raw JSON-RPC call, used for provider-specific methods
func (c *EthereumClient) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rpcClient.CallContext(reqCtx, result, method, args...); err != nil {
		return entity.NewTransportError(method, err)
	}
	return nil
}

func convertBlock(block *types.Block) *entity.Block {
	out := &entity.Block{
		Number:       block.NumberU64(),
		Hash:         block.Hash().Hex(),
		ParentHash:   block.ParentHash().Hex(),
		Timestamp:    time.Unix(int64(block.Time()), 0).UTC(),
		Miner:        block.Coinbase().Hex(),
		GasUsed:      block.GasUsed(),
		Transactions: make([]entity.Transaction, 0, len(block.Transactions())),
	}

	for _, tx := range block.Transactions() {
		converted := entity.Transaction{
			Hash:        tx.Hash().Hex(),
			Value:       tx.Value().String(),
			Data:        hexutil.Encode(tx.Data()),
			BlockNumber: block.Number().String(),
			BlockHash:   out.Hash,
			Timestamp:   out.Timestamp,
			GasPrice:    tx.GasPrice().String(),
		}
		if tx.To() != nil {
			converted.To = tx.To().Hex()
		}
		if chainID := tx.ChainId(); chainID != nil && chainID.Sign() > 0 {
			if from, err := types.Sender(types.LatestSignerForChainID(chainID), tx); err == nil {
				converted.From = from.Hex()
			}
		} else if from, err := types.Sender(types.HomesteadSigner{}, tx); err == nil {
			converted.From = from.Hex()
		}
		out.Transactions = append(out.Transactions, converted)
	}

	return out
}

// redactURL strips the path of an RPC URL, which commonly carries an API key
func redactURL(raw string) string {
	if i := strings.Index(raw, "://"); i >= 0 {
		rest := raw[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			return raw[:i+3+j] + "/..."
		}
	}
	return raw
}
