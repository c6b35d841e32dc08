// Package ethclient is a thin wrapper over go-ethereum's JSON-RPC client,
// used for chain reads and the exchange contract's cancellation-watermark
// call.
package ethclient

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// userMinOrderNonceSelector is the 4-byte selector for
// userMinOrderNonce(address), computed over the function signature.
const userMinOrderNonceSelector = "0x4266581e"

// ChainClient is the surface the execution and nonce engines need from an
// Ethereum node. bind.ContractBackend is embedded so marketplace builders
// can use it directly for gas estimation and call simulation.
type ChainClient interface {
	bind.ContractBackend
	ChainID(context.Context) (*big.Int, error)
	HeaderByNumber(context.Context, *big.Int) (*ethtypes.Header, error)
	SendTransaction(context.Context, *ethtypes.Transaction) error
	PendingNonceAt(context.Context, common.Address) (uint64, error)
	SuggestGasPrice(context.Context) (*big.Int, error)
}

// Client wraps go-ethereum's ethclient.Client plus a raw *rpc.Client for
// the hand-rolled private-relay bundle calls go-ethereum has no typed
// binding for. The userMinOrderNonce read goes through CallContract.
type Client struct {
	ChainClient
	rpc *rpc.Client
}

// Dial connects to an Ethereum node's HTTP or WebSocket RPC endpoint.
func Dial(ctx context.Context, rawURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("ethclient: dial %s: %w", rawURL, err)
	}
	return &Client{
		ChainClient: ethclient.NewClient(rpcClient),
		rpc:         rpcClient,
	}, nil
}

// RawRPC exposes the underlying *rpc.Client for callers (the private
// relay broadcaster) that need to issue methods go-ethereum has no typed
// binding for.
func (c *Client) RawRPC() *rpc.Client {
	return c.rpc
}

// UserMinOrderNonce reads the exchange contract's userMinOrderNonce(account)
// cancellation watermark: any order nonce at or below this value has been
// invalidated by the account, independent of on-chain order status.
func (c *Client) UserMinOrderNonce(ctx context.Context, exchange, account common.Address) (*big.Int, error) {
	data := append(common.FromHex(userMinOrderNonceSelector), common.LeftPadBytes(account.Bytes(), 32)...)
	msg := ethereum.CallMsg{To: &exchange, Data: data}
	out, err := c.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("ethclient: userMinOrderNonce(%s) on %s: %w", account, exchange, err)
	}
	return new(big.Int).SetBytes(out), nil
}
