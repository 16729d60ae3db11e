package dappbind

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Backend is the chain access a Handle needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Close()
}

// Dialer opens a Backend for a JSON-RPC endpoint.
type Dialer func(ctx context.Context, endpoint string) (Backend, error)

// DialEthClient is the default Dialer.
func DialEthClient(ctx context.Context, endpoint string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Handle is an established chain connection. Interactive handles carry a
// signer and may send transactions; read-only handles can only query.
type Handle struct {
	backend  Backend
	signer   *bind.TransactOpts
	endpoint string
	wallet   string

	mu      sync.Mutex
	chainID *big.Int
}

// ReadOnly reports whether the handle lacks a signer.
func (h *Handle) ReadOnly() bool {
	return h.signer == nil
}

// Endpoint returns the JSON-RPC endpoint the handle is connected to.
func (h *Handle) Endpoint() string {
	return h.endpoint
}

// Wallet returns the name of the wallet an interactive handle was opened with.
func (h *Handle) Wallet() string {
	return h.wallet
}

// Account returns the signer address, or the zero address for read-only handles.
func (h *Handle) Account() common.Address {
	if h.signer == nil {
		return common.Address{}
	}
	return h.signer.From
}

// Backend exposes the underlying connection for reuse.
func (h *Handle) Backend() Backend {
	return h.backend
}

// ChainID returns the chain the handle is pinned to. Read-only handles learn
// it from the node on first use.
func (h *Handle) ChainID(ctx context.Context) (*big.Int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.chainID != nil {
		return new(big.Int).Set(h.chainID), nil
	}
	id, err := h.backend.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	h.chainID = id
	return new(big.Int).Set(id), nil
}

// Accounts lists the accounts available through the handle: the signer for
// interactive handles, otherwise whatever the node reports via eth_accounts.
func (h *Handle) Accounts(ctx context.Context) ([]common.Address, error) {
	if h.signer != nil {
		return []common.Address{h.signer.From}, nil
	}
	rc, ok := h.backend.(interface{ Client() *rpc.Client })
	if !ok {
		return []common.Address{}, nil
	}
	var accounts []common.Address
	if err := rc.Client().CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Balance returns the latest balance of account in wei.
func (h *Handle) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	return h.backend.BalanceAt(ctx, account, nil)
}

// Close releases the underlying connection.
func (h *Handle) Close() {
	h.backend.Close()
}

func (h *Handle) transactOpts(ctx context.Context) *bind.TransactOpts {
	opts := *h.signer
	opts.Context = ctx
	return &opts
}

func (h *Handle) callOpts(ctx context.Context) *bind.CallOpts {
	opts := &bind.CallOpts{Context: ctx}
	if h.signer != nil {
		opts.From = h.signer.From
	}
	return opts
}
