package dappbind

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"go.uber.org/zap"
)

// Wallet is an account chosen through a WalletSelector.
type Wallet struct {
	// Name identifies the wallet to the selector; it is what gets cached.
	Name string
	Key  *ecdsa.PrivateKey
	// Endpoint optionally overrides the configured endpoint for the chain.
	Endpoint string
}

// WalletSelector performs interactive account selection. cached is the name
// remembered from a previous session, or "". Implementations return an error
// wrapping ErrConnectionRejected when the user declines or nothing usable is found.
type WalletSelector interface {
	SelectWallet(ctx context.Context, chainID *big.Int, cached string) (*Wallet, error)
}

// WalletSelectorFunc adapts a function to WalletSelector.
type WalletSelectorFunc func(ctx context.Context, chainID *big.Int, cached string) (*Wallet, error)

func (f WalletSelectorFunc) SelectWallet(ctx context.Context, chainID *big.Int, cached string) (*Wallet, error) {
	return f(ctx, chainID, cached)
}

// ConnectionManager owns at most one interactive connection and hands it out
// to every caller. The first successful Connect decides the chain.
type ConnectionManager struct {
	cfg *config

	mu     sync.Mutex
	handle *Handle
}

// NewConnectionManager creates a manager with no connection established.
func NewConnectionManager(opts ...Option) *ConnectionManager {
	return &ConnectionManager{cfg: newConfig(opts)}
}

// Connect returns the interactive handle, establishing it on first use. Once a
// handle exists it is returned regardless of chainID. A nil chainID means the
// configured default chain.
func (m *ConnectionManager) Connect(ctx context.Context, chainID *big.Int) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		return m.handle, nil
	}
	if chainID == nil {
		chainID = m.cfg.chainID
	}
	chainID = new(big.Int).Set(chainID)
	log := m.cfg.logger.With(zap.Stringer("chainId", chainID))

	if m.cfg.selector == nil {
		return nil, &ConnectionError{ChainID: chainID, Err: errors.New("no compatible wallet found")}
	}

	cached, err := m.cfg.sessions.Load(ctx)
	if err != nil {
		log.Warn("Failed to load cached wallet session", zap.Error(err))
		cached = ""
	}

	wallet, err := m.cfg.selector.SelectWallet(ctx, chainID, cached)
	if err != nil {
		return nil, &ConnectionError{ChainID: chainID, Err: err}
	}
	if wallet == nil || wallet.Key == nil {
		return nil, &ConnectionError{ChainID: chainID, Err: errors.New("no wallet selected")}
	}

	endpoint := m.endpointFor(chainID, wallet.Endpoint)
	backend, err := m.cfg.dial(ctx, endpoint)
	if err != nil {
		return nil, &ConnectionError{ChainID: chainID, Err: fmt.Errorf("dial %s: %w", endpoint, err)}
	}

	signer, err := bind.NewKeyedTransactorWithChainID(wallet.Key, chainID)
	if err != nil {
		backend.Close()
		return nil, &ConnectionError{ChainID: chainID, Err: err}
	}

	if err := m.cfg.sessions.Save(ctx, wallet.Name); err != nil {
		log.Warn("Failed to cache wallet session", zap.Error(err))
	}

	m.handle = &Handle{
		backend:  backend,
		signer:   signer,
		endpoint: endpoint,
		wallet:   wallet.Name,
		chainID:  chainID,
	}
	log.Info("Wallet connected",
		zap.String("wallet", wallet.Name),
		zap.Stringer("account", signer.From),
		zap.String("endpoint", endpoint))
	return m.handle, nil
}

func (m *ConnectionManager) endpointFor(chainID *big.Int, override string) string {
	if override != "" {
		return override
	}
	if chainID.IsUint64() {
		if url, ok := m.cfg.endpoints[chainID.Uint64()]; ok {
			return url
		}
	}
	return m.cfg.rpcNode
}

// Handle returns the established interactive handle, or nil.
func (m *ConnectionManager) Handle() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// Disconnect forgets the cached wallet session and drops the handle. The next
// Connect starts from scratch. The dropped handle is not closed: bindings
// already built on it keep working until their Binder is closed.
func (m *ConnectionManager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.cfg.sessions.Clear(ctx)
	if m.handle != nil {
		m.handle = nil
		m.cfg.logger.Info("Wallet disconnected")
	}
	return err
}

// ReadOnly opens a fresh query-only handle to rpcNode, or to the configured
// RPC node when rpcNode is empty. Handles are never cached; callers close them.
func (m *ConnectionManager) ReadOnly(ctx context.Context, rpcNode string) (*Handle, error) {
	if rpcNode == "" {
		rpcNode = m.cfg.rpcNode
	}
	backend, err := m.cfg.dial(ctx, rpcNode)
	if err != nil {
		return nil, fmt.Errorf("dappbind: dial %s: %w", rpcNode, err)
	}
	m.cfg.logger.Debug("Read-only provider opened", zap.String("endpoint", rpcNode))
	return &Handle{backend: backend, endpoint: rpcNode}, nil
}

// ClearCachedProvider forgets the cached wallet session but keeps the
// in-memory handle.
func (m *ConnectionManager) ClearCachedProvider(ctx context.Context) error {
	return m.cfg.sessions.Clear(ctx)
}
