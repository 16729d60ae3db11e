package dappbind

import (
	"math/big"
	"time"

	"go.uber.org/zap"
)

// DefaultRPCNode is used for read-only handles when no endpoint is configured.
const DefaultRPCNode = "http://localhost:8545"

// DefaultChainID is the chain interactive connections are pinned to when the
// caller does not name one.
const DefaultChainID = 97

// DefaultFallbackReason is reported when a failed call carries no readable reason.
const DefaultFallbackReason = "Oops! This is something I can't handle"

// Option configures a ConnectionManager or a Binder.
type Option func(*config)

// config holds the settings shared by ConnectionManager and Binder.
type config struct {
	logger         *zap.Logger
	metrics        *Metrics
	rpcNode        string
	endpoints      map[uint64]string
	chainID        *big.Int
	selector       WalletSelector
	sessions       SessionStore
	dial           Dialer
	fallbackReason string
	callTimeout    time.Duration
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		logger:         zap.NewNop(),
		rpcNode:        DefaultRPCNode,
		endpoints:      make(map[uint64]string),
		chainID:        big.NewInt(DefaultChainID),
		sessions:       NewMemorySessionStore(),
		dial:           DialEthClient,
		fallbackReason: DefaultFallbackReason,
	}
}

func newConfig(opts []Option) *config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records call counts and latencies into m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithRPCNode sets the endpoint used for read-only handles, and for
// interactive ones when no chain-specific endpoint is known.
func WithRPCNode(url string) Option {
	return func(c *config) {
		if url != "" {
			c.rpcNode = url
		}
	}
}

// WithEndpoints maps chain ids to JSON-RPC endpoints for interactive connections.
func WithEndpoints(endpoints map[uint64]string) Option {
	return func(c *config) {
		for id, url := range endpoints {
			c.endpoints[id] = url
		}
	}
}

// WithDefaultChainID sets the chain used when a connection is established
// implicitly, e.g. by Binder.Contract.
func WithDefaultChainID(id uint64) Option {
	return func(c *config) {
		c.chainID = new(big.Int).SetUint64(id)
	}
}

// WithWalletSelector sets the interactive account selection capability.
func WithWalletSelector(s WalletSelector) Option {
	return func(c *config) {
		c.selector = s
	}
}

// WithSessionStore sets where the selected wallet is remembered between runs.
func WithSessionStore(s SessionStore) Option {
	return func(c *config) {
		if s != nil {
			c.sessions = s
		}
	}
}

// WithDialer replaces the function used to open JSON-RPC backends.
func WithDialer(d Dialer) Option {
	return func(c *config) {
		if d != nil {
			c.dial = d
		}
	}
}

// WithFallbackReason sets the reason reported for failures that carry none.
func WithFallbackReason(reason string) Option {
	return func(c *config) {
		c.fallbackReason = reason
	}
}

// WithCallTimeout bounds every contract call. Zero, the default, leaves
// cancellation entirely to the caller's context.
func WithCallTimeout(d time.Duration) Option {
	return func(c *config) {
		if d < 0 {
			d = 0
		}
		c.callTimeout = d
	}
}
