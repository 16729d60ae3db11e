package dappbind

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Binder turns contract addresses and ABIs into callable bindings and keeps
// one binding per address for its whole lifetime.
type Binder struct {
	conn *ConnectionManager
	cfg  *config

	mu       sync.Mutex
	bindings map[common.Address]*Binding
}

// NewBinder creates a Binder that obtains connections from conn.
func NewBinder(conn *ConnectionManager, opts ...Option) *Binder {
	return &Binder{
		conn:     conn,
		cfg:      newConfig(opts),
		bindings: make(map[common.Address]*Binding),
	}
}

// Contract returns the binding for address, building it on first request.
//
// The ABI source is normalized first, so a malformed ABI fails before anything
// is cached. The cache is keyed by address alone: once an address is bound,
// later calls return the existing binding and their ABI is not consulted.
// readOnly selects a query-only handle instead of the interactive one.
func (b *Binder) Contract(ctx context.Context, address string, source any, readOnly bool) (*Binding, error) {
	desc, err := Normalize(source)
	if err != nil {
		return nil, err
	}
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.bindings[addr]; ok {
		return existing, nil
	}

	var handle *Handle
	if readOnly {
		handle, err = b.conn.ReadOnly(ctx, "")
	} else {
		handle, err = b.conn.Connect(ctx, nil)
	}
	if err != nil {
		return nil, err
	}

	binding := newBinding(addr, desc, handle, b.cfg)
	b.bindings[addr] = binding
	b.cfg.logger.Info("Contract bound",
		zap.Stringer("address", addr),
		zap.Int("methods", len(binding.methods)),
		zap.Bool("readOnly", handle.ReadOnly()))
	return binding, nil
}

// Lookup returns the cached binding for address, if any.
func (b *Binder) Lookup(address common.Address) (*Binding, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	binding, ok := b.bindings[address]
	return binding, ok
}

// Close releases the connection behind every cached binding, and empties the
// cache. Interactive bindings share one handle, which is closed once.
func (b *Binder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	closed := make(map[*Handle]bool, len(b.bindings))
	for addr, binding := range b.bindings {
		if h := binding.handle; !closed[h] {
			h.Close()
			closed[h] = true
		}
		delete(b.bindings, addr)
	}
}

func newBinding(addr common.Address, desc Descriptor, handle *Handle, cfg *config) *Binding {
	parsed := abi.ABI{Methods: make(map[string]abi.Method, len(desc.Methods))}
	for _, m := range desc.Methods {
		parsed.Methods[m.Name] = m.gethMethod()
	}
	backend := handle.Backend()

	binding := &Binding{
		address:    addr,
		descriptor: desc,
		handle:     handle,
		contract:   bind.NewBoundContract(addr, parsed, backend, backend, backend),
		methods:    make(map[string]MethodFunc, len(desc.Methods)),
		cfg:        cfg,
	}
	for _, m := range desc.Methods {
		method := m
		binding.methods[m.Name] = func(ctx context.Context, args ...any) (Result, error) {
			return binding.invoke(ctx, method, nil, args)
		}
	}
	return binding
}

// String identifies the binder's cache size for diagnostics.
func (b *Binder) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fmt.Sprintf("Binder(%d contracts)", len(b.bindings))
}
