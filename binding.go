package dappbind

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// MethodFunc invokes one contract method with positional arguments.
//
// Structural problems (an argument that cannot be encoded, a result that
// cannot be decoded) are returned as errors. A failed remote call is not an
// error: it yields a Result whose Reason explains the failure.
type MethodFunc func(ctx context.Context, args ...any) (Result, error)

// Binding is a contract whose methods can be invoked by name.
type Binding struct {
	address    common.Address
	descriptor Descriptor
	handle     *Handle
	contract   *bind.BoundContract
	methods    map[string]MethodFunc
	cfg        *config
}

// Address returns the contract address.
func (b *Binding) Address() common.Address {
	return b.address
}

// Descriptor returns the ABI the binding was built from.
func (b *Binding) Descriptor() Descriptor {
	return b.descriptor
}

// Handle returns the connection the binding calls through.
func (b *Binding) Handle() *Handle {
	return b.handle
}

// Method returns the invocable function for name.
func (b *Binding) Method(name string) (MethodFunc, bool) {
	fn, ok := b.methods[name]
	return fn, ok
}

// Methods returns a copy of the method table.
func (b *Binding) Methods() map[string]MethodFunc {
	out := make(map[string]MethodFunc, len(b.methods))
	for name, fn := range b.methods {
		out[name] = fn
	}
	return out
}

// HasMethod returns true if the binding has a method with the given name.
func (b *Binding) HasMethod(name string) bool {
	_, ok := b.methods[name]
	return ok
}

// MethodNames returns all method names, sorted.
func (b *Binding) MethodNames() []string {
	names := make([]string, 0, len(b.methods))
	for name := range b.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke calls the named method. See MethodFunc for the error contract.
func (b *Binding) Invoke(ctx context.Context, name string, args ...any) (Result, error) {
	fn, ok := b.methods[name]
	if !ok {
		return Result{}, &MethodNotFoundError{Contract: b.address, Method: name}
	}
	return fn(ctx, args...)
}

// InvokeWithValue is Invoke for payable methods: the transaction carries
// value wei. A non-zero value on any other method fails with ErrNotPayable.
func (b *Binding) InvokeWithValue(ctx context.Context, value *big.Int, name string, args ...any) (Result, error) {
	if _, ok := b.methods[name]; !ok {
		return Result{}, &MethodNotFoundError{Contract: b.address, Method: name}
	}
	m, _ := b.descriptor.Method(name)
	return b.invoke(ctx, m, value, args)
}

// invoke zips args against the declared inputs by position. Extra arguments
// are ignored and missing ones are encoded as nil.
func (b *Binding) invoke(ctx context.Context, m Method, value *big.Int, args []any) (Result, error) {
	if value != nil {
		if value.Sign() < 0 {
			return Result{}, fmt.Errorf("%w: negative value %s", ErrInvalidNumber, value)
		}
		if value.Sign() > 0 && !m.Payable() {
			return Result{}, fmt.Errorf("%w: %s", ErrNotPayable, m.Name)
		}
	}

	encoded := make([]any, len(m.Inputs))
	for i, in := range m.Inputs {
		var v any
		if i < len(args) {
			v = args[i]
		}
		ev, err := Encode(in, v)
		if err != nil {
			return Result{}, &ArgumentError{Method: m.Name, Index: i, Type: in.Type, Err: err}
		}
		encoded[i] = ev
	}

	if b.cfg.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.callTimeout)
		defer cancel()
	}

	log := b.cfg.logger.With(zap.Stringer("contract", b.address), zap.String("method", m.Name))
	start := time.Now()

	var (
		values []any
		err    error
	)
	if m.Constant() {
		var raw any
		raw, err = b.call(ctx, m, encoded)
		if err == nil {
			values, err = DecodeOutputs(m.Outputs, raw)
			if err != nil {
				b.cfg.metrics.observe(b.address.Hex(), m.Name, OutcomeFailed, time.Since(start))
				return Result{}, fmt.Errorf("dappbind: decode %s result: %w", m.Name, err)
			}
		}
	} else {
		values, err = b.transact(ctx, m, value, encoded)
	}

	if err != nil {
		b.cfg.metrics.observe(b.address.Hex(), m.Name, OutcomeFailed, time.Since(start))
		reason, ok := failureReason(err)
		if !ok {
			reason = b.cfg.fallbackReason
		}
		log.Warn("Contract call failed", zap.String("reason", reason), zap.Error(err))
		return Result{
			Reason: reason,
			Err:    &CallError{Contract: b.address, Method: m.Name, Reason: reason, Err: err},
		}, nil
	}

	b.cfg.metrics.observe(b.address.Hex(), m.Name, OutcomeOK, time.Since(start))
	log.Debug("Contract call succeeded", zap.Duration("elapsed", time.Since(start)))
	return Result{Values: values}, nil
}

// call performs an eth_call and shapes the raw result the way DecodeOutputs
// expects: the bare value for a single output, the full sequence otherwise.
func (b *Binding) call(ctx context.Context, m Method, args []any) (any, error) {
	var out []any
	if err := b.contract.Call(b.handle.callOpts(ctx), &out, m.Name, args...); err != nil {
		return nil, err
	}
	if len(m.Outputs) == 1 && len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

// transact sends a transaction and resolves to its hash.
func (b *Binding) transact(ctx context.Context, m Method, value *big.Int, args []any) ([]any, error) {
	if b.handle.ReadOnly() {
		return nil, ErrSignerRequired
	}
	opts := b.handle.transactOpts(ctx)
	opts.Value = value
	tx, err := b.contract.Transact(opts, m.Name, args...)
	if err != nil {
		return nil, err
	}
	return []any{tx.Hash().Hex()}, nil
}
