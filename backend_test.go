package dappbind

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var errClientClosed = errors.New("client is closed")

// fakeBackend answers eth_call by function selector and records sent transactions.
type fakeBackend struct {
	bind.ContractBackend

	mu        sync.Mutex
	chainID   *big.Int
	balance   *big.Int
	responses map[[4]byte]func() ([]byte, error)
	calls     map[[4]byte]int
	lastData  []byte
	sent      []*types.Transaction
	closed    bool
}

func newFakeBackend(chainID int64) *fakeBackend {
	return &fakeBackend{
		chainID:   big.NewInt(chainID),
		balance:   big.NewInt(0),
		responses: make(map[[4]byte]func() ([]byte, error)),
		calls:     make(map[[4]byte]int),
	}
}

func selectorOf(m Method) [4]byte {
	var sel [4]byte
	copy(sel[:], m.gethMethod().ID)
	return sel
}

// respond makes calls to m return the ABI encoding of values.
func (f *fakeBackend) respond(t *testing.T, m Method, values ...any) {
	t.Helper()
	data, err := toArguments(m.Outputs).Pack(values...)
	if err != nil {
		t.Fatalf("pack response for %s: %v", m.Name, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[selectorOf(m)] = func() ([]byte, error) { return data, nil }
}

// fail makes calls to m fail with err.
func (f *fakeBackend) fail(m Method, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[selectorOf(m)] = func() ([]byte, error) { return nil, err }
}

func (f *fakeBackend) callCount(m Method) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[selectorOf(m)]
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(msg.Data) < 4 {
		return nil, errors.New("no selector")
	}
	var sel [4]byte
	copy(sel[:], msg.Data[:4])
	if f.closed {
		return nil, errClientClosed
	}
	f.calls[sel]++
	f.lastData = append([]byte(nil), msg.Data...)
	resp, ok := f.responses[sel]
	if !ok {
		return nil, errors.New("unexpected call")
	}
	return resp()
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60, 0x00}, nil
}

func (f *fakeBackend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60, 0x00}, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 50_000, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errClientClosed
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.chainID), nil
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeBackend) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeBackend) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// dialerFor returns a Dialer handing out backend and recording endpoints.
func dialerFor(backend Backend, endpoints *[]string) Dialer {
	var mu sync.Mutex
	return func(_ context.Context, endpoint string) (Backend, error) {
		mu.Lock()
		defer mu.Unlock()
		if endpoints != nil {
			*endpoints = append(*endpoints, endpoint)
		}
		return backend, nil
	}
}

func testKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

// staticSelector always picks the same wallet and records what it was asked.
type staticSelector struct {
	wallet *Wallet
	err    error
	calls  int
	chains []*big.Int
	cached []string
}

func (s *staticSelector) SelectWallet(_ context.Context, chainID *big.Int, cached string) (*Wallet, error) {
	s.calls++
	s.chains = append(s.chains, chainID)
	s.cached = append(s.cached, cached)
	if s.err != nil {
		return nil, s.err
	}
	return s.wallet, nil
}

// revertError mimics the JSON-RPC error a node returns for a reverted call.
type revertError struct {
	data string
}

func (e *revertError) Error() string  { return "execution reverted" }
func (e *revertError) ErrorCode() int { return 3 }
func (e *revertError) ErrorData() any { return e.data }

func revertData(t *testing.T, reason string) string {
	t.Helper()
	stringType, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	if err != nil {
		t.Fatalf("pack revert: %v", err)
	}
	// Error(string) selector
	data := append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...)
	return "0x" + common.Bytes2Hex(data)
}
