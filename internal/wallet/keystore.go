// Package wallet selects a signing account from a directory of keystore v3 files.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hyperledger/firefly-signer/pkg/keystorev3"
	"go.uber.org/zap"

	dappbind "github.com/branched-services/go-dappbind"
)

// ErrNoWallets is returned when the keystore directory holds no usable files.
var ErrNoWallets = errors.New("no compatible wallet found")

// Prompter asks the user to choose among accounts and to unlock one.
type Prompter interface {
	Select(title string, options []string) (string, error)
	Password(prompt string) (string, error)
}

// Entry is one keystore file found in the directory.
type Entry struct {
	Address common.Address
	Path    string
}

// KeystoreSelector implements dappbind.WalletSelector over a keystore directory.
type KeystoreSelector struct {
	dir      string
	prompter Prompter
	// endpoints overrides the RPC node per chain for the selected wallet.
	endpoints map[uint64]string
	logger    *zap.Logger
}

// NewKeystoreSelector creates a selector reading wallets from dir.
func NewKeystoreSelector(dir string, prompter Prompter, logger *zap.Logger) *KeystoreSelector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeystoreSelector{dir: dir, prompter: prompter, logger: logger}
}

// WithEndpoints makes selected wallets connect to the given per-chain nodes.
func (s *KeystoreSelector) WithEndpoints(endpoints map[uint64]string) *KeystoreSelector {
	s.endpoints = endpoints
	return s
}

// List returns the keystore files in the directory ordered by address.
func (s *KeystoreSelector) List() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore %s: %w", s.dir, err)
	}
	var entries []Entry
	for _, f := range files {
		if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
			continue
		}
		path := filepath.Join(s.dir, f.Name())
		addr, err := walletAddress(path)
		if err != nil {
			s.logger.Debug("Skipping keystore file", zap.String("path", path), zap.Error(err))
			continue
		}
		entries = append(entries, Entry{Address: addr, Path: path})
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Address.Hex()) < strings.ToLower(entries[j].Address.Hex())
	})
	return entries, nil
}

// SelectWallet picks the cached account when it is still present, the only
// account when there is one, and otherwise asks the prompter. The chosen file
// is then unlocked with a password from the prompter.
func (s *KeystoreSelector) SelectWallet(_ context.Context, chainID *big.Int, cached string) (*dappbind.Wallet, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoWallets
	}

	entry, err := s.choose(entries, cached)
	if err != nil {
		return nil, err
	}

	password, err := s.prompter.Password(fmt.Sprintf("Password for %s", entry.Address.Hex()))
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	key, err := unlock(entry.Path, password)
	if err != nil {
		return nil, err
	}

	w := &dappbind.Wallet{Name: entry.Address.Hex(), Key: key}
	if chainID != nil && chainID.IsUint64() {
		w.Endpoint = s.endpoints[chainID.Uint64()]
	}
	s.logger.Debug("Keystore wallet unlocked", zap.String("address", w.Name))
	return w, nil
}

func (s *KeystoreSelector) choose(entries []Entry, cached string) (Entry, error) {
	if cached != "" {
		for _, e := range entries {
			if strings.EqualFold(e.Address.Hex(), cached) {
				return e, nil
			}
		}
		s.logger.Info("Cached wallet no longer in keystore", zap.String("wallet", cached))
	}
	if len(entries) == 1 {
		return entries[0], nil
	}

	options := make([]string, len(entries))
	for i, e := range entries {
		options[i] = e.Address.Hex()
	}
	picked, err := s.prompter.Select("Select a wallet", options)
	if err != nil {
		return Entry{}, fmt.Errorf("wallet selection: %w", err)
	}
	for _, e := range entries {
		if e.Address.Hex() == picked {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("unknown wallet %q", picked)
}

func walletAddress(path string) (common.Address, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return common.Address{}, err
	}
	var header struct {
		Address string `json:"address"`
		Version int    `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return common.Address{}, err
	}
	if header.Version != 3 || !common.IsHexAddress(header.Address) {
		return common.Address{}, fmt.Errorf("not a keystore v3 file")
	}
	return common.HexToAddress(header.Address), nil
}

func unlock(path, password string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	wf, err := keystorev3.ReadWalletFile(data, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("unlock %s: %w", filepath.Base(path), err)
	}
	return crypto.ToECDSA(wf.PrivateKey())
}
