package dappbind

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABI = `[
	{"type":"function","name":"name","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
	{"type":"function","name":"balanceOf","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

func TestNormalizeJSON(t *testing.T) {
	desc, err := Normalize(erc20ABI)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !desc.Normalized() {
		t.Error("Expected normalized descriptor")
	}

	names := desc.Names()
	want := []string{"name", "balanceOf", "transfer"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("Expected methods %v, got %v", want, names)
	}

	balanceOf, ok := desc.Method("balanceOf")
	if !ok {
		t.Fatal("balanceOf not found")
	}
	if !balanceOf.Constant() {
		t.Error("balanceOf should be constant")
	}
	if balanceOf.Inputs[0].Family != FamilyAddress {
		t.Errorf("Expected address input, got %v", balanceOf.Inputs[0].Family)
	}
	if balanceOf.Outputs[0].Family != FamilyUint {
		t.Errorf("Expected uint output, got %v", balanceOf.Outputs[0].Family)
	}
	if balanceOf.Signature() != "balanceOf(address)" {
		t.Errorf("Expected balanceOf(address), got %s", balanceOf.Signature())
	}

	transfer, _ := desc.Method("transfer")
	if transfer.Constant() {
		t.Error("transfer should not be constant")
	}
}

func TestNormalizeSignatures(t *testing.T) {
	desc, err := Normalize([]string{
		"function balanceOf(address owner) view returns (uint256)",
		"function transfer(address to, uint256 amount) returns (bool)",
		"function deposit() payable",
		"function getPool(uint256 id) external view returns ((address token, uint256 amount) pool)",
		"function totalSupply() public constant returns (uint256)",
		"event Transfer(address indexed from, address indexed to, uint256 value)",
		"error Unauthorized(address caller)",
		"constructor(address owner)",
		"receive() external payable",
		"fallback() external",
		"receiveTokens(address,uint256)",
		"function fallbackAddress() view returns (address)",
		"eventCount() view returns (uint256)",
		"constructorArgs() view returns (bytes)",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		name       string
		sig        string
		mutability string
		inputs     []TypeFamily
		outputs    []TypeFamily
	}{
		{"balanceOf", "balanceOf(address)", "view", []TypeFamily{FamilyAddress}, []TypeFamily{FamilyUint}},
		{"transfer", "transfer(address,uint256)", "nonpayable", []TypeFamily{FamilyAddress, FamilyUint}, []TypeFamily{FamilyBool}},
		{"deposit", "deposit()", "payable", nil, nil},
		{"getPool", "getPool(uint256)", "view", []TypeFamily{FamilyUint}, []TypeFamily{FamilyTuple}},
		{"totalSupply", "totalSupply()", "view", nil, []TypeFamily{FamilyUint}},
		{"receiveTokens", "receiveTokens(address,uint256)", "nonpayable", []TypeFamily{FamilyAddress, FamilyUint}, nil},
		{"fallbackAddress", "fallbackAddress()", "view", nil, []TypeFamily{FamilyAddress}},
		{"eventCount", "eventCount()", "view", nil, []TypeFamily{FamilyUint}},
		{"constructorArgs", "constructorArgs()", "view", nil, []TypeFamily{FamilyBytes}},
	}

	if len(desc.Methods) != len(tests) {
		t.Fatalf("Expected %d methods (non-function entries skipped), got %d", len(tests), len(desc.Methods))
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := desc.Method(tt.name)
			if !ok {
				t.Fatalf("%s not found", tt.name)
			}
			if m.Signature() != tt.sig {
				t.Errorf("Expected signature %s, got %s", tt.sig, m.Signature())
			}
			if m.StateMutability != tt.mutability {
				t.Errorf("Expected mutability %s, got %s", tt.mutability, m.StateMutability)
			}
			if len(m.Inputs) != len(tt.inputs) {
				t.Fatalf("Expected %d inputs, got %d", len(tt.inputs), len(m.Inputs))
			}
			for i, f := range tt.inputs {
				if m.Inputs[i].Family != f {
					t.Errorf("input %d: expected %v, got %v", i, f, m.Inputs[i].Family)
				}
			}
			if len(m.Outputs) != len(tt.outputs) {
				t.Fatalf("Expected %d outputs, got %d", len(tt.outputs), len(m.Outputs))
			}
			for i, f := range tt.outputs {
				if m.Outputs[i].Family != f {
					t.Errorf("output %d: expected %v, got %v", i, f, m.Outputs[i].Family)
				}
			}
		})
	}

	t.Run("tuple components keep their types", func(t *testing.T) {
		m, _ := desc.Method("getPool")
		pool := m.Outputs[0]
		if len(pool.Components) != 2 {
			t.Fatalf("Expected 2 components, got %d", len(pool.Components))
		}
		if pool.Components[0].Type != "address" || pool.Components[1].Type != "uint256" {
			t.Errorf("Unexpected components %+v", pool.Components)
		}
		if pool.ABIType().T != abi.TupleTy {
			t.Errorf("Expected tuple type, got %v", pool.ABIType())
		}
	})
}

func TestNormalizeMixedEntries(t *testing.T) {
	desc, err := Normalize([]any{
		"function symbol() view returns (string)",
		map[string]any{
			"type":     "function",
			"name":     "decimals",
			"inputs":   []any{},
			"outputs":  []any{map[string]any{"name": "", "type": "uint8"}},
			"constant": true,
		},
		map[string]any{"type": "event", "name": "Approval", "inputs": []any{}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := desc.Names(); len(got) != 2 || got[0] != "symbol" || got[1] != "decimals" {
		t.Fatalf("Expected [symbol decimals], got %v", got)
	}
	decimals, _ := desc.Method("decimals")
	if decimals.StateMutability != "view" {
		t.Errorf("legacy constant flag should map to view, got %s", decimals.StateMutability)
	}
}

func TestNormalizeJSONWithSignatureStrings(t *testing.T) {
	desc, err := Normalize(`["function getPools() view returns (address[])", "function name() view returns (string)"]`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(desc.Methods) != 2 {
		t.Errorf("Expected 2 methods, got %d", len(desc.Methods))
	}
}

func TestNormalizeGethABI(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		t.Fatalf("abi.JSON: %v", err)
	}
	for _, source := range []any{parsed, &parsed} {
		desc, err := Normalize(source)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(desc.Methods) != 3 {
			t.Errorf("Expected 3 methods, got %d", len(desc.Methods))
		}
		m, ok := desc.Method("transfer")
		if !ok {
			t.Fatal("transfer not found")
		}
		if m.Signature() != "transfer(address,uint256)" {
			t.Errorf("Expected transfer(address,uint256), got %s", m.Signature())
		}
		if m.Inputs[1].Family != FamilyUint {
			t.Errorf("Expected uint family, got %v", m.Inputs[1].Family)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first := MustNormalize(erc20ABI)

	again, err := Normalize(first)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(again.Methods) != len(first.Methods) {
		t.Errorf("Expected %d methods, got %d", len(first.Methods), len(again.Methods))
	}

	data, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	fromJSON, err := Normalize(data)
	if err != nil {
		t.Fatalf("re-normalize marshaled descriptor: %v", err)
	}
	for i, m := range first.Methods {
		if fromJSON.Methods[i].Signature() != m.Signature() {
			t.Errorf("method %d: expected %s, got %s", i, m.Signature(), fromJSON.Methods[i].Signature())
		}
		if fromJSON.Methods[i].StateMutability != m.StateMutability {
			t.Errorf("method %d: expected %s, got %s", i, m.StateMutability, fromJSON.Methods[i].StateMutability)
		}
	}

	t.Run("unnormalized descriptor literal", func(t *testing.T) {
		desc, err := Normalize(&Descriptor{Methods: []Method{{
			Name:    "owner",
			Outputs: []Parameter{{Type: "address"}},
		}}})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		m := desc.Methods[0]
		if m.StateMutability != "nonpayable" {
			t.Errorf("Expected default nonpayable, got %s", m.StateMutability)
		}
		if m.Outputs[0].Family != FamilyAddress {
			t.Errorf("Expected address family, got %v", m.Outputs[0].Family)
		}
	})
}

func TestNormalizeOverloads(t *testing.T) {
	desc, err := Normalize([]string{
		"function safeTransferFrom(address from, address to, uint256 id)",
		"function safeTransferFrom(address from, address to, uint256 id, bytes data)",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(desc.Names()) != 1 {
		t.Errorf("Expected 1 distinct name, got %v", desc.Names())
	}
	m, _ := desc.Method("safeTransferFrom")
	if len(m.Inputs) != 4 {
		t.Errorf("Expected the last overload (4 inputs), got %d", len(m.Inputs))
	}
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name   string
		source any
	}{
		{"empty list", []string{}},
		{"only events", []string{"event Ping()"}},
		{"bad json", `[{"type":"function",`},
		{"missing type", `[{"type":"function","name":"f","inputs":[{"name":"x"}],"outputs":[]}]`},
		{"unknown type", `[{"type":"function","name":"f","inputs":[{"name":"x","type":"uint999"}],"outputs":[]}]`},
		{"missing inputs", `[{"type":"function","name":"f","outputs":[]}]`},
		{"missing name", `[{"type":"function","inputs":[],"outputs":[]}]`},
		{"unbalanced signature", []string{"function f(uint256"}},
		{"garbage returns", []string{"function f() returns uint256"}},
		{"unsized uint", []string{"function f(uint x)"}},
		{"unsupported source", 42},
		{"nil descriptor", (*Descriptor)(nil)},
		{"unsupported entry", []any{3.14}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.source)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, ErrMalformedAbi) {
				t.Errorf("Expected ErrMalformedAbi, got %v", err)
			}
		})
	}

	t.Run("error names the entry", func(t *testing.T) {
		_, err := Normalize([]string{"function ok() view", "function broken(uint256"})
		var abiErr *AbiError
		if !errors.As(err, &abiErr) {
			t.Fatalf("Expected *AbiError, got %T", err)
		}
		if abiErr.Entry != 1 {
			t.Errorf("Expected entry 1, got %d", abiErr.Entry)
		}
	})
}

func TestStripNames(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"()", "()"},
		{"(address owner)", "(address)"},
		{"(address to, uint256[] memory amounts)", "(address,uint256[])"},
		{"(tuple(address a, uint256 b) p, bool ok)", "((address,uint256),bool)"},
		{"(bytes32 indexed)", "(bytes32)"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := stripNames(tt.in); got != tt.want {
				t.Errorf("stripNames(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
