package dappbind

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// EtherDecimals is the fixed-point scale applied when displaying uint results.
const EtherDecimals = 18

// Encode converts an application-level value into the wire value the ABI
// packer expects for param. Values of families without a coercion strategy are
// returned unchanged.
func Encode(param Parameter, value any) (any, error) {
	t := param.abiType
	if param.typed && (t.T == abi.SliceTy || t.T == abi.ArrayTy) && isList(value) {
		return encodeList(param.Family, t, value)
	}
	return encodeScalar(param.Family, t, param.typed, value)
}

func encodeScalar(family TypeFamily, t abi.Type, typed bool, value any) (any, error) {
	switch family {
	case FamilyAddress:
		return toAddress(value)
	case FamilyUint:
		n, err := toUint(value)
		if err != nil {
			return nil, err
		}
		if !typed {
			return n, nil
		}
		return narrowUint(n, t)
	case FamilyBytes:
		return toBytes(value, t, typed)
	case FamilyInt, FamilyBool, FamilyString, FamilyTuple, FamilyOther:
		return value, nil
	default:
		return value, nil
	}
}

func encodeList(family TypeFamily, t abi.Type, value any) (any, error) {
	rv := reflect.ValueOf(value)
	goType := t.GetType()
	var out reflect.Value
	if t.T == abi.SliceTy {
		out = reflect.MakeSlice(goType, rv.Len(), rv.Len())
	} else {
		if rv.Len() != t.Size {
			return value, nil
		}
		out = reflect.New(goType).Elem()
	}
	for i := 0; i < rv.Len(); i++ {
		ev, err := encodeScalar(family, *t.Elem, true, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		evv := reflect.ValueOf(ev)
		if !evv.IsValid() || !evv.Type().AssignableTo(goType.Elem()) {
			// Leave the packer to reject it.
			return value, nil
		}
		out.Index(i).Set(evv)
	}
	return out.Interface(), nil
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case []byte, string:
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// NormalizeAddress validates s as an account identifier and returns its
// EIP-55 checksum form. Mixed-case input must already carry a valid checksum.
func NormalizeAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	body := s
	if has0xPrefix(s) {
		body = s[2:]
	}
	if len(body) != 2*common.AddressLength || !isHex(body) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	addr := common.HexToAddress(body)
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && "0x"+body != addr.Hex() {
		return common.Address{}, fmt.Errorf("%w: bad checksum %q", ErrInvalidAddress, s)
	}
	return addr, nil
}

func toAddress(value any) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		if v == nil {
			return common.Address{}, fmt.Errorf("%w: nil", ErrInvalidAddress)
		}
		return *v, nil
	case string:
		return NormalizeAddress(v)
	default:
		return common.Address{}, fmt.Errorf("%w: unsupported value %T", ErrInvalidAddress, value)
	}
}

func toUint(value any) (*big.Int, error) {
	var n *big.Int
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("%w: nil", ErrInvalidNumber)
		}
		n = new(big.Int).Set(v)
	case big.Int:
		n = new(big.Int).Set(&v)
	case string:
		return parseUintString(v)
	case json.Number:
		return parseUintString(v.String())
	case int:
		n = big.NewInt(int64(v))
	case int8:
		n = big.NewInt(int64(v))
	case int16:
		n = big.NewInt(int64(v))
	case int32:
		n = big.NewInt(int64(v))
	case int64:
		n = big.NewInt(v)
	case uint:
		n = new(big.Int).SetUint64(uint64(v))
	case uint8:
		n = new(big.Int).SetUint64(uint64(v))
	case uint16:
		n = new(big.Int).SetUint64(uint64(v))
	case uint32:
		n = new(big.Int).SetUint64(uint64(v))
	case uint64:
		n = new(big.Int).SetUint64(v)
	default:
		return nil, fmt.Errorf("%w: unsupported value %T", ErrInvalidNumber, value)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value %s", ErrInvalidNumber, n)
	}
	return n, nil
}

// parseUintString accepts decimal digits or 0x-prefixed hex, nothing else.
func parseUintString(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: negative value %q", ErrInvalidNumber, s)
	}
	digits, base := s, 10
	if has0xPrefix(s) {
		digits, base = s[2:], 16
	}
	if digits == "" || (base == 16 && !isHex(digits)) || (base == 10 && !isDecimal(digits)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return n, nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func isHex(s string) bool {
	for _, c := range s {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

func isDecimal(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// narrowUint converts n into the Go type go-ethereum packs for t.
func narrowUint(n *big.Int, t abi.Type) (any, error) {
	if t.Size > 0 && n.BitLen() > t.Size {
		return nil, fmt.Errorf("%w: %s overflows uint%d", ErrInvalidNumber, n, t.Size)
	}
	switch t.Size {
	case 8:
		return uint8(n.Uint64()), nil
	case 16:
		return uint16(n.Uint64()), nil
	case 32:
		return uint32(n.Uint64()), nil
	case 64:
		return n.Uint64(), nil
	default:
		return n, nil
	}
}

func toBytes(value any, t abi.Type, typed bool) (any, error) {
	var b []byte
	switch v := value.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return value, nil
	}
	if !typed || t.T != abi.FixedBytesTy {
		return b, nil
	}
	if len(b) > t.Size {
		return nil, fmt.Errorf("%w: %d bytes do not fit bytes%d", ErrInvalidEncoding, len(b), t.Size)
	}
	out := reflect.New(t.GetType()).Elem()
	for i, c := range b {
		out.Index(i).SetUint(uint64(c))
	}
	return out.Interface(), nil
}

// Decode converts a raw value returned by the chain into its display form.
func Decode(param Parameter, raw any) (any, error) {
	switch param.Family {
	case FamilyUint:
		return decodeUint(raw)
	case FamilyBytes:
		return decodeBytes(raw)
	case FamilyAddress, FamilyInt, FamilyBool, FamilyString, FamilyTuple, FamilyOther:
		return raw, nil
	default:
		return raw, nil
	}
}

func decodeUint(raw any) (any, error) {
	var n *big.Int
	switch v := raw.(type) {
	case *big.Int:
		n = v
	case uint8:
		n = new(big.Int).SetUint64(uint64(v))
	case uint16:
		n = new(big.Int).SetUint64(uint64(v))
	case uint32:
		n = new(big.Int).SetUint64(uint64(v))
	case uint64:
		n = new(big.Int).SetUint64(v)
	default:
		// Arrays and anything unexpected are left as returned.
		return raw, nil
	}
	if n == nil {
		return raw, nil
	}
	return FormatUnits(n, EtherDecimals), nil
}

func decodeBytes(raw any) (any, error) {
	var b []byte
	switch v := raw.(type) {
	case []byte:
		b = v
	case string:
		return v, nil
	default:
		rv := reflect.ValueOf(raw)
		if !rv.IsValid() || rv.Kind() != reflect.Array || rv.Type().Elem().Kind() != reflect.Uint8 {
			return raw, nil
		}
		b = make([]byte, rv.Len())
		for i := range b {
			b[i] = byte(rv.Index(i).Uint())
		}
		b = trimZeroPadding(b)
	}
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("%w: %x", ErrInvalidEncoding, b)
	}
	return string(b), nil
}

func trimZeroPadding(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return b[:end]
}

// DecodeOutputs decodes a call result against the declared outputs. With more
// than one output raw must be a positional sequence; with exactly one it is the
// scalar value itself.
func DecodeOutputs(outputs []Parameter, raw any) ([]any, error) {
	switch len(outputs) {
	case 0:
		return []any{}, nil
	case 1:
		v, err := Decode(outputs[0], raw)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}

	seq, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("dappbind: expected %d positional results, got %T", len(outputs), raw)
	}
	result := make([]any, len(outputs))
	for i, out := range outputs {
		var elem any
		if i < len(seq) {
			elem = seq[i]
		}
		v, err := Decode(out, elem)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		result[i] = v
	}
	return result, nil
}

// FormatUnits renders n scaled down by 10^decimals as an exact decimal string
// with at least one fractional digit, e.g. 1500000000000000000 -> "1.5".
func FormatUnits(n *big.Int, decimals int) string {
	neg := n.Sign() < 0
	abs := new(big.Int).Abs(n)
	s := abs.String()
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	whole, frac := s[:len(s)-decimals], strings.TrimRight(s[len(s)-decimals:], "0")
	if frac == "" {
		frac = "0"
	}
	out := whole + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// ParseUnits is the inverse of FormatUnits for non-negative values.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > decimals {
		return nil, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidNumber, s, decimals)
	}
	if whole == "" {
		whole = "0"
	}
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return n, nil
}
