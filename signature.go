package dappbind

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Entry kinds in a human-readable ABI that do not describe callable methods.
var skippedKinds = []string{"event", "error", "struct", "constructor", "fallback", "receive"}

// isKeyword reports whether s starts with kind as a whole word, so that
// "receive()" is skipped but "receiveTokens(address)" is not.
func isKeyword(s, kind string) bool {
	if !strings.HasPrefix(s, kind) {
		return false
	}
	rest := s[len(kind):]
	return rest == "" || rest[0] == '(' || rest[0] == ' ' || rest[0] == '\t'
}

var mutabilities = map[string]string{
	"view":       "view",
	"pure":       "pure",
	"payable":    "payable",
	"nonpayable": "nonpayable",
	"constant":   "view",
}

// parseSignature turns a human-readable signature such as
// "function balanceOf(address owner) view returns (uint256)" into a Method.
// The grammar itself is go-ethereum's selector parser; this only peels off
// the keywords, modifiers and parameter names it does not understand.
func parseSignature(sig string) (Method, bool, error) {
	s := strings.TrimSuffix(strings.TrimSpace(sig), ";")
	for _, kind := range skippedKinds {
		if isKeyword(s, kind) {
			return Method{}, false, nil
		}
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "function "))

	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return Method{}, false, errors.New("expected name(...)")
	}
	name := strings.TrimSpace(s[:open])
	closing := matchParen(s, open)
	if closing < 0 {
		return Method{}, false, errors.New("unbalanced parentheses")
	}

	sel, err := abi.ParseSelector(name + stripNames(s[open:closing+1]))
	if err != nil {
		return Method{}, false, err
	}
	m := Method{Name: sel.Name, Inputs: fromSelectorArgs(sel.Inputs, false)}

	rest := strings.TrimSpace(s[closing+1:])
	modifiers := rest
	if idx := strings.Index(rest, "returns"); idx >= 0 {
		modifiers = rest[:idx]
		outs := strings.TrimSpace(rest[idx+len("returns"):])
		if !strings.HasPrefix(outs, "(") {
			return Method{}, false, fmt.Errorf("expected '(' after returns, got %q", outs)
		}
		end := matchParen(outs, 0)
		if end < 0 || strings.TrimSpace(outs[end+1:]) != "" {
			return Method{}, false, fmt.Errorf("malformed returns clause %q", outs)
		}
		ret, err := abi.ParseSelector("returns" + stripNames(outs))
		if err != nil {
			return Method{}, false, err
		}
		m.Outputs = fromSelectorArgs(ret.Inputs, false)
	}
	if m.Outputs == nil {
		m.Outputs = []Parameter{}
	}

	for _, word := range strings.Fields(modifiers) {
		if mut, ok := mutabilities[word]; ok {
			m.StateMutability = mut
		}
	}
	return m, true, nil
}

// fromSelectorArgs drops the synthetic top-level names the selector parser
// generates. Component names are kept since tuple packing needs them.
func fromSelectorArgs(args []abi.ArgumentMarshaling, named bool) []Parameter {
	params := make([]Parameter, len(args))
	for i, a := range args {
		p := Parameter{Type: a.Type, InternalType: a.InternalType}
		if named {
			p.Name = a.Name
		}
		if len(a.Components) > 0 {
			p.Components = fromSelectorArgs(a.Components, true)
		}
		params[i] = p
	}
	return params
}

// stripNames reduces a parenthesized parameter list to bare types:
// "(address to, uint256[] memory amounts)" -> "(address,uint256[])".
func stripNames(list string) string {
	list = strings.ReplaceAll(list, "tuple(", "(")
	var b strings.Builder
	skipping := false
	for i := 0; i < len(list); i++ {
		c := list[i]
		switch {
		case c == '(' || c == ')' || c == ',':
			skipping = false
			b.WriteByte(c)
		case skipping:
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if out := b.String(); len(out) > 0 {
				last := out[len(out)-1]
				if last != '(' && last != ',' {
					skipping = true
				}
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// matchParen returns the index of the parenthesis closing the one at open.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
