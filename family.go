package dappbind

import "strings"

// TypeFamily is the coarse category of an ABI type tag. Coercion in both
// directions is dispatched on the family alone; sizes and array suffixes are
// kept on the parameter but never consulted for dispatch.
type TypeFamily uint8

const (
	// FamilyOther covers tags with no dedicated coercion (function, fixed, ufixed).
	FamilyOther TypeFamily = iota

	// FamilyAddress is a 20-byte account identifier.
	FamilyAddress

	// FamilyUint is an unsigned integer of any bit width.
	FamilyUint

	// FamilyInt is a signed integer of any bit width.
	FamilyInt

	// FamilyBytes is a fixed (bytesN) or dynamic byte sequence.
	FamilyBytes

	// FamilyBool is a boolean.
	FamilyBool

	// FamilyString is a UTF-8 string.
	FamilyString

	// FamilyTuple is a struct of components.
	FamilyTuple
)

var familyNames = map[string]TypeFamily{
	"address": FamilyAddress,
	"uint":    FamilyUint,
	"int":     FamilyInt,
	"bytes":   FamilyBytes,
	"byte":    FamilyBytes,
	"bool":    FamilyBool,
	"string":  FamilyString,
	"tuple":   FamilyTuple,
}

// ParseFamily extracts the family from a type tag by taking its leading
// alphabetic run, e.g. "uint256[]" -> FamilyUint.
func ParseFamily(tag string) TypeFamily {
	tag = strings.TrimSpace(tag)
	if strings.HasPrefix(tag, "(") {
		return FamilyTuple
	}
	end := 0
	for end < len(tag) && isLetter(tag[end]) {
		end++
	}
	if f, ok := familyNames[strings.ToLower(tag[:end])]; ok {
		return f
	}
	return FamilyOther
}

// String returns the family name as it appears at the start of a type tag.
func (f TypeFamily) String() string {
	switch f {
	case FamilyAddress:
		return "address"
	case FamilyUint:
		return "uint"
	case FamilyInt:
		return "int"
	case FamilyBytes:
		return "bytes"
	case FamilyBool:
		return "bool"
	case FamilyString:
		return "string"
	case FamilyTuple:
		return "tuple"
	default:
		return "other"
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
