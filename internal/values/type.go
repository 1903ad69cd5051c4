// Package values implements the Value & Type Model from spec §4.6: a
// tagged-variant TypedValue representation, a parser for the type
// language used in step argument declarations, and a canonical ABI
// encoding operation backed by go-ethereum's accounts/abi package.
package values

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
)

// Kind tags the variant of a Type.
type Kind string

const (
	KindAddress    Kind = "address"
	KindBool       Kind = "bool"
	KindString     Kind = "string"
	KindBytes      Kind = "bytes"
	KindFixedBytes Kind = "fixedBytes"
	KindUint       Kind = "uint"
	KindInt        Kind = "int"
	KindArray      Kind = "array"
	KindFixedArray Kind = "fixedArray"
	KindTuple      Kind = "tuple"
)

// Type is a parsed type declaration, e.g. "uint256", "address[]", "bytes32",
// or "(uint256,address[])".
type Type struct {
	Kind   Kind
	Bits   int    // for Uint/Int
	Size   int    // for FixedBytes/FixedArray
	Elem   *Type  // for Array/FixedArray
	Fields []Type // for Tuple
}

// ParseType parses the type language described in spec §4.6.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Type{}, errors.New("empty type declaration")
	}

	if idx := strings.LastIndex(s, "["); idx >= 0 && strings.HasSuffix(s, "]") {
		inner := s[:idx]
		sizeStr := s[idx+1 : len(s)-1]
		elemType, err := ParseType(inner)
		if err != nil {
			return Type{}, err
		}
		if sizeStr == "" {
			return Type{Kind: KindArray, Elem: &elemType}, nil
		}
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size <= 0 {
			return Type{}, errors.Errorf("invalid fixed array size in %q", s)
		}
		return Type{Kind: KindFixedArray, Elem: &elemType, Size: size}, nil
	}

	if strings.HasPrefix(s, "(") {
		return parseTuple(s)
	}

	switch {
	case s == "address":
		return Type{Kind: KindAddress}, nil
	case s == "bool":
		return Type{Kind: KindBool}, nil
	case s == "string":
		return Type{Kind: KindString}, nil
	case s == "bytes":
		return Type{Kind: KindBytes}, nil
	case strings.HasPrefix(s, "bytes"):
		n, err := strconv.Atoi(s[len("bytes"):])
		if err != nil {
			return Type{}, errors.Errorf("invalid bytesN type %q", s)
		}
		if n < 1 || n > 32 {
			return Type{}, errors.Errorf("bytesN size out of range (1-32): %q", s)
		}
		return Type{Kind: KindFixedBytes, Size: n}, nil
	case s == "uint":
		return Type{Kind: KindUint, Bits: 256}, nil
	case strings.HasPrefix(s, "uint"):
		bits, err := parseIntWidth(s[len("uint"):])
		if err != nil {
			return Type{}, errors.Wrapf(err, "invalid uintN type %q", s)
		}
		return Type{Kind: KindUint, Bits: bits}, nil
	case s == "int":
		return Type{Kind: KindInt, Bits: 256}, nil
	case strings.HasPrefix(s, "int"):
		bits, err := parseIntWidth(s[len("int"):])
		if err != nil {
			return Type{}, errors.Wrapf(err, "invalid intN type %q", s)
		}
		return Type{Kind: KindInt, Bits: bits}, nil
	default:
		return Type{}, errors.Errorf("unrecognized type %q", s)
	}
}

// parseIntWidth parses the N of "uintN"/"intN" and validates it is a
// multiple of 8 in the range [8, 256], per spec §4.6.
func parseIntWidth(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("width %q is not a number", s)
	}
	if n < 8 || n > 256 || n%8 != 0 {
		return 0, errors.Errorf("width %d is not a multiple of 8 in range [8,256]", n)
	}
	return n, nil
}

// parseTuple parses a parenthesised, comma-separated list of types,
// respecting nested parentheses and brackets.
func parseTuple(s string) (Type, error) {
	if !strings.HasSuffix(s, ")") {
		return Type{}, errors.Errorf("unterminated tuple type %q", s)
	}
	inner := s[1 : len(s)-1]
	parts, err := splitTopLevel(inner)
	if err != nil {
		return Type{}, err
	}
	fields := make([]Type, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fieldType, err := ParseType(part)
		if err != nil {
			return Type{}, err
		}
		fields = append(fields, fieldType)
	}
	return Type{Kind: KindTuple, Fields: fields}, nil
}

// splitTopLevel splits s on commas that are not nested inside parentheses
// or brackets.
func splitTopLevel(s string) ([]string, error) {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth < 0 {
				return nil, errors.Errorf("unbalanced brackets in %q", s)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.Errorf("unbalanced brackets in %q", s)
	}
	parts = append(parts, s[start:])
	return parts, nil
}

// String renders the type back to its declaration form, used for error
// messages and the ABI type string go-ethereum's abi package expects.
func (t Type) String() string {
	switch t.Kind {
	case KindAddress, KindBool, KindString, KindBytes:
		return string(t.Kind)
	case KindFixedBytes:
		return "bytes" + strconv.Itoa(t.Size)
	case KindUint:
		return "uint" + strconv.Itoa(t.Bits)
	case KindInt:
		return "int" + strconv.Itoa(t.Bits)
	case KindArray:
		return t.Elem.String() + "[]"
	case KindFixedArray:
		return t.Elem.String() + "[" + strconv.Itoa(t.Size) + "]"
	case KindTuple:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	default:
		return "unknown"
	}
}

// components builds the abi.ArgumentMarshaling tree go-ethereum's
// abi.NewType needs to synthesize a backing Go struct type for a Tuple,
// recursing into Array/FixedArray element types since a "(T1,T2)[]"
// declaration needs the same component tree as "(T1,T2)" itself. Tuple
// fields have no name in the type language, so they are numbered
// arg0, arg1, ... the way an unnamed Solidity tuple component is
// rendered.
func (t Type) components() ([]abi.ArgumentMarshaling, error) {
	switch t.Kind {
	case KindTuple:
		comps := make([]abi.ArgumentMarshaling, len(t.Fields))
		for i, f := range t.Fields {
			sub, err := f.components()
			if err != nil {
				return nil, err
			}
			comps[i] = abi.ArgumentMarshaling{
				Name:       fmt.Sprintf("arg%d", i),
				Type:       f.abiString(),
				Components: sub,
			}
		}
		return comps, nil
	case KindArray, KindFixedArray:
		return t.Elem.components()
	default:
		return nil, nil
	}
}

// abiType converts a parsed Type into the go-ethereum abi.Type used to
// drive encoding.
func (t Type) abiType() (abi.Type, error) {
	comps, err := t.components()
	if err != nil {
		return abi.Type{}, err
	}
	return abi.NewType(t.abiString(), "", comps)
}

// abiString renders t in abi.NewType's spelling, where a tuple is "tuple"
// and its fields come from components().
func (t Type) abiString() string {
	switch t.Kind {
	case KindTuple:
		return "tuple"
	case KindArray:
		return t.Elem.abiString() + "[]"
	case KindFixedArray:
		return t.Elem.abiString() + "[" + strconv.Itoa(t.Size) + "]"
	default:
		return t.String()
	}
}
