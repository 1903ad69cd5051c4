package values

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ParseValue converts a resolved scalar or structural literal (already
// template- and env-interpolated by the loader) into a Value of the given
// type. raw is typically a string for scalar kinds, or a []interface{}
// for array/tuple kinds, as produced by YAML unmarshalling into
// interface{}.
func ParseValue(t Type, raw interface{}) (Value, error) {
	switch t.Kind {
	case KindAddress:
		s, ok := raw.(string)
		if !ok {
			return Value{}, errors.Errorf("address value must be a string, got %T", raw)
		}
		if !common.IsHexAddress(s) {
			return Value{}, errors.Errorf("%q is not a valid address", s)
		}
		return NewAddress(common.HexToAddress(s)), nil

	case KindBool:
		switch v := raw.(type) {
		case bool:
			return NewBool(v), nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return Value{}, errors.Wrapf(err, "invalid bool value %q", v)
			}
			return NewBool(b), nil
		default:
			return Value{}, errors.Errorf("bool value must be a bool or string, got %T", raw)
		}

	case KindString:
		s, ok := raw.(string)
		if !ok {
			return Value{}, errors.Errorf("string value must be a string, got %T", raw)
		}
		return NewString(s), nil

	case KindBytes:
		b, err := parseBytesLiteral(raw)
		if err != nil {
			return Value{}, err
		}
		return NewBytes(b), nil

	case KindFixedBytes:
		b, err := parseBytesLiteral(raw)
		if err != nil {
			return Value{}, err
		}
		return NewFixedBytes(b, t.Size)

	case KindUint:
		n, err := parseBigInt(raw)
		if err != nil {
			return Value{}, err
		}
		return NewUint(n, t.Bits)

	case KindInt:
		n, err := parseBigInt(raw)
		if err != nil {
			return Value{}, err
		}
		return NewInt(n, t.Bits)

	case KindArray:
		items, err := asSlice(raw)
		if err != nil {
			return Value{}, err
		}
		elems := make([]Value, len(items))
		for i, item := range items {
			v, err := ParseValue(*t.Elem, item)
			if err != nil {
				return Value{}, errors.Wrapf(err, "array element %d", i)
			}
			elems[i] = v
		}
		return NewArray(*t.Elem, elems)

	case KindFixedArray:
		items, err := asSlice(raw)
		if err != nil {
			return Value{}, err
		}
		elems := make([]Value, len(items))
		for i, item := range items {
			v, err := ParseValue(*t.Elem, item)
			if err != nil {
				return Value{}, errors.Wrapf(err, "array element %d", i)
			}
			elems[i] = v
		}
		return NewFixedArray(*t.Elem, t.Size, elems)

	case KindTuple:
		items, err := asSlice(raw)
		if err != nil {
			return Value{}, err
		}
		if len(items) != len(t.Fields) {
			return Value{}, errors.Errorf("tuple has %d elements, want %d", len(items), len(t.Fields))
		}
		fields := make([]Value, len(items))
		for i, item := range items {
			v, err := ParseValue(t.Fields[i], item)
			if err != nil {
				return Value{}, errors.Wrapf(err, "tuple field %d", i)
			}
			fields[i] = v
		}
		return NewTuple(fields), nil

	default:
		return Value{}, errors.Errorf("unsupported type kind %q", t.Kind)
	}
}

// parseBytesLiteral accepts a 0x-prefixed hex string.
func parseBytesLiteral(raw interface{}) ([]byte, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, errors.Errorf("bytes value must be a hex string, got %T", raw)
	}
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hexDecode(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid hex bytes literal %q", raw)
	}
	return b, nil
}

func hexDecode(s string) ([]byte, error) {
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexDigit(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexDigit(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, errors.Errorf("invalid hex digit %q", c)
	}
}

// parseBigInt accepts an integer, a decimal string, or a 0x-prefixed hex
// string.
func parseBigInt(raw interface{}) (*big.Int, error) {
	switch v := raw.(type) {
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case string:
		base := 10
		s := v
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			base = 16
			s = s[2:]
		}
		n, ok := new(big.Int).SetString(s, base)
		if !ok {
			return nil, errors.Errorf("invalid integer literal %q", v)
		}
		return n, nil
	default:
		return nil, errors.Errorf("integer value must be a number or string, got %T", raw)
	}
}

// asSlice normalizes a YAML-decoded interface{} into a []interface{}.
func asSlice(raw interface{}) ([]interface{}, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, errors.Errorf("expected a list value, got %T", raw)
	}
	return items, nil
}
