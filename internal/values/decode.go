package values

import (
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Decode ABI-decodes data against types, in order, the reverse of Encode:
// it mirrors the original executor's `ethers::abi::decode(return_data_types,
// &bytes_result)` call used when a CallContract step declares return-type
// metadata.
func Decode(types []Type, data []byte) ([]Value, error) {
	args := make(abi.Arguments, len(types))
	for i, t := range types {
		at, err := t.abiType()
		if err != nil {
			return nil, errors.Wrapf(err, "building abi type for %s", t.String())
		}
		args[i] = abi.Argument{Type: at}
	}

	unpacked, err := args.Unpack(data)
	if err != nil {
		return nil, errors.Wrap(err, "abi unpack")
	}
	if len(unpacked) != len(types) {
		return nil, errors.Errorf("abi unpack returned %d values, want %d", len(unpacked), len(types))
	}

	out := make([]Value, len(types))
	for i, t := range types {
		v, err := FromNative(t, unpacked[i])
		if err != nil {
			return nil, errors.Wrapf(err, "return value %d", i)
		}
		out[i] = v
	}
	return out, nil
}

// FromNative converts a value go-ethereum's abi.Unpack produced back into
// a tagged Value, the inverse of Value.native.
func FromNative(t Type, native interface{}) (Value, error) {
	switch t.Kind {
	case KindAddress:
		addr, ok := native.(common.Address)
		if !ok {
			return Value{}, errors.Errorf("expected common.Address, got %T", native)
		}
		return NewAddress(addr), nil

	case KindBool:
		b, ok := native.(bool)
		if !ok {
			return Value{}, errors.Errorf("expected bool, got %T", native)
		}
		return NewBool(b), nil

	case KindString:
		s, ok := native.(string)
		if !ok {
			return Value{}, errors.Errorf("expected string, got %T", native)
		}
		return NewString(s), nil

	case KindBytes:
		b, ok := native.([]byte)
		if !ok {
			return Value{}, errors.Errorf("expected []byte, got %T", native)
		}
		return NewBytes(b), nil

	case KindFixedBytes:
		rv := reflect.ValueOf(native)
		if rv.Kind() != reflect.Array {
			return Value{}, errors.Errorf("expected fixed byte array, got %T", native)
		}
		buf := make([]byte, t.Size)
		reflect.Copy(reflect.ValueOf(buf), rv)
		return NewFixedBytes(buf, t.Size)

	case KindUint, KindInt:
		n, err := bigFromNative(native)
		if err != nil {
			return Value{}, err
		}
		if t.Kind == KindUint {
			return NewUint(n, t.Bits)
		}
		return NewInt(n, t.Bits)

	case KindArray, KindFixedArray:
		rv := reflect.ValueOf(native)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return Value{}, errors.Errorf("expected slice or array, got %T", native)
		}
		elems := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := FromNative(*t.Elem, rv.Index(i).Interface())
			if err != nil {
				return Value{}, errors.Wrapf(err, "element %d", i)
			}
			elems[i] = ev
		}
		if t.Kind == KindArray {
			return NewArray(*t.Elem, elems)
		}
		return NewFixedArray(*t.Elem, t.Size, elems)

	case KindTuple:
		rv := reflect.ValueOf(native)
		if rv.Kind() != reflect.Struct {
			return Value{}, errors.Errorf("expected struct, got %T", native)
		}
		fields := make([]Value, len(t.Fields))
		for i, ft := range t.Fields {
			fv, err := FromNative(ft, rv.Field(i).Interface())
			if err != nil {
				return Value{}, errors.Wrapf(err, "field %d", i)
			}
			fields[i] = fv
		}
		return NewTuple(fields), nil

	default:
		return Value{}, errors.Errorf("unsupported kind %q", t.Kind)
	}
}

// bigFromNative widens any of the native sized integer types go-ethereum's
// abi package may produce for a uintN/intN argument back into a *big.Int.
func bigFromNative(native interface{}) (*big.Int, error) {
	switch n := native.(type) {
	case *big.Int:
		return n, nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	default:
		return nil, errors.Errorf("unsupported native integer type %T", native)
	}
}
