package values

import (
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Value is a tagged-variant runtime value, produced by resolving a step
// argument against its declared Type. It mirrors the TypedValue variants
// from spec §4.6: Address, Bool, String, Bytes, FixedBytes(N), Uint(N),
// Int(N), Array, FixedArray, and Tuple.
type Value struct {
	Type     Type
	Address  common.Address
	Bool     bool
	Str      string
	Bytes    []byte
	Int      *big.Int // used for both Uint and Int kinds
	Elements []Value  // Array, FixedArray, Tuple
}

// NewAddress builds an Address value.
func NewAddress(addr common.Address) Value {
	return Value{Type: Type{Kind: KindAddress}, Address: addr}
}

// NewBool builds a Bool value.
func NewBool(b bool) Value {
	return Value{Type: Type{Kind: KindBool}, Bool: b}
}

// NewString builds a String value.
func NewString(s string) Value {
	return Value{Type: Type{Kind: KindString}, Str: s}
}

// NewBytes builds a dynamic Bytes value.
func NewBytes(b []byte) Value {
	return Value{Type: Type{Kind: KindBytes}, Bytes: b}
}

// NewFixedBytes builds a FixedBytes(N) value.
func NewFixedBytes(b []byte, size int) (Value, error) {
	if len(b) != size {
		return Value{}, errors.Errorf("fixed bytes value has length %d, want %d", len(b), size)
	}
	return Value{Type: Type{Kind: KindFixedBytes, Size: size}, Bytes: b}, nil
}

// NewUint builds a Uint(N) value.
func NewUint(n *big.Int, bits int) (Value, error) {
	if n.Sign() < 0 {
		return Value{}, errors.Errorf("uint%d value %s is negative", bits, n.String())
	}
	if n.BitLen() > bits {
		return Value{}, errors.Errorf("uint%d value %s overflows %d bits", bits, n.String(), bits)
	}
	return Value{Type: Type{Kind: KindUint, Bits: bits}, Int: new(big.Int).Set(n)}, nil
}

// NewInt builds an Int(N) value.
func NewInt(n *big.Int, bits int) (Value, error) {
	max := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	min := new(big.Int).Neg(max)
	if n.Cmp(min) < 0 || n.Cmp(new(big.Int).Sub(max, big.NewInt(1))) > 0 {
		return Value{}, errors.Errorf("int%d value %s out of range", bits, n.String())
	}
	return Value{Type: Type{Kind: KindInt, Bits: bits}, Int: new(big.Int).Set(n)}, nil
}

// NewArray builds a dynamically-sized Array value. All elements must have
// the same type.
func NewArray(elemType Type, elements []Value) (Value, error) {
	for i, e := range elements {
		if e.Type.String() != elemType.String() {
			return Value{}, errors.Errorf("array element %d has type %s, want %s", i, e.Type.String(), elemType.String())
		}
	}
	return Value{Type: Type{Kind: KindArray, Elem: &elemType}, Elements: elements}, nil
}

// NewFixedArray builds a FixedArray(N) value.
func NewFixedArray(elemType Type, size int, elements []Value) (Value, error) {
	if len(elements) != size {
		return Value{}, errors.Errorf("fixed array has %d elements, want %d", len(elements), size)
	}
	for i, e := range elements {
		if e.Type.String() != elemType.String() {
			return Value{}, errors.Errorf("array element %d has type %s, want %s", i, e.Type.String(), elemType.String())
		}
	}
	return Value{Type: Type{Kind: KindFixedArray, Elem: &elemType, Size: size}, Elements: elements}, nil
}

// NewTuple builds a Tuple value from its field values.
func NewTuple(fields []Value) Value {
	fieldTypes := make([]Type, len(fields))
	for i, f := range fields {
		fieldTypes[i] = f.Type
	}
	return Value{Type: Type{Kind: KindTuple, Fields: fieldTypes}, Elements: fields}
}

// Encode produces the canonical Ethereum ABI encoding of v, as described
// in spec §4.6's "encode()" operation. It is implemented on top of
// go-ethereum's accounts/abi package by building a single-argument ABI
// Arguments list for v's type and packing v's native Go representation
// into it.
func (v Value) Encode() ([]byte, error) {
	abiType, err := v.Type.abiType()
	if err != nil {
		return nil, errors.Wrapf(err, "building abi type for %s", v.Type.String())
	}
	native, err := v.native(abiType)
	if err != nil {
		return nil, errors.Wrapf(err, "converting value of type %s to native representation", v.Type.String())
	}
	args := abi.Arguments{{Type: abiType}}
	return args.Pack(native)
}

// native converts v into the Go representation go-ethereum's abi.Pack
// expects for v's Kind. It is driven by abiType's GetType(), the exact
// reflect.Type abi.Type.pack's typeCheck demands, rather than a
// hand-rolled per-Kind Go type, since that's the only way to get
// Tuple's generated struct type and Array/FixedArray's element type
// right without duplicating go-ethereum's own type synthesis.
func (v Value) native(abiType abi.Type) (interface{}, error) {
	switch v.Type.Kind {
	case KindAddress:
		return v.Address, nil
	case KindBool:
		return v.Bool, nil
	case KindString:
		return v.Str, nil
	case KindBytes:
		return v.Bytes, nil
	case KindFixedBytes:
		return fixedBytesNative(v.Bytes, v.Type.Size)
	case KindUint, KindInt:
		return intNative(v.Int, abiType.GetType())
	case KindArray, KindFixedArray:
		return v.arrayNative(abiType)
	case KindTuple:
		return v.tupleNative(abiType)
	default:
		return nil, errors.Errorf("unsupported kind %q", v.Type.Kind)
	}
}

// fixedBytesNative packs b into a reflect.Array of [size]byte, the Go
// representation go-ethereum's abi package expects for a bytesN argument.
func fixedBytesNative(b []byte, size int) (interface{}, error) {
	arrType := reflect.ArrayOf(size, reflect.TypeOf(byte(0)))
	arrVal := reflect.New(arrType).Elem()
	reflect.Copy(arrVal, reflect.ValueOf(b))
	return arrVal.Interface(), nil
}

// intNative converts n into the representation go-ethereum's abi package
// expects for uintN/intN declarations. Only the 8, 16, 32 and 64-bit
// widths use native sized Go integers; every other width (including the
// default 256) uses *big.Int.
func intNative(n *big.Int, goType reflect.Type) (interface{}, error) {
	switch goType.Kind() {
	case reflect.Uint8:
		return uint8(n.Uint64()), nil
	case reflect.Uint16:
		return uint16(n.Uint64()), nil
	case reflect.Uint32:
		return uint32(n.Uint64()), nil
	case reflect.Uint64:
		return n.Uint64(), nil
	case reflect.Int8:
		return int8(n.Int64()), nil
	case reflect.Int16:
		return int16(n.Int64()), nil
	case reflect.Int32:
		return int32(n.Int64()), nil
	case reflect.Int64:
		return n.Int64(), nil
	default:
		return new(big.Int).Set(n), nil
	}
}

// arrayNative builds the slice (Array) or reflect.Array (FixedArray)
// go-ethereum's abi package expects, recursing through native() for each
// element so arrays of tuples and nested arrays are handled the same way
// as arrays of primitives.
func (v Value) arrayNative(abiType abi.Type) (interface{}, error) {
	elemGoType := abiType.Elem.GetType()
	var container reflect.Value
	if v.Type.Kind == KindFixedArray {
		container = reflect.New(reflect.ArrayOf(v.Type.Size, elemGoType)).Elem()
	} else {
		container = reflect.MakeSlice(reflect.SliceOf(elemGoType), len(v.Elements), len(v.Elements))
	}
	for i, e := range v.Elements {
		elemNative, err := e.native(*abiType.Elem)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		container.Index(i).Set(reflect.ValueOf(elemNative))
	}
	return container.Interface(), nil
}

// tupleNative builds the struct go-ethereum's abi package generates for a
// Tuple type (via reflect.StructOf, in Type.abiType's components()),
// populating each field from the corresponding element's native value.
func (v Value) tupleNative(abiType abi.Type) (interface{}, error) {
	structVal := reflect.New(abiType.TupleType).Elem()
	for i, e := range v.Elements {
		fieldNative, err := e.native(*abiType.TupleElems[i])
		if err != nil {
			return nil, errors.Wrapf(err, "field %d", i)
		}
		structVal.Field(i).Set(reflect.ValueOf(fieldNative))
	}
	return structVal.Interface(), nil
}

// TypeLanguage documents the accepted primitive keywords, exported for
// use by validation error messages in the loader.
var TypeLanguage = strings.Join([]string{
	"address", "bool", "string", "bytes", "bytesN (1<=N<=32)",
	"uint / uintN (N multiple of 8, 8<=N<=256)",
	"int / intN (N multiple of 8, 8<=N<=256)",
	"T[] (dynamic array)", "T[N] (fixed array)", "(T1,T2,...) (tuple)",
}, ", ")
