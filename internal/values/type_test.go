package values_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/playbook/internal/values"
)

func TestParseType_Primitives(t *testing.T) {
	cases := map[string]values.Kind{
		"address": values.KindAddress,
		"bool":    values.KindBool,
		"string":  values.KindString,
		"bytes":   values.KindBytes,
		"uint":    values.KindUint,
		"int":     values.KindInt,
	}
	for decl, wantKind := range cases {
		typ, err := values.ParseType(decl)
		require.NoErrorf(t, err, "parsing %q", decl)
		assert.Equal(t, wantKind, typ.Kind)
	}
}

func TestParseType_SizedPrimitives(t *testing.T) {
	typ, err := values.ParseType("uint256")
	require.NoError(t, err)
	assert.Equal(t, values.KindUint, typ.Kind)
	assert.Equal(t, 256, typ.Bits)

	typ, err = values.ParseType("int8")
	require.NoError(t, err)
	assert.Equal(t, values.KindInt, typ.Kind)
	assert.Equal(t, 8, typ.Bits)

	typ, err = values.ParseType("bytes32")
	require.NoError(t, err)
	assert.Equal(t, values.KindFixedBytes, typ.Kind)
	assert.Equal(t, 32, typ.Size)
}

func TestParseType_InvalidWidth(t *testing.T) {
	for _, decl := range []string{"uint7", "uint257", "int0", "bytes33", "bytes0"} {
		_, err := values.ParseType(decl)
		assert.Errorf(t, err, "expected %q to be invalid", decl)
	}
}

func TestParseType_Array(t *testing.T) {
	typ, err := values.ParseType("address[]")
	require.NoError(t, err)
	assert.Equal(t, values.KindArray, typ.Kind)
	assert.Equal(t, values.KindAddress, typ.Elem.Kind)

	typ, err = values.ParseType("uint256[4]")
	require.NoError(t, err)
	assert.Equal(t, values.KindFixedArray, typ.Kind)
	assert.Equal(t, 4, typ.Size)
	assert.Equal(t, values.KindUint, typ.Elem.Kind)
}

func TestParseType_Tuple(t *testing.T) {
	typ, err := values.ParseType("(uint256,address[])")
	require.NoError(t, err)
	assert.Equal(t, values.KindTuple, typ.Kind)
	require.Len(t, typ.Fields, 2)
	assert.Equal(t, values.KindUint, typ.Fields[0].Kind)
	assert.Equal(t, values.KindArray, typ.Fields[1].Kind)
}

func TestParseType_NestedTuple(t *testing.T) {
	typ, err := values.ParseType("(uint256,(bool,string))")
	require.NoError(t, err)
	require.Len(t, typ.Fields, 2)
	assert.Equal(t, values.KindTuple, typ.Fields[1].Kind)
	assert.Equal(t, values.KindBool, typ.Fields[1].Fields[0].Kind)
}

func TestType_StringRoundTrip(t *testing.T) {
	for _, decl := range []string{
		"address", "bool", "string", "bytes", "bytes32",
		"uint256", "int8", "address[]", "uint256[4]", "(uint256,address[])",
	} {
		typ, err := values.ParseType(decl)
		require.NoError(t, err)
		assert.Equal(t, decl, typ.String())
	}
}

func TestParseType_Invalid(t *testing.T) {
	for _, decl := range []string{"", "foo", "uintabc", "address[", "(uint256"} {
		_, err := values.ParseType(decl)
		assert.Errorf(t, err, "expected %q to be invalid", decl)
	}
}
