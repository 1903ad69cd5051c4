package values_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/playbook/internal/values"
)

func TestParseValue_Address(t *testing.T) {
	typ, err := values.ParseType("address")
	require.NoError(t, err)

	v, err := values.ParseValue(typ, "0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, values.KindAddress, v.Type.Kind)

	_, err = values.ParseValue(typ, "not-an-address")
	assert.Error(t, err)
}

func TestParseValue_Uint(t *testing.T) {
	typ, err := values.ParseType("uint256")
	require.NoError(t, err)

	v, err := values.ParseValue(typ, "123456789")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(123456789), v.Int)

	v, err = values.ParseValue(typ, "0x2a")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), v.Int)
}

func TestParseValue_UintOverflow(t *testing.T) {
	typ, err := values.ParseType("uint8")
	require.NoError(t, err)

	_, err = values.ParseValue(typ, "256")
	assert.Error(t, err)

	_, err = values.ParseValue(typ, "-1")
	assert.Error(t, err)
}

func TestParseValue_Int_Range(t *testing.T) {
	typ, err := values.ParseType("int8")
	require.NoError(t, err)

	_, err = values.ParseValue(typ, "127")
	assert.NoError(t, err)

	_, err = values.ParseValue(typ, "-128")
	assert.NoError(t, err)

	_, err = values.ParseValue(typ, "128")
	assert.Error(t, err)
}

func TestParseValue_Bytes(t *testing.T) {
	typ, err := values.ParseType("bytes32")
	require.NoError(t, err)

	v, err := values.ParseValue(typ, "0x"+"11"+"22"+stringRepeat("00", 30))
	require.NoError(t, err)
	require.Len(t, v.Bytes, 32)
	assert.Equal(t, byte(0x11), v.Bytes[0])
}

func TestParseValue_Array(t *testing.T) {
	typ, err := values.ParseType("uint256[]")
	require.NoError(t, err)

	v, err := values.ParseValue(typ, []interface{}{"1", "2", "3"})
	require.NoError(t, err)
	require.Len(t, v.Elements, 3)
	assert.Equal(t, big.NewInt(2), v.Elements[1].Int)
}

func TestParseValue_FixedArray_WrongLength(t *testing.T) {
	typ, err := values.ParseType("uint256[3]")
	require.NoError(t, err)

	_, err = values.ParseValue(typ, []interface{}{"1", "2"})
	assert.Error(t, err)
}

func TestEncode_Uint256(t *testing.T) {
	v, err := values.NewUint(big.NewInt(1), 256)
	require.NoError(t, err)

	encoded, err := v.Encode()
	require.NoError(t, err)
	require.Len(t, encoded, 32)
	assert.Equal(t, byte(1), encoded[31])
	for _, b := range encoded[:31] {
		assert.Equal(t, byte(0), b)
	}
}

func TestEncode_Bool(t *testing.T) {
	v := values.NewBool(true)
	encoded, err := v.Encode()
	require.NoError(t, err)
	require.Len(t, encoded, 32)
	assert.Equal(t, byte(1), encoded[31])
}

func TestEncode_String(t *testing.T) {
	v := values.NewString("hello")
	encoded, err := v.Encode()
	require.NoError(t, err)
	// dynamic types encode as offset(32) + length(32) + padded data
	assert.True(t, len(encoded) >= 64)
}

func TestEncode_Uint8_UsesNativeWidth(t *testing.T) {
	v, err := values.NewUint(big.NewInt(200), 8)
	require.NoError(t, err)

	encoded, err := v.Encode()
	require.NoError(t, err)
	require.Len(t, encoded, 32)
	assert.Equal(t, byte(200), encoded[31])
}

func TestEncode_Tuple(t *testing.T) {
	typ, err := values.ParseType("(uint256,address)")
	require.NoError(t, err)

	v, err := values.ParseValue(typ, []interface{}{"42", "0x0000000000000000000000000000000000000001"})
	require.NoError(t, err)

	encoded, err := v.Encode()
	require.NoError(t, err)
	require.Len(t, encoded, 64)
	assert.Equal(t, byte(42), encoded[31])
	assert.Equal(t, byte(1), encoded[63])
}

func TestEncode_ArrayOfTuples(t *testing.T) {
	typ, err := values.ParseType("(uint256,bool)[]")
	require.NoError(t, err)

	v, err := values.ParseValue(typ, []interface{}{
		[]interface{}{"1", "true"},
		[]interface{}{"2", "false"},
	})
	require.NoError(t, err)

	encoded, err := v.Encode()
	require.NoError(t, err)
	assert.True(t, len(encoded) > 0)
}

func TestEncode_FixedArray(t *testing.T) {
	typ, err := values.ParseType("uint256[2]")
	require.NoError(t, err)

	v, err := values.ParseValue(typ, []interface{}{"1", "2"})
	require.NoError(t, err)

	encoded, err := v.Encode()
	require.NoError(t, err)
	require.Len(t, encoded, 64)
	assert.Equal(t, byte(1), encoded[31])
	assert.Equal(t, byte(2), encoded[63])
}

func stringRepeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
