package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packstream/msgpack/value"
)

func encodeOne(t *testing.T, v any) []byte {
	t.Helper()
	enc, err := NewEncoder()
	require.NoError(t, err)
	require.NoError(t, enc.Write(v))
	out, err := enc.Finalize()
	require.NoError(t, err)
	return out
}

func TestEncoderIntWidthSelection(t *testing.T) {
	cases := []struct {
		name string
		v    int64
		want []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"positive fixint max", 127, []byte{0x7f}},
		{"negative fixint min", -1, []byte{0xff}},
		{"negative fixint floor", -32, []byte{0xe0}},
		{"int8", -33, []byte{0xd0, 0xdf}},
		{"int16", -129, []byte{0xd1, 0xff, 0x7f}},
		{"uint8", 128, []byte{0xcc, 0x80}},
		{"uint16", 256, []byte{0xcd, 0x01, 0x00}},
		{"uint32", 70000, []byte{0xce, 0x00, 0x01, 0x11, 0x70}},
		{"int32 negative", -70000, []byte{0xd2, 0xff, 0xfe, 0xee, 0x90}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, encodeOne(t, tc.v))
		})
	}
}

func TestEncoderNilBoolFloat(t *testing.T) {
	assert.Equal(t, []byte{0xc0}, encodeOne(t, nil))
	assert.Equal(t, []byte{0xc2}, encodeOne(t, false))
	assert.Equal(t, []byte{0xc3}, encodeOne(t, true))

	out := encodeOne(t, 1.5)
	require.Len(t, out, 9)
	assert.Equal(t, byte(0xcb), out[0])
}

func TestEncoderFixStr(t *testing.T) {
	out := encodeOne(t, "hi")
	assert.Equal(t, []byte{0xa2, 'h', 'i'}, out)
}

func TestEncoderStr8PromotesToStr16InCompatibilityMode(t *testing.T) {
	s := make([]byte, 40)
	for i := range s {
		s[i] = 'a'
	}

	enc, err := NewEncoder()
	require.NoError(t, err)
	require.NoError(t, enc.Write(string(s)))
	out, err := enc.Finalize()
	require.NoError(t, err)
	assert.Equal(t, byte(0xd9), out[0]) // str8

	enc2, err := NewEncoder(WithCompatibilityMode(true))
	require.NoError(t, err)
	require.NoError(t, enc2.Write(string(s)))
	out2, err := enc2.Finalize()
	require.NoError(t, err)
	assert.Equal(t, byte(0xda), out2[0]) // str16, str8 skipped
}

func TestEncoderBinaryUsesStringTagsInCompatibilityMode(t *testing.T) {
	enc, err := NewEncoder(WithCompatibilityMode(true))
	require.NoError(t, err)
	require.NoError(t, enc.Write([]byte("ab")))
	out, err := enc.Finalize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa2, 'a', 'b'}, out)
}

func TestEncoderArrayAndMap(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	assert.Equal(t, []byte{0x93, 0x01, 0x02, 0x03}, encodeOne(t, arr))

	m := value.Map([]value.KeyValue{{Key: value.Int(1), Val: value.Int(1)}})
	assert.Equal(t, []byte{0x81, 0x01, 0x01}, encodeOne(t, m))
}

func TestEncoderExtensionFixWidths(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	require.NoError(t, enc.WriteExtension(7, []byte{1, 2}))
	out, err := enc.Finalize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xd5, 0x07, 0x01, 0x02}, out)
}

func TestEncoderExtensionVariableWidth(t *testing.T) {
	payload := make([]byte, 3)
	enc, err := NewEncoder()
	require.NoError(t, err)
	require.NoError(t, enc.WriteExtension(1, payload))
	out, err := enc.Finalize()
	require.NoError(t, err)
	assert.Equal(t, byte(0xc7), out[0]) // ext8
	assert.Equal(t, byte(3), out[1])
	assert.Equal(t, byte(1), out[2])
}

func TestEncoderRegisteredTypeTakesPriority(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	type tag struct{ n int }
	require.NoError(t, enc.RegisterType(3, tag{}, 0, func(v any) ([]byte, error) {
		return []byte{byte(v.(tag).n)}, nil
	}, nil))

	require.NoError(t, enc.Write(tag{n: 9}))
	out, err := enc.Finalize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xd4, 0x03, 0x09}, out)
}

func TestEncoderInvalidUTF8Rejected(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	err = enc.Write(string([]byte{0xff, 0xfe}))
	assert.Error(t, err)
}

func TestEncoderBorrowedRejectsRegisterType(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	enc.SetBorrowed(true)
	err = enc.RegisterType(1, struct{}{}, 0, func(v any) ([]byte, error) { return nil, nil }, nil)
	assert.Error(t, err)
}
