package rpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeInverse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"ascii", []byte("hello world")},
		{"embedded_nulls", []byte{'a', 0, 0, 'b', 0}},
		{"high_bit", []byte{0xff, 0xfe, 0x80, 0x01}},
		{"all_byte_values", allBytes()},
		{"path_payload", []byte("C4: Kick\x00/samples/kick.aif\x00\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Decode(Encode(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)
		})
	}
}

func allBytes() []byte {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestDecodeEncodeInverse(t *testing.T) {
	t.Parallel()

	// Padding-normalized tokens must survive a decode/encode round trip
	// unchanged, since the patcher splices re-encoded tokens back over the
	// originals.
	tokens := []string{
		"aGVsbG8gd29ybGQ=",
		"AAAA",
		"/w==",
		Encode(allBytes()),
	}
	for _, tok := range tokens {
		b, err := Decode(tok)
		require.NoError(t, err, "token %q", tok)
		assert.Equal(t, tok, Encode(b), "token %q", tok)
	}
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{"bad_length", "abcde"},
		{"invalid_char", "ab!d"},
		{"padding_inside", "ab=d"},
		{"space_inside", "ab cd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(tt.token)
			assert.Error(t, err)
		})
	}
}
