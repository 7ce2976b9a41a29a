package cdr

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in   string
		want Encoding
	}{
		{"", EncodingCDRLE},
		{"xcdr1", EncodingCDRLE},
		{"xcdr1-be", EncodingCDRBE},
		{"xcdr2", EncodingCDR2LE},
		{"cdr2_be", EncodingCDR2BE},
	}
	for _, tt := range tests {
		got, err := ParseEncoding(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseEncoding("json")
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)
}

func TestEncoding_Properties(t *testing.T) {
	assert.Equal(t, binary.LittleEndian, EncodingCDRLE.ByteOrder())
	assert.Equal(t, binary.BigEndian, EncodingCDR2BE.ByteOrder())
	assert.Equal(t, 8, EncodingCDRBE.MaxAlign())
	assert.Equal(t, 4, EncodingCDR2LE.MaxAlign())
	assert.Equal(t, "CDR2_LE", EncodingCDR2LE.String())
	assert.False(t, Encoding(0x0003).Valid())
}

func TestHeader(t *testing.T) {
	data := AppendHeader(nil, EncodingCDRLE, 2)
	assert.Equal(t, []byte{0x00, 0x01, 0x00, 0x02}, data)

	data = append(data, 'a', 'b', 0x00, 0x00)
	enc, payload, err := ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, EncodingCDRLE, enc)
	assert.Equal(t, []byte{'a', 'b'}, payload)
}

func TestParseHeader_Errors(t *testing.T) {
	_, _, err := ParseHeader([]byte{0x00, 0x01})
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, _, err = ParseHeader([]byte{0x00, 0x02, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)

	_, _, err = ParseHeader([]byte{0x00, 0x01, 0x00, 0x03, 0x00})
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestPaddingFor(t *testing.T) {
	assert.Equal(t, 0, PaddingFor(0))
	assert.Equal(t, 3, PaddingFor(1))
	assert.Equal(t, 2, PaddingFor(18))
	assert.Equal(t, 0, PaddingFor(24))
}
