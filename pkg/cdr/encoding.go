package cdr

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size of the RTPS encapsulation header that precedes every payload
const HeaderSize = 4

// Encoding is the RTPS encapsulation identifier of a serialized payload
type Encoding uint16

// Plain (final-struct) representations, as identified on the wire
const (
	EncodingCDRBE  Encoding = 0x0000
	EncodingCDRLE  Encoding = 0x0001
	EncodingCDR2BE Encoding = 0x0006
	EncodingCDR2LE Encoding = 0x0007
)

// ParseEncoding maps a configuration name to an Encoding
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "xcdr1", "cdr_le", "":
		return EncodingCDRLE, nil
	case "xcdr1-be", "cdr_be":
		return EncodingCDRBE, nil
	case "xcdr2", "cdr2_le":
		return EncodingCDR2LE, nil
	case "xcdr2-be", "cdr2_be":
		return EncodingCDR2BE, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
}

// Valid reports whether the encoding is one the stream can handle
func (e Encoding) Valid() bool {
	switch e {
	case EncodingCDRBE, EncodingCDRLE, EncodingCDR2BE, EncodingCDR2LE:
		return true
	}
	return false
}

// ByteOrder returns the byte order used for primitives
func (e Encoding) ByteOrder() binary.ByteOrder {
	return e.byteOrder()
}

func (e Encoding) byteOrder() byteOrder {
	if e&0x0001 == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// MaxAlign returns the largest alignment applied to primitives.
// XCDR2 caps 8-byte primitives at 4-byte alignment.
func (e Encoding) MaxAlign() int {
	if e == EncodingCDR2BE || e == EncodingCDR2LE {
		return 4
	}
	return 8
}

// String returns the wire name of the encoding, e.g. "CDR_LE"
func (e Encoding) String() string {
	switch e {
	case EncodingCDRBE:
		return "CDR_BE"
	case EncodingCDRLE:
		return "CDR_LE"
	case EncodingCDR2BE:
		return "CDR2_BE"
	case EncodingCDR2LE:
		return "CDR2_LE"
	default:
		return fmt.Sprintf("Encoding(0x%04x)", uint16(e))
	}
}

// AppendHeader appends the encapsulation header to dst. The two low bits of the
// options field carry the number of padding bytes at the end of the payload.
func AppendHeader(dst []byte, enc Encoding, padding int) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(enc))
	return binary.BigEndian.AppendUint16(dst, uint16(padding&0x3))
}

// ParseHeader splits data into its encoding and payload, dropping trailing padding
func ParseHeader(data []byte) (Encoding, []byte, error) {
	if len(data) < HeaderSize {
		return 0, nil, fmt.Errorf("%w: encapsulation header needs %d bytes, got %d", ErrShortBuffer, HeaderSize, len(data))
	}

	enc := Encoding(binary.BigEndian.Uint16(data[0:2]))
	if !enc.Valid() {
		return 0, nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}

	padding := int(binary.BigEndian.Uint16(data[2:4]) & 0x3)
	payload := data[HeaderSize:]
	if padding > len(payload) {
		return 0, nil, fmt.Errorf("%w: padding %d exceeds payload of %d bytes", ErrShortBuffer, padding, len(payload))
	}

	return enc, payload[:len(payload)-padding], nil
}

// PaddingFor returns the number of bytes needed to round size up to a multiple of 4
func PaddingFor(size int) int {
	return (4 - size%4) % 4
}
