package cdr

import (
	"encoding/binary"
	"fmt"
)

// Mode selects what a Stream does with the values handed to it
type Mode int

const (
	// ModeWrite serializes values into the stream buffer
	ModeWrite Mode = iota
	// ModeRead deserializes values from the stream buffer
	ModeRead
	// ModeMove advances the position as a write would, without producing bytes
	ModeMove
	// ModeMax advances the position by the largest size a value of the type can take
	ModeMax
)

// String returns the lower-case mode name
func (m Mode) String() string {
	switch m {
	case ModeWrite:
		return "write"
	case ModeRead:
		return "read"
	case ModeMove:
		return "move"
	case ModeMax:
		return "max"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Stream is a CDR payload cursor. Positions are relative to the start of the
// payload, i.e. after the encapsulation header.
type Stream struct {
	enc       Encoding
	order     byteOrder
	maxAlign  int
	mode      Mode
	key       bool
	buf       []byte
	pos       int
	depth     int
	unbounded bool
}

// NewStream creates a stream for the given encoding in write mode
func NewStream(enc Encoding) (*Stream, error) {
	if !enc.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}
	return &Stream{
		enc:      enc,
		order:    enc.byteOrder(),
		maxAlign: enc.MaxAlign(),
	}, nil
}

// NewReader creates a read-mode stream over a payload
func NewReader(enc Encoding, payload []byte) (*Stream, error) {
	s, err := NewStream(enc)
	if err != nil {
		return nil, err
	}
	s.buf = payload
	s.mode = ModeRead
	return s, nil
}

// SetMode switches the stream mode and rewinds it. In read mode the buffer is
// kept; in every other mode it is discarded.
func (s *Stream) SetMode(mode Mode, asKey bool) {
	s.mode = mode
	s.key = asKey
	s.pos = 0
	s.depth = 0
	s.unbounded = false
	if mode != ModeRead {
		s.buf = s.buf[:0]
	}
}

// Mode returns the current stream mode
func (s *Stream) Mode() Mode { return s.mode }

// Key reports whether only key members are streamed
func (s *Stream) Key() bool { return s.key }

// Encoding returns the encoding the stream was created with
func (s *Stream) Encoding() Encoding { return s.enc }

// Position returns the offset from the start of the payload
func (s *Stream) Position() int { return s.pos }

// Unbounded reports whether max mode met a member without an upper bound
func (s *Stream) Unbounded() bool { return s.unbounded }

// Bytes returns the written payload, or the payload being read
func (s *Stream) Bytes() []byte { return s.buf }

// Remaining returns the number of unread bytes
func (s *Stream) Remaining() int { return len(s.buf) - s.pos }

// StartStruct opens a struct. Only final types are supported, which carry no
// delimiter or member headers in either XCDR version.
func (s *Stream) StartStruct(props *EntityProperties) error {
	if props.Extensibility != ExtensibilityFinal {
		return fmt.Errorf("%w: %s is not a final type", ErrUnsupportedEncoding, props.TypeName)
	}
	s.depth++
	return nil
}

// FinishStruct closes the struct opened by StartStruct
func (s *Stream) FinishStruct(props *EntityProperties) error {
	if s.depth == 0 {
		return fmt.Errorf("%w: finish of %s without start", ErrUnbalancedStruct, props.TypeName)
	}
	s.depth--
	return nil
}

// StartMember is a no-op for final types
func (s *Stream) StartMember(prop *EntityProperty) error {
	if s.depth == 0 {
		return fmt.Errorf("%w: member %s outside struct", ErrUnbalancedStruct, prop.Name)
	}
	return nil
}

// FinishMember is a no-op for final types
func (s *Stream) FinishMember(prop *EntityProperty) error {
	if s.depth == 0 {
		return fmt.Errorf("%w: member %s outside struct", ErrUnbalancedStruct, prop.Name)
	}
	return nil
}

// FirstEntity returns the first member to stream, or nil. In key mode only
// key members are visited.
func (s *Stream) FirstEntity(props *EntityProperties) *EntityProperty {
	return s.nextFrom(props, 0)
}

// NextEntity returns the member following prev, or nil
func (s *Stream) NextEntity(props *EntityProperties, prev *EntityProperty) *EntityProperty {
	for i := range props.Members {
		if &props.Members[i] == prev {
			return s.nextFrom(props, i+1)
		}
	}
	return nil
}

func (s *Stream) nextFrom(props *EntityProperties, start int) *EntityProperty {
	for i := start; i < len(props.Members); i++ {
		if s.key && !props.Members[i].IsKey {
			continue
		}
		return &props.Members[i]
	}
	return nil
}

// align moves the position to the next multiple of n, capped at the encoding's max alignment
func (s *Stream) align(n int) error {
	if n > s.maxAlign {
		n = s.maxAlign
	}
	pad := (n - s.pos%n) % n
	if pad == 0 {
		return nil
	}

	switch s.mode {
	case ModeWrite:
		for i := 0; i < pad; i++ {
			s.buf = append(s.buf, 0)
		}
	case ModeRead:
		if s.Remaining() < pad {
			return fmt.Errorf("%w: alignment needs %d bytes at offset %d", ErrShortBuffer, pad, s.pos)
		}
	}
	s.pos += pad
	return nil
}

func (s *Stream) need(n int) error {
	if s.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, s.pos, s.Remaining())
	}
	return nil
}

// Uint32 streams an unsigned 32-bit value
func (s *Stream) Uint32(v *uint32) error {
	if s.unbounded {
		return nil
	}
	if err := s.align(4); err != nil {
		return err
	}

	switch s.mode {
	case ModeWrite:
		s.buf = s.order.AppendUint32(s.buf, *v)
	case ModeRead:
		if err := s.need(4); err != nil {
			return err
		}
		*v = s.order.Uint32(s.buf[s.pos:])
	}
	s.pos += 4
	return nil
}

// Int64 streams a signed 64-bit value
func (s *Stream) Int64(v *int64) error {
	if s.unbounded {
		return nil
	}
	if err := s.align(8); err != nil {
		return err
	}

	switch s.mode {
	case ModeWrite:
		s.buf = s.order.AppendUint64(s.buf, uint64(*v))
	case ModeRead:
		if err := s.need(8); err != nil {
			return err
		}
		*v = int64(s.order.Uint64(s.buf[s.pos:]))
	}
	s.pos += 8
	return nil
}

// String streams a string as a uint32 length (including the terminating NUL),
// the bytes and the NUL. A bound of 0 means unbounded.
func (s *Stream) String(v *string, bound int) error {
	if s.unbounded {
		return nil
	}

	if s.mode == ModeMax {
		if bound == 0 {
			s.unbounded = true
			return nil
		}
		if err := s.align(4); err != nil {
			return err
		}
		s.pos += 4 + bound + 1
		return nil
	}

	if s.mode == ModeRead {
		return s.readString(v, bound)
	}

	if bound > 0 && len(*v) > bound {
		return fmt.Errorf("%w: string of %d bytes, bound %d", ErrBoundExceeded, len(*v), bound)
	}
	length := uint32(len(*v) + 1)
	if err := s.Uint32(&length); err != nil {
		return err
	}
	if s.mode == ModeWrite {
		s.buf = append(s.buf, *v...)
		s.buf = append(s.buf, 0)
	}
	s.pos += int(length)
	return nil
}

func (s *Stream) readString(v *string, bound int) error {
	var length uint32
	if err := s.Uint32(&length); err != nil {
		return err
	}
	// Some writers encode the empty string with a zero length
	if length == 0 {
		*v = ""
		return nil
	}
	if bound > 0 && int(length)-1 > bound {
		return fmt.Errorf("%w: string of %d bytes, bound %d", ErrBoundExceeded, length-1, bound)
	}
	if err := s.need(int(length)); err != nil {
		return err
	}

	data := s.buf[s.pos : s.pos+int(length)]
	if data[len(data)-1] != 0 {
		return fmt.Errorf("%w: missing NUL terminator at offset %d", ErrInvalidString, s.pos+int(length)-1)
	}
	*v = string(data[:len(data)-1])
	s.pos += int(length)
	return nil
}
