package helloworlddata

import (
	"fmt"

	"github.com/swanjin/go2/pkg/cdr"
)

const (
	memberUserID  uint32 = 0
	memberMessage uint32 = 1
)

var props = cdr.EntityProperties{
	TypeName:      TypeName,
	Extensibility: cdr.ExtensibilityFinal,
	Members: []cdr.EntityProperty{
		{ID: memberUserID, Name: "userID"},
		{ID: memberMessage, Name: "message"},
	},
}

// Props returns the entity properties of Msg
func Props() *cdr.EntityProperties {
	return &props
}

// streamMember runs one member through the stream. Write, move and max do not
// modify m; read fills it in.
func streamMember(s *cdr.Stream, m *Msg, prop *cdr.EntityProperty) error {
	if err := s.StartMember(prop); err != nil {
		return err
	}

	var err error
	switch prop.ID {
	case memberUserID:
		err = s.Int64(&m.userID)
	case memberMessage:
		err = s.String(&m.message, 0)
	}
	if err != nil {
		return fmt.Errorf("%s.%s: %w", TypeName, prop.Name, err)
	}

	return s.FinishMember(prop)
}

func streamStruct(s *cdr.Stream, m *Msg, p *cdr.EntityProperties) error {
	if err := s.StartStruct(p); err != nil {
		return err
	}
	for prop := s.FirstEntity(p); prop != nil; prop = s.NextEntity(p, prop) {
		if err := streamMember(s, m, prop); err != nil {
			return err
		}
	}
	return s.FinishStruct(p)
}

// Write serializes m into s
func Write(s *cdr.Stream, m Msg, asKey bool) error {
	s.SetMode(cdr.ModeWrite, asKey)
	return streamStruct(s, &m, &props)
}

// Read deserializes m from s
func Read(s *cdr.Stream, m *Msg, asKey bool) error {
	s.SetMode(cdr.ModeRead, asKey)
	return streamStruct(s, m, &props)
}

// Move advances s by the serialized size of m
func Move(s *cdr.Stream, m Msg, asKey bool) error {
	s.SetMode(cdr.ModeMove, asKey)
	return streamStruct(s, &m, &props)
}

// Max advances s by the largest serialized size of any Msg
func Max(s *cdr.Stream, m Msg, asKey bool) error {
	s.SetMode(cdr.ModeMax, asKey)
	return streamStruct(s, &m, &props)
}

// Marshal serializes m with the encapsulation header. The payload is padded to
// a multiple of 4 and the padding recorded in the header options.
func Marshal(m Msg, enc cdr.Encoding) ([]byte, error) {
	s, err := cdr.NewStream(enc)
	if err != nil {
		return nil, err
	}
	if err := Write(s, m, false); err != nil {
		return nil, err
	}

	payload := s.Bytes()
	padding := cdr.PaddingFor(len(payload))
	out := make([]byte, 0, cdr.HeaderSize+len(payload)+padding)
	out = cdr.AppendHeader(out, enc, padding)
	out = append(out, payload...)
	for i := 0; i < padding; i++ {
		out = append(out, 0)
	}
	return out, nil
}

// Unmarshal deserializes data produced by Marshal into m. On failure m is
// left unchanged.
func Unmarshal(data []byte, m *Msg) error {
	_, err := UnmarshalEncoding(data, m)
	return err
}

// UnmarshalEncoding is Unmarshal that also returns the encoding named by the
// encapsulation header.
func UnmarshalEncoding(data []byte, m *Msg) (cdr.Encoding, error) {
	enc, payload, err := cdr.ParseHeader(data)
	if err != nil {
		return 0, err
	}
	s, err := cdr.NewReader(enc, payload)
	if err != nil {
		return 0, err
	}

	var out Msg
	if err := Read(s, &out, false); err != nil {
		return 0, err
	}
	*m = out
	return enc, nil
}

// SerializedSize returns the payload size of m, excluding header and padding
func SerializedSize(m Msg, enc cdr.Encoding) (int, error) {
	s, err := cdr.NewStream(enc)
	if err != nil {
		return 0, err
	}
	if err := Move(s, m, false); err != nil {
		return 0, err
	}
	return s.Position(), nil
}

// MaxSerializedSize returns the largest payload size of any Msg. bounded is
// false when a member has no upper bound, in which case size is meaningless.
func MaxSerializedSize(enc cdr.Encoding) (size int, bounded bool, err error) {
	s, err := cdr.NewStream(enc)
	if err != nil {
		return 0, false, err
	}
	if err := Max(s, Msg{}, false); err != nil {
		return 0, false, err
	}
	return s.Position(), !s.Unbounded(), nil
}

// KeyBytes serializes the key members of m. Msg is keyless, so the result is
// always empty.
func KeyBytes(m Msg) ([]byte, error) {
	s, err := cdr.NewStream(cdr.EncodingCDRBE)
	if err != nil {
		return nil, err
	}
	if err := Write(s, m, true); err != nil {
		return nil, err
	}
	return append([]byte{}, s.Bytes()...), nil
}
