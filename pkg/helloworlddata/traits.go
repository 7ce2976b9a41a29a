package helloworlddata

import (
	"fmt"

	"github.com/swanjin/go2/pkg/cdr"
	"github.com/swanjin/go2/pkg/topic"
)

const (
	// TypeName is the registered name of Msg
	TypeName = "HelloWorldData::Msg"

	typeMapSize  = 246
	typeInfoSize = 100
)

var typeMap = []byte{
	0x4c, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0xf1, 0xc6, 0x4e, 0xc8, 0x69, 0x45, 0x24, 0x37,
	0x97, 0x71, 0x0e, 0x16, 0xea, 0x09, 0x7f, 0x00, 0x34, 0x00, 0x00, 0x00, 0xf1, 0x51, 0x01, 0x00,
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x24, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00,
	0x0b, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x05, 0x58, 0x5c, 0x95, 0x70, 0x00,
	0x0c, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x70, 0x00, 0x78, 0xe7, 0x31, 0x02,
	0x7a, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0xf2, 0x70, 0xc8, 0x44, 0xb4, 0xff, 0x08, 0x3b,
	0x24, 0x1e, 0x92, 0xa7, 0x08, 0x93, 0x7e, 0x00, 0x62, 0x00, 0x00, 0x00, 0xf2, 0x51, 0x01, 0x00,
	0x1c, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x14, 0x00, 0x00, 0x00, 0x48, 0x65, 0x6c, 0x6c,
	0x6f, 0x57, 0x6f, 0x72, 0x6c, 0x64, 0x44, 0x61, 0x74, 0x61, 0x3a, 0x3a, 0x4d, 0x73, 0x67, 0x00,
	0x3a, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x15, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x05, 0x00, 0x07, 0x00, 0x00, 0x00, 0x75, 0x73, 0x65, 0x72, 0x49, 0x44, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x16, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x70, 0x00,
	0x08, 0x00, 0x00, 0x00, 0x6d, 0x65, 0x73, 0x73, 0x61, 0x67, 0x65, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x22, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0xf2, 0x70, 0xc8, 0x44, 0xb4, 0xff, 0x08, 0x3b,
	0x24, 0x1e, 0x92, 0xa7, 0x08, 0x93, 0x7e, 0xf1, 0xc6, 0x4e, 0xc8, 0x69, 0x45, 0x24, 0x37, 0x97,
	0x71, 0x0e, 0x16, 0xea, 0x09, 0x7f,
}

var typeInfo = []byte{
	0x60, 0x00, 0x00, 0x00, 0x01, 0x10, 0x00, 0x40, 0x28, 0x00, 0x00, 0x00, 0x24, 0x00, 0x00, 0x00,
	0x14, 0x00, 0x00, 0x00, 0xf1, 0xc6, 0x4e, 0xc8, 0x69, 0x45, 0x24, 0x37, 0x97, 0x71, 0x0e, 0x16,
	0xea, 0x09, 0x7f, 0x00, 0x38, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x02, 0x10, 0x00, 0x40, 0x28, 0x00, 0x00, 0x00, 0x24, 0x00, 0x00, 0x00,
	0x14, 0x00, 0x00, 0x00, 0xf2, 0x70, 0xc8, 0x44, 0xb4, 0xff, 0x08, 0x3b, 0x24, 0x1e, 0x92, 0xa7,
	0x08, 0x93, 0x7e, 0x00, 0x66, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// Descriptor returns the topic descriptor of Msg
func Descriptor() topic.Descriptor {
	return topic.Descriptor{
		TypeName:      TypeName,
		SelfContained: false,
		Keyless:       true,
		TypeMap:       typeMap,
		TypeMapSize:   typeMapSize,
		TypeInfo:      typeInfo,
		TypeInfoSize:  typeInfoSize,
		Props:         &props,
		New:           func() any { return new(Msg) },
		Encode:        encodeSample,
		Decode:        decodeSample,
	}
}

func encodeSample(sample any, enc cdr.Encoding) ([]byte, error) {
	switch m := sample.(type) {
	case Msg:
		return Marshal(m, enc)
	case *Msg:
		return Marshal(*m, enc)
	default:
		return nil, fmt.Errorf("%s: cannot encode sample of type %T", TypeName, sample)
	}
}

func decodeSample(data []byte) (any, error) {
	m := new(Msg)
	if err := Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

func init() {
	topic.MustRegister(Descriptor())
}
