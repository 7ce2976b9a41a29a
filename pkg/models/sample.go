package models

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/swanjin/go2/pkg/helloworlddata"
)

// idRule keeps ids usable as file names and key suffixes.
// It must match the validate tag of Sample.ID.
const idRule = `required,max=256,printascii,excludesall=/\`

var validate = validator.New()

// Sample is a received HelloWorldData::Msg together with where it came from
type Sample struct {
	ID        string    `json:"id" validate:"required,max=256,printascii,excludesall=/\\"`
	UserID    int64     `json:"userID"`
	Message   string    `json:"message"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Metadata holds transport-level information about a sample
type Metadata struct {
	Topic     string `json:"topic,omitempty" validate:"required"`
	TypeName  string `json:"typeName,omitempty"`
	Encoding  string `json:"encoding,omitempty"`
	Transport string `json:"transport,omitempty"`
	Size      int    `json:"size,omitempty"`
}

// NewSample wraps a decoded message
func NewSample(id string, msg helloworlddata.Msg, meta Metadata) *Sample {
	return &Sample{
		ID:       id,
		UserID:   msg.UserID(),
		Message:  msg.Message(),
		Metadata: meta,
	}
}

// Validate checks the fields a repository relies on
func (s *Sample) Validate() error {
	return validate.Struct(s)
}

// ValidateID checks an id supplied from outside before it is used for a lookup
func ValidateID(id string) error {
	return validate.Var(id, idRule)
}

// Msg returns the message carried by the sample
func (s *Sample) Msg() helloworlddata.Msg {
	return helloworlddata.NewMsg(s.UserID, s.Message)
}

// Delivery is one serialized sample as carried by a transport
type Delivery struct {
	ID        string
	TypeName  string
	Data      []byte
	Transport string
}
