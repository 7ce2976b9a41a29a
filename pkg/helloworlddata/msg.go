// Package helloworlddata holds the HelloWorldData::Msg data type and its CDR
// binding.
package helloworlddata

import "fmt"

// Msg is a keyless sample carrying a user identifier and a text payload.
// The zero value has userID 0 and an empty message.
type Msg struct {
	userID  int64
	message string
}

// NewMsg creates a message from explicit field values
func NewMsg(userID int64, message string) Msg {
	return Msg{userID: userID, message: message}
}

// UserID returns the userID field
func (m Msg) UserID() int64 { return m.userID }

// SetUserID sets the userID field
func (m *Msg) SetUserID(v int64) { m.userID = v }

// Message returns the message field
func (m Msg) Message() string { return m.message }

// SetMessage sets the message field
func (m *Msg) SetMessage(v string) { m.message = v }

// Equal reports whether both fields match exactly
func (m Msg) Equal(other Msg) bool {
	return m.userID == other.userID && m.message == other.message
}

// String formats the message for logs
func (m Msg) String() string {
	return fmt.Sprintf("Msg{userID: %d, message: %q}", m.userID, m.message)
}
