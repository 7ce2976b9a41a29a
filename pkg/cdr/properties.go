package cdr

// Extensibility of a constructed type
type Extensibility int

const (
	ExtensibilityFinal Extensibility = iota
	ExtensibilityAppendable
	ExtensibilityMutable
)

// EntityProperty describes one member of a struct as seen by the stream
type EntityProperty struct {
	ID    uint32
	Name  string
	IsKey bool
}

// EntityProperties is the member table a binding hands to the stream.
// Members are listed in declaration order.
type EntityProperties struct {
	TypeName      string
	Extensibility Extensibility
	Members       []EntityProperty
}

// HasKey reports whether any member is part of the key
func (p *EntityProperties) HasKey() bool {
	for _, m := range p.Members {
		if m.IsKey {
			return true
		}
	}
	return false
}
