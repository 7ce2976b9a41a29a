package topic

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/swanjin/go2/pkg/cdr"
)

var (
	ErrUnknownType       = errors.New("topic: unknown type")
	ErrAlreadyRegistered = errors.New("topic: type already registered")
	ErrInvalidDescriptor = errors.New("topic: invalid type descriptor")
)

// Descriptor carries everything the topic layer knows about a data type:
// its name, key and containment traits, the type-discovery blobs and the
// hooks to move samples on and off the wire.
type Descriptor struct {
	TypeName      string
	SelfContained bool
	Keyless       bool

	// TypeMap and TypeInfo are opaque type-discovery blobs, as generated
	TypeMap      []byte
	TypeMapSize  int
	TypeInfo     []byte
	TypeInfoSize int

	Props *cdr.EntityProperties

	// New returns a pointer to a zero sample
	New func() any
	// Encode serializes a sample, including the encapsulation header
	Encode func(sample any, enc cdr.Encoding) ([]byte, error)
	// Decode deserializes data produced by Encode into a new sample
	Decode func(data []byte) (any, error)
}

func (d Descriptor) validate() error {
	if d.TypeName == "" {
		return fmt.Errorf("%w: empty type name", ErrInvalidDescriptor)
	}
	if d.Props == nil {
		return fmt.Errorf("%w: %s has no entity properties", ErrInvalidDescriptor, d.TypeName)
	}
	if d.New == nil || d.Encode == nil || d.Decode == nil {
		return fmt.Errorf("%w: %s is missing sample hooks", ErrInvalidDescriptor, d.TypeName)
	}
	if len(d.TypeMap) != d.TypeMapSize {
		return fmt.Errorf("%w: %s type map is %d bytes, want %d", ErrInvalidDescriptor, d.TypeName, len(d.TypeMap), d.TypeMapSize)
	}
	if len(d.TypeInfo) != d.TypeInfoSize {
		return fmt.Errorf("%w: %s type info is %d bytes, want %d", ErrInvalidDescriptor, d.TypeName, len(d.TypeInfo), d.TypeInfoSize)
	}
	if d.Keyless == d.Props.HasKey() {
		return fmt.Errorf("%w: %s keyless=%t disagrees with its members", ErrInvalidDescriptor, d.TypeName, d.Keyless)
	}
	return nil
}

// Registry maps type names to descriptors
type Registry struct {
	mu    sync.RWMutex
	types map[string]Descriptor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Descriptor)}
}

// Register adds a descriptor. A type can only be registered once.
func (r *Registry) Register(d Descriptor) error {
	if err := d.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[d.TypeName]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, d.TypeName)
	}
	r.types[d.TypeName] = d
	return nil
}

// Lookup returns the descriptor registered under typeName
func (r *Registry) Lookup(typeName string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.types[typeName]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	return d, nil
}

// Types returns the registered type names in sorted order
func (r *Registry) Types() []string {
	r.mu.RLock()
	names := lo.Keys(r.types)
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register adds d to the default registry
func Register(d Descriptor) error {
	return defaultRegistry.Register(d)
}

// MustRegister adds d to the default registry and panics on failure.
// Bindings call it from init.
func MustRegister(d Descriptor) {
	if err := defaultRegistry.Register(d); err != nil {
		panic(err)
	}
}

// Lookup finds typeName in the default registry
func Lookup(typeName string) (Descriptor, error) {
	return defaultRegistry.Lookup(typeName)
}

// Types lists the default registry
func Types() []string {
	return defaultRegistry.Types()
}
