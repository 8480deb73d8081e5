package target

import (
	"fmt"
	"sync"
)

// Constructor creates a codec instance for a format.
// Implementations register themselves with the registry using Register().
type Constructor func() Codec

// registry maps formats to their constructors
var (
	registry      = make(map[Format]Constructor)
	registryMutex sync.RWMutex
)

// Register registers a codec constructor for a format.
// This is called from init() functions in implementation packages
// (markdown, html).
//
// Example:
//
//	func init() {
//	    target.Register(target.FormatMarkdown, New)
//	}
func Register(f Format, constructor Constructor) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if constructor == nil {
		panic(fmt.Sprintf("target: Register constructor is nil for format %s", f))
	}

	if _, exists := registry[f]; exists {
		panic(fmt.Sprintf("target: Register called twice for format %s", f))
	}

	registry[f] = constructor
}

// New creates the codec registered for a format. Returns
// ErrUnknownFormat when no implementation is registered, which usually
// means the implementation package was not imported.
func New(f Format) (Codec, error) {
	registryMutex.RLock()
	constructor := registry[f]
	registryMutex.RUnlock()

	if constructor == nil {
		return nil, fmt.Errorf("%w: %s (registered: %v)", ErrUnknownFormat, f, RegisteredFormats())
	}
	return constructor(), nil
}

// IsRegistered returns true if a constructor is registered for the format.
func IsRegistered(f Format) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, exists := registry[f]
	return exists
}

// RegisteredFormats returns all registered formats.
// Useful for testing and error messages.
func RegisteredFormats() []Format {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	formats := make([]Format, 0, len(registry))
	for f := range registry {
		formats = append(formats, f)
	}
	return formats
}
