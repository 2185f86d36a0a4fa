// Package registry stores component fragments by name.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/mtb-build/mtb/internal/errors"
	"github.com/mtb-build/mtb/internal/logging"
	"github.com/mtb-build/mtb/internal/validation"
)

// ComponentRegistry maps validated component names to fragment content.
// The namespace is flat: "ui/Button" is a single key.
type ComponentRegistry struct {
	components map[string]string
	mutex      sync.RWMutex
	logger     logging.Logger
}

// NewComponentRegistry creates an empty registry. A nil logger discards
// overwrite warnings.
func NewComponentRegistry(logger logging.Logger) *ComponentRegistry {
	return &ComponentRegistry{
		components: make(map[string]string),
		logger:     logging.OrNop(logger).WithComponent("registry"),
	}
}

// Register stores content under name, replacing any previous entry, and
// returns the name.
func (r *ComponentRegistry) Register(name, content string) (string, error) {
	if !validation.IsValidComponentName(name) {
		return "", &errors.InvalidNameError{Name: name}
	}

	r.mutex.Lock()
	_, exists := r.components[name]
	r.components[name] = content
	r.mutex.Unlock()

	if exists {
		r.logger.Warn(context.Background(), nil, "component overwritten", "name", name)
	}

	return name, nil
}

// Get returns the content registered under name.
func (r *ComponentRegistry) Get(name string) (string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	content, exists := r.components[name]
	if !exists {
		return "", &errors.ComponentNotFoundError{Name: name}
	}
	return content, nil
}

// Has reports whether name is registered.
func (r *ComponentRegistry) Has(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.components[name]
	return exists
}

// GetAll returns the registered names in lexical order.
func (r *ComponentRegistry) GetAll() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of every name and its content.
func (r *ComponentRegistry) Snapshot() map[string]string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make(map[string]string, len(r.components))
	for name, content := range r.components {
		result[name] = content
	}
	return result
}

// Remove deletes name and reports whether it was present.
func (r *ComponentRegistry) Remove(name string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.components[name]; !exists {
		return false
	}
	delete(r.components, name)
	return true
}

// Count returns the number of registered components.
func (r *ComponentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.components)
}

// Clear removes every component.
func (r *ComponentRegistry) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.components = make(map[string]string)
}

// ReplaceWith swaps the contents of r for a copy of other's in one step, so
// readers see either the old set or the new one and never a partial scan.
func (r *ComponentRegistry) ReplaceWith(other *ComponentRegistry) {
	components := other.Snapshot()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.components = components
}
