package compiler

import (
	"sort"
	"sync"
)

// PageSet holds page bodies by name (file stem) between loading and
// compilation.
type PageSet struct {
	pages map[string]string
	mutex sync.RWMutex
}

// NewPageSet creates an empty page set.
func NewPageSet() *PageSet {
	return &PageSet{pages: make(map[string]string)}
}

// Add stores body under name, replacing any previous page.
func (p *PageSet) Add(name, body string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.pages[name] = body
}

// Get returns the body of the named page.
func (p *PageSet) Get(name string) (string, bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	body, ok := p.pages[name]
	return body, ok
}

// Names returns the page names in lexical order.
func (p *PageSet) Names() []string {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	names := make([]string, 0, len(p.pages))
	for name := range p.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of pages.
func (p *PageSet) Count() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return len(p.pages)
}

// Clear removes every page.
func (p *PageSet) Clear() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.pages = make(map[string]string)
}

// ReplaceWith swaps the pages of p for a copy of other's.
func (p *PageSet) ReplaceWith(other *PageSet) {
	other.mutex.RLock()
	pages := make(map[string]string, len(other.pages))
	for name, body := range other.pages {
		pages[name] = body
	}
	other.mutex.RUnlock()

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.pages = pages
}
