// Package compiler resolves component placeholders in page bodies.
//
// Compilation is a full, synchronous expansion of a page against a registry:
// every {{name props}} tag is replaced by the component's content, with
// properties interpolated, and nested tags are expanded recursively. A
// compile either returns a string with no unresolved references or fails
// with a *errors.CompilationError.
package compiler

import (
	"context"
	"strings"

	"github.com/mtb-build/mtb/internal/errors"
	"github.com/mtb-build/mtb/internal/logging"
	"github.com/mtb-build/mtb/internal/registry"
	"github.com/mtb-build/mtb/internal/tags"
)

// MaxDepth is the deepest nesting level a component may be resolved at. The
// page itself is level 1.
const MaxDepth = 10

// Compiler expands pages against a component registry. It only reads from the
// registry, so one Compiler may compile many pages concurrently once all
// components are registered.
type Compiler struct {
	registry *registry.ComponentRegistry
	logger   logging.Logger
}

// New creates a compiler reading from reg.
func New(reg *registry.ComponentRegistry, logger logging.Logger) *Compiler {
	return &Compiler{
		registry: reg,
		logger:   logging.OrNop(logger).WithComponent("compiler"),
	}
}

// Compile resolves every placeholder in pageBody. Missing components are
// collected across the whole page and reported together; a circular reference
// or an exceeded depth aborts at once.
func (c *Compiler) Compile(pageName, pageBody string) (string, error) {
	resolved, missing, err := c.resolveContent(pageBody, pageName, 1, nil)
	if err != nil {
		return "", &errors.CompilationError{
			Page:     pageName,
			Messages: []string{err.Error()},
			Cause:    err,
		}
	}

	if len(missing) > 0 {
		return "", errors.NewMissingComponentsError(pageName, missing)
	}

	return resolved, nil
}

// CompilePage compiles the page registered in pages under name.
func (c *Compiler) CompilePage(pages *PageSet, name string) (string, error) {
	body, ok := pages.Get(name)
	if !ok {
		return "", &errors.PageNotFoundError{Page: name}
	}
	return c.Compile(name, body)
}

// resolveContent expands the tags in content. visited holds the components
// being expanded on the current path, outermost first. It returns the
// expanded text, the names of components that could not be found, and a
// non-nil error only for fatal failures.
func (c *Compiler) resolveContent(content, contextName string, depth int, visited []string) (string, []string, error) {
	found := tags.Find(content)
	if len(found) == 0 {
		return content, nil, nil
	}

	var missing []string

	for _, tag := range found {
		parsed := tags.Parse(tag)
		name := parsed.Name

		if containsName(visited, name) {
			path := make([]string, 0, len(visited)+1)
			path = append(path, visited...)
			return "", nil, &errors.CycleError{Path: append(path, name)}
		}

		if depth > MaxDepth {
			return "", nil, &errors.MaxDepthError{Context: contextName, Depth: depth, Limit: MaxDepth}
		}

		fragment, err := c.registry.Get(name)
		if err != nil {
			missing = appendUnique(missing, name)
			continue
		}

		if len(parsed.Props) > 0 {
			fragment = tags.Interpolate(fragment, parsed.Props)
		}

		if tags.Contains(fragment) {
			// Each branch gets its own path so siblings never see each
			// other's entries.
			branch := append(visited[:len(visited):len(visited)], name)

			nested, nestedMissing, err := c.resolveContent(fragment, name, depth+1, branch)
			if err != nil {
				return "", nil, err
			}
			if len(nestedMissing) > 0 {
				for _, m := range nestedMissing {
					missing = appendUnique(missing, m)
				}
				continue
			}
			fragment = nested
		}

		content = strings.ReplaceAll(content, tag, fragment)

		c.logger.Debug(context.Background(), "component resolved",
			"name", name,
			"context", contextName,
			"depth", depth,
		)
	}

	return content, missing, nil
}

func containsName(visited []string, name string) bool {
	for _, v := range visited {
		if v == name {
			return true
		}
	}
	return false
}

func appendUnique(list []string, name string) []string {
	if containsName(list, name) {
		return list
	}
	return append(list, name)
}
