package errors

import (
	"sort"
	"strings"
	"sync"
)

// PageFailure records why a single page failed during a build.
type PageFailure struct {
	Page string
	Err  error
}

// ErrorCollector gathers page failures from concurrent compile workers.
type ErrorCollector struct {
	failures []PageFailure
	errors   []error
	mutex    sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		failures: make([]PageFailure, 0),
		errors:   make([]error, 0),
	}
}

// AddPage records a failure for page. Nil errors are ignored.
func (ec *ErrorCollector) AddPage(page string, err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.failures = append(ec.failures, PageFailure{Page: page, Err: err})
}

// AddError adds a general error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// Failures returns the page failures sorted by page name.
func (ec *ErrorCollector) Failures() []PageFailure {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	result := make([]PageFailure, len(ec.failures))
	copy(result, ec.failures)
	sort.Slice(result, func(i, j int) bool { return result[i].Page < result[j].Page })

	return result
}

// GetAllErrors returns page failures followed by general errors.
func (ec *ErrorCollector) GetAllErrors() []error {
	failures := ec.Failures()

	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	all := make([]error, 0, len(failures)+len(ec.errors))
	for _, f := range failures {
		all = append(all, f.Err)
	}

	return append(all, ec.errors...)
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.failures) > 0 || len(ec.errors) > 0
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.failures = ec.failures[:0]
	ec.errors = ec.errors[:0]
}

// Err combines everything collected into a single error, or nil.
func (ec *ErrorCollector) Err() error {
	all := ec.GetAllErrors()
	if len(all) == 0 {
		return nil
	}

	return &BuildFailedError{Errors: all}
}

// BuildFailedError aggregates the failures of one build.
type BuildFailedError struct {
	Errors []error
}

func (e *BuildFailedError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	lines := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		lines[i] = err.Error()
	}

	return strings.Join(lines, "\n")
}

// Unwrap exposes the aggregated errors to errors.Is and errors.As.
func (e *BuildFailedError) Unwrap() []error {
	return e.Errors
}
