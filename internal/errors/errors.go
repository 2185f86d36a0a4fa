package errors

import (
	"fmt"
	"strings"
)

// InvalidNameError is returned when a component name fails validation.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid component name: %q", e.Name)
}

func (e *InvalidNameError) Code() string { return CodeInvalidName }

// ComponentNotFoundError is returned by a direct registry lookup of an
// unregistered component.
type ComponentNotFoundError struct {
	Name string
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component %q not found", e.Name)
}

func (e *ComponentNotFoundError) Code() string { return CodeComponentNotFound }

// PageNotFoundError is returned when compiling a page that was never loaded.
type PageNotFoundError struct {
	Page string
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("page %q not found", e.Page)
}

func (e *PageNotFoundError) Code() string { return CodePageNotFound }

// CycleError reports a component that references itself through the active
// resolution path. Path starts at the outermost component and ends with the
// re-entered name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "circular component reference: " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Code() string { return CodeCircularReference }

// MaxDepthError reports that nested resolution went past the depth limit.
type MaxDepthError struct {
	Context string
	Depth   int
	Limit   int
}

func (e *MaxDepthError) Error() string {
	return fmt.Sprintf("maximum component depth %d exceeded while resolving %q (depth %d)", e.Limit, e.Context, e.Depth)
}

func (e *MaxDepthError) Code() string { return CodeMaxDepthExceeded }

// CompilationError is the single failure of a compile pass. It either lists
// every missing component (Messages, Missing) or wraps one fatal CycleError
// or MaxDepthError (Cause).
type CompilationError struct {
	Page     string
	Messages []string
	Missing  []string
	Cause    error
}

// NewMissingComponentsError builds a CompilationError from missing names.
func NewMissingComponentsError(page string, missing []string) *CompilationError {
	messages := make([]string, len(missing))
	for i, name := range missing {
		messages[i] = MissingComponentMessage(name)
	}

	return &CompilationError{
		Page:     page,
		Messages: messages,
		Missing:  missing,
	}
}

// MissingComponentMessage is the human readable line for one missing component.
func MissingComponentMessage(name string) string {
	return fmt.Sprintf("component %q not found", name)
}

func (e *CompilationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to compile page %q: %v", e.Page, e.Cause)
	}

	return fmt.Sprintf("failed to compile page %q:\n  - %s", e.Page, strings.Join(e.Messages, "\n  - "))
}

func (e *CompilationError) Code() string { return CodeCompilation }

func (e *CompilationError) Unwrap() error {
	return e.Cause
}

// FileReadError wraps a failure reading a source file.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read file %q: %v", e.Path, e.Err)
}

func (e *FileReadError) Code() string  { return CodeFileRead }
func (e *FileReadError) Unwrap() error { return e.Err }

// FileWriteError wraps a failure writing an output file.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("failed to write file %q: %v", e.Path, e.Err)
}

func (e *FileWriteError) Code() string  { return CodeFileWrite }
func (e *FileWriteError) Unwrap() error { return e.Err }

// DirectoryReadError wraps a failure listing a directory.
type DirectoryReadError struct {
	Path string
	Err  error
}

func (e *DirectoryReadError) Error() string {
	return fmt.Sprintf("failed to read directory %q: %v", e.Path, e.Err)
}

func (e *DirectoryReadError) Code() string  { return CodeDirectoryRead }
func (e *DirectoryReadError) Unwrap() error { return e.Err }

// DirectoryCreateError wraps a failure creating a directory.
type DirectoryCreateError struct {
	Path string
	Err  error
}

func (e *DirectoryCreateError) Error() string {
	return fmt.Sprintf("failed to create directory %q: %v", e.Path, e.Err)
}

func (e *DirectoryCreateError) Code() string  { return CodeDirectoryCreate }
func (e *DirectoryCreateError) Unwrap() error { return e.Err }
