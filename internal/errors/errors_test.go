package errors

import (
	"fmt"
	"io/fs"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"invalid name", &InvalidNameError{Name: "a//b"}, CodeInvalidName},
		{"component not found", &ComponentNotFoundError{Name: "Hero"}, CodeComponentNotFound},
		{"page not found", &PageNotFoundError{Page: "index"}, CodePageNotFound},
		{"cycle", &CycleError{Path: []string{"A", "A"}}, CodeCircularReference},
		{"depth", &MaxDepthError{Context: "A", Depth: 11, Limit: 10}, CodeMaxDepthExceeded},
		{"compilation", NewMissingComponentsError("index", []string{"A"}), CodeCompilation},
		{"file read", &FileReadError{Path: "a.html", Err: fs.ErrNotExist}, CodeFileRead},
		{"file write", &FileWriteError{Path: "a.html", Err: fs.ErrPermission}, CodeFileWrite},
		{"dir read", &DirectoryReadError{Path: "src", Err: fs.ErrNotExist}, CodeDirectoryRead},
		{"dir create", &DirectoryCreateError{Path: "out", Err: fs.ErrPermission}, CodeDirectoryCreate},
		{"config", NewConfigError("bad port", nil), CodeInvalidConfig},
		{"wrapped", fmt.Errorf("outer: %w", &PageNotFoundError{Page: "x"}), CodePageNotFound},
		{"plain", New("plain"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, Code(tt.err))
		})
	}
}

func TestCompilationErrorMessage(t *testing.T) {
	t.Run("missing components are listed", func(t *testing.T) {
		err := NewMissingComponentsError("index", []string{"Header", "Footer"})

		assert.Equal(t, []string{"Header", "Footer"}, err.Missing)
		assert.Equal(t, "failed to compile page \"index\":\n  - component \"Header\" not found\n  - component \"Footer\" not found", err.Error())
		assert.False(t, IsFatal(err))
	})

	t.Run("fatal cause is unwrapped", func(t *testing.T) {
		cycle := &CycleError{Path: []string{"A", "B", "A"}}
		err := &CompilationError{Page: "index", Cause: cycle}

		assert.Contains(t, err.Error(), "A -> B -> A")
		assert.True(t, IsFatal(err))

		var target *CycleError
		require.True(t, As(err, &target))
		assert.Equal(t, []string{"A", "B", "A"}, target.Path)
	})

	t.Run("depth is fatal", func(t *testing.T) {
		err := &CompilationError{Page: "index", Cause: &MaxDepthError{Context: "c11", Depth: 11, Limit: 10}}
		assert.True(t, IsFatal(err))
		assert.Contains(t, err.Error(), "c11")
	})
}

func TestFileErrorsUnwrap(t *testing.T) {
	err := &FileReadError{Path: "missing.html", Err: fs.ErrNotExist}

	assert.True(t, Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "missing.html")
}

func TestMtbError(t *testing.T) {
	cause := New("port out of range")
	err := NewConfigError("invalid server config", cause).WithContext("port", 70000)

	assert.Equal(t, "[INVALID_CONFIG] invalid server config: port out of range", err.Error())
	assert.Equal(t, 70000, err.Context["port"])
	assert.True(t, Is(err, cause))
	assert.True(t, Is(err, &MtbError{Type: ErrorTypeConfig, ErrCode: CodeInvalidConfig}))
	assert.False(t, Is(err, &MtbError{Type: ErrorTypeIO, ErrCode: CodeInvalidConfig}))

	assert.Nil(t, Wrap(nil, ErrorTypeIO, CodeFileRead, "read"))
	assert.Equal(t, CodeFileRead, Wrap(cause, ErrorTypeIO, CodeFileRead, "read").Code())
}

func TestErrorCollector(t *testing.T) {
	collector := NewErrorCollector()
	assert.False(t, collector.HasErrors())
	assert.NoError(t, collector.Err())

	collector.AddPage("index", nil)
	collector.AddError(nil)
	assert.False(t, collector.HasErrors())

	collector.AddPage("index", NewMissingComponentsError("index", []string{"Nav"}))
	collector.AddPage("about", &CompilationError{Page: "about", Cause: &CycleError{Path: []string{"A", "A"}}})
	collector.AddError(&FileWriteError{Path: "public/x.html", Err: fs.ErrPermission})

	failures := collector.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "about", failures[0].Page)
	assert.Equal(t, "index", failures[1].Page)
	assert.Len(t, collector.GetAllErrors(), 3)

	err := collector.Err()
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.True(t, Is(err, fs.ErrPermission))

	collector.Clear()
	assert.False(t, collector.HasErrors())
}

func TestErrorCollectorConcurrentAdd(t *testing.T) {
	collector := NewErrorCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			collector.AddPage(fmt.Sprintf("page-%02d", i), &PageNotFoundError{Page: "x"})
		}(i)
	}
	wg.Wait()

	assert.Len(t, collector.Failures(), 50)
}
