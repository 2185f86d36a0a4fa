package server

import (
	"bytes"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/mtb-build/mtb/internal/build"
	"github.com/mtb-build/mtb/internal/errors"
	"github.com/mtb-build/mtb/internal/registry"
	"github.com/mtb-build/mtb/internal/validation"
)

// ComponentInfo is one entry of /api/components.
type ComponentInfo struct {
	Name         string   `json:"name"`
	Size         int      `json:"size"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
}

// StatusResponse is the body of /api/status.
type StatusResponse struct {
	Status       string            `json:"status"`
	Components   int               `json:"components"`
	Pages        int               `json:"pages"`
	PagesWritten int               `json:"pages_written"`
	AssetsCopied int               `json:"assets_copied"`
	Duration     string            `json:"duration,omitempty"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	Errors       []BuildFailure    `json:"errors,omitempty"`
	Clients      int               `json:"clients"`
	Directories  map[string]string `json:"directories"`
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	reg := s.builder.Registry()
	analyzer := registry.NewDependencyAnalyzer(reg)
	snapshot := reg.Snapshot()

	components := make([]ComponentInfo, 0, len(snapshot))
	for _, name := range reg.GetAll() {
		deps, err := analyzer.GetDependencies(name)
		if err != nil {
			continue
		}
		components = append(components, ComponentInfo{
			Name:         name,
			Size:         len(snapshot[name]),
			Dependencies: nonNil(deps),
			Dependents:   nonNil(analyzer.GetDependents(name)),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"components": components,
		"count":      len(components),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	dirs := s.config.Directories
	resp := StatusResponse{
		Status:  "pending",
		Clients: s.hub.Count(),
		Directories: map[string]string{
			"components": dirs.Components,
			"pages":      dirs.Pages,
			"assets":     dirs.Assets,
			"output":     dirs.Output,
		},
	}

	result, err := s.builder.LastResult()
	if result != nil {
		resp.Status = "ok"
		resp.Components = result.Components
		resp.Pages = result.Pages
		resp.PagesWritten = result.PagesWritten
		resp.AssetsCopied = result.AssetsCopied
		resp.Duration = result.Duration.String()
		resp.StartedAt = &result.StartedAt
	}
	if err != nil {
		resp.Status = "error"
		resp.Errors = failuresFrom(failuresOf(result), err)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleStatic serves the output directory. Extensionless paths resolve to
// the matching .html page, directories to their index.html.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	outputDir := s.config.Directories.Output
	urlPath := path.Clean("/" + r.URL.Path)

	file, err := validation.Sanitize(strings.TrimPrefix(urlPath, "/"), outputDir)
	if err != nil {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	file = resolveFile(file)
	isPage := filepath.Ext(file) == build.OutputExt

	if isPage && s.showOverlay() {
		s.serveOverlay(w, r)
		return
	}

	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	if !isPage || !s.config.Server.LiveReload {
		http.ServeFile(w, r, file)
		return
	}

	content, err := os.ReadFile(file)
	if err != nil {
		http.Error(w, "Failed to read page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, filepath.Base(file), info.ModTime(), bytes.NewReader(InjectScript(content, ReloadScript)))
}

// resolveFile maps a directory to its index page and an extensionless path
// to its page.
func resolveFile(file string) string {
	if info, err := os.Stat(file); err == nil && info.IsDir() {
		return filepath.Join(file, "index"+build.OutputExt)
	}
	if filepath.Ext(file) == "" {
		if _, err := os.Stat(file + build.OutputExt); err == nil {
			return file + build.OutputExt
		}
	}
	return file
}

func (s *Server) showOverlay() bool {
	_, err := s.builder.LastResult()
	return err != nil
}

func (s *Server) serveOverlay(w http.ResponseWriter, r *http.Request) {
	result, err := s.builder.LastResult()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusInternalServerError)

	if renderErr := ErrorOverlay(failuresFrom(failuresOf(result), err)).Render(r.Context(), w); renderErr != nil {
		s.logger.Error(r.Context(), renderErr, "failed to render error overlay")
	}
}

func failuresOf(result *build.Result) []errors.PageFailure {
	if result == nil {
		return nil
	}
	return result.Failures
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
