package server

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/mtb-build/mtb/internal/errors"
)

// BuildFailure is one entry of the error overlay.
type BuildFailure struct {
	Page    string
	Code    string
	Message string
}

func failuresFrom(failures []errors.PageFailure, err error) []BuildFailure {
	out := make([]BuildFailure, 0, len(failures)+1)
	for _, f := range failures {
		out = append(out, BuildFailure{Page: f.Page, Code: errors.Code(f.Err), Message: f.Err.Error()})
	}
	if len(out) == 0 && err != nil {
		out = append(out, BuildFailure{Code: errors.Code(err), Message: err.Error()})
	}
	return out
}

// ErrorOverlay renders the page shown in place of the site while the last
// build is failing.
func ErrorOverlay(failures []BuildFailure) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, overlayHead); err != nil {
			return err
		}

		heading := "Build failed"
		if len(failures) > 1 {
			heading = fmt.Sprintf("Build failed: %d errors", len(failures))
		}
		if _, err := fmt.Fprintf(w, "<h1>%s</h1>\n<ul>\n", templ.EscapeString(heading)); err != nil {
			return err
		}

		for _, f := range failures {
			if _, err := io.WriteString(w, "<li>"); err != nil {
				return err
			}
			if f.Page != "" {
				if _, err := fmt.Fprintf(w, `<span class="page">%s</span> `, templ.EscapeString(f.Page)); err != nil {
					return err
				}
			}
			if f.Code != "" {
				if _, err := fmt.Fprintf(w, `<span class="code">%s</span>`, templ.EscapeString(f.Code)); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "<pre>%s</pre></li>\n", templ.EscapeString(f.Message)); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</ul>\n<p>Fix the error and save; this page reloads automatically.</p>\n"+ReloadScript+"\n</body>\n</html>\n")
		return err
	})
}

const overlayHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>mtb: build failed</title>
<style>
body { margin: 0; padding: 2rem; background: #1e1e1e; color: #eee; font-family: ui-monospace, monospace; }
h1 { color: #ff6b6b; font-size: 1.4rem; }
ul { list-style: none; padding: 0; }
li { margin-bottom: 1.2rem; }
.page { color: #ffd166; font-weight: bold; }
.code { color: #8ecae6; }
pre { white-space: pre-wrap; background: #2b2b2b; padding: 0.8rem; border-left: 3px solid #ff6b6b; }
</style>
</head>
<body>
`
