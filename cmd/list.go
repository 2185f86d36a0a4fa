package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mtb-build/mtb/internal/logging"
	"github.com/mtb-build/mtb/internal/registry"
	"github.com/mtb-build/mtb/internal/scanner"
)

// componentEntry is one row of `mtb list`.
type componentEntry struct {
	Name         string   `json:"name" yaml:"name"`
	Size         int      `json:"size" yaml:"size"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty" yaml:"dependents,omitempty"`
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var (
		format   string
		withDeps bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l", "ls"},
		Short:   "List all discovered components",
		Long: `List every component in the components directory with its size, and
optionally the components it references and is referenced by.

Examples:
  mtb list                # Table
  mtb list -f json        # JSON
  mtb list -d -f yaml     # YAML with dependencies`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			reg, err := scanRegistry(cmd, cfg.Directories.Components, logger)
			if err != nil {
				return err
			}

			entries := componentEntries(reg, withDeps)
			out := cmd.OutOrStdout()

			switch strings.ToLower(format) {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			case "yaml":
				return yaml.NewEncoder(out).Encode(entries)
			default:
				return writeComponentTable(out, entries, withDeps)
			}
		},
	}

	addFormatFlag(cmd, &format, listFormats)
	cmd.Flags().BoolVarP(&withDeps, "with-deps", "d", false, "include dependencies and dependents")

	return cmd
}

// scanRegistry registers every component under dir.
func scanRegistry(cmd *cobra.Command, dir string, logger logging.Logger) (*registry.ComponentRegistry, error) {
	reg := registry.NewComponentRegistry(logger)
	componentScanner := scanner.NewComponentScanner(reg, logger)
	defer componentScanner.Close()

	if _, err := componentScanner.ScanComponents(cmd.Context(), dir); err != nil {
		return nil, err
	}
	return reg, nil
}

func componentEntries(reg *registry.ComponentRegistry, withDeps bool) []componentEntry {
	analyzer := registry.NewDependencyAnalyzer(reg)
	snapshot := reg.Snapshot()

	entries := make([]componentEntry, 0, len(snapshot))
	for _, name := range reg.GetAll() {
		entry := componentEntry{Name: name, Size: len(snapshot[name])}
		if withDeps {
			entry.Dependencies = analyzer.AnalyzeContent(snapshot[name])
			entry.Dependents = analyzer.GetDependents(name)
		}
		entries = append(entries, entry)
	}
	return entries
}

func writeComponentTable(out io.Writer, entries []componentEntry, withDeps bool) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No components found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if withDeps {
		fmt.Fprintln(w, "NAME\tSIZE\tDEPENDENCIES\tDEPENDENTS")
	} else {
		fmt.Fprintln(w, "NAME\tSIZE")
	}

	for _, e := range entries {
		if withDeps {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.Name, e.Size, joinOrDash(e.Dependencies), joinOrDash(e.Dependents))
		} else {
			fmt.Fprintf(w, "%s\t%d\n", e.Name, e.Size)
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\nTotal: %d components\n", len(entries))
	return err
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
