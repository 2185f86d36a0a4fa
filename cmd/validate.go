package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mtb-build/mtb/internal/compiler"
	"github.com/mtb-build/mtb/internal/config"
	"github.com/mtb-build/mtb/internal/registry"
	"github.com/mtb-build/mtb/internal/scanner"
	"github.com/mtb-build/mtb/internal/tags"
)

// validationReport is the result of `mtb validate`.
type validationReport struct {
	Valid        bool                     `json:"valid"`
	Config       *config.ValidationResult `json:"config"`
	Components   int                      `json:"components"`
	Pages        int                      `json:"pages"`
	Missing      map[string][]string      `json:"missing_references,omitempty"`
	PageMissing  map[string][]string      `json:"page_missing_references,omitempty"`
	Cycles       [][]string               `json:"circular_references,omitempty"`
	ScanFailures []string                 `json:"scan_errors,omitempty"`
}

func newValidateCommand(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check configuration, references and cycles without building",
		Long: `Validate the configuration, then scan components and pages and report
references to unknown components and circular references between components.
Nothing is written. Exits with status 1 when a problem is found.

Examples:
  mtb validate
  mtb validate -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			report := &validationReport{Config: config.ValidateConfigWithDetails(cfg)}

			reg := registry.NewComponentRegistry(logger)
			componentScanner := scanner.NewComponentScanner(reg, logger)
			defer componentScanner.Close()

			names, err := componentScanner.ScanComponents(cmd.Context(), cfg.Directories.Components)
			if err != nil {
				report.ScanFailures = append(report.ScanFailures, err.Error())
			}
			report.Components = len(names)

			pages := compiler.NewPageSet()
			if _, err := componentScanner.LoadPages(cmd.Context(), cfg.Directories.Pages, pages); err != nil {
				report.ScanFailures = append(report.ScanFailures, err.Error())
			}
			report.Pages = pages.Count()

			analyzer := registry.NewDependencyAnalyzer(reg)
			report.Missing = analyzer.FindMissingReferences()
			report.Cycles = analyzer.DetectCircularDependencies()
			report.PageMissing = pageMissingReferences(pages, reg)

			report.Valid = !report.Config.HasErrors() &&
				len(report.ScanFailures) == 0 &&
				len(report.Missing) == 0 &&
				len(report.PageMissing) == 0 &&
				len(report.Cycles) == 0

			if strings.EqualFold(format, "json") {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				writeValidationText(cmd.OutOrStdout(), report)
			}

			if !report.Valid {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}

	addFormatFlag(cmd, &format, validateFormats)

	return cmd
}

// pageMissingReferences maps each page to the names it references that are
// not registered.
func pageMissingReferences(pages *compiler.PageSet, reg *registry.ComponentRegistry) map[string][]string {
	missing := make(map[string][]string)
	for _, name := range pages.Names() {
		body, _ := pages.Get(name)
		for _, ref := range tags.Names(body) {
			if !reg.Has(ref) {
				missing[name] = append(missing[name], ref)
			}
		}
	}
	return missing
}

func writeValidationText(w io.Writer, report *validationReport) {
	if report.Config.HasErrors() || report.Config.HasWarnings() {
		fmt.Fprint(w, report.Config.String())
	}

	for _, failure := range report.ScanFailures {
		fmt.Fprintf(w, "scan error: %s\n", failure)
	}
	writeMissing(w, "component", report.Missing)
	writeMissing(w, "page", report.PageMissing)
	for _, cycle := range report.Cycles {
		fmt.Fprintf(w, "circular reference: %s\n", strings.Join(cycle, " -> "))
	}

	status := "OK"
	if !report.Valid {
		status = "FAILED"
	}
	fmt.Fprintf(w, "%s: %d components, %d pages\n", status, report.Components, report.Pages)
}

func writeMissing(w io.Writer, kind string, missing map[string][]string) {
	owners := make([]string, 0, len(missing))
	for owner := range missing {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	for _, owner := range owners {
		fmt.Fprintf(w, "%s %s references unknown component(s): %s\n", kind, owner, strings.Join(missing[owner], ", "))
	}
}
