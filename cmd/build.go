package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtb-build/mtb/internal/build"
	"github.com/mtb-build/mtb/internal/errors"
)

func newBuildCommand(opts *rootOptions) *cobra.Command {
	var (
		output string
		clean  bool
	)

	cmd := &cobra.Command{
		Use:     "build",
		Aliases: []string{"b"},
		Short:   "Compile every page into the output directory",
		Long: `Scan the components directory, compile every page in the pages directory
and write the results to the output directory. Assets are copied alongside.

Every page is attempted; failures are reported together and the command exits
with status 1 if any page failed.

Examples:
  mtb build                  # Build with settings from mtb.config.yaml
  mtb build --output dist    # Write to dist/
  mtb build --clean          # Empty the output directory first`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Directories.Output = output
			}

			if clean {
				if err := build.Clean(cfg.Directories.Output); err != nil {
					return fmt.Errorf("failed to clean output directory: %w", err)
				}
			}

			builder := build.New(cfg, nil, logger, nil)
			defer builder.Close()

			result, err := builder.Build(cmd.Context())
			printBuildResult(cmd.OutOrStdout(), result, cfg.Directories.Output)
			if err != nil {
				printBuildFailures(cmd.ErrOrStderr(), result, err)
				return fmt.Errorf("build failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (overrides directories.output)")
	cmd.Flags().BoolVar(&clean, "clean", false, "remove the output directory contents before building")

	return cmd
}

func printBuildResult(w io.Writer, result *build.Result, outputDir string) {
	if result == nil {
		return
	}
	fmt.Fprintf(w, "Built %d/%d pages from %d components into %s (%d assets) in %s\n",
		result.PagesWritten, result.Pages, result.Components, outputDir, result.AssetsCopied,
		result.Duration.Round(time.Microsecond))
}

// printBuildFailures lists per-page failures, or err itself when the build
// stopped before compiling.
func printBuildFailures(w io.Writer, result *build.Result, err error) {
	if result == nil || len(result.Failures) == 0 {
		if code := errors.Code(err); code != "" {
			fmt.Fprintf(w, "Error [%s]: %v\n", code, err)
		} else {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
		return
	}

	fmt.Fprintf(w, "%d page(s) failed:\n", len(result.Failures))
	for _, failure := range result.Failures {
		fmt.Fprintf(w, "  %s [%s]: %v\n", failure.Page, errors.Code(failure.Err), failure.Err)
	}
}
