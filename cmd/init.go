package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mtb-build/mtb/internal/config"
	"github.com/mtb-build/mtb/internal/logging"
	"github.com/mtb-build/mtb/internal/scaffolding"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	var (
		wizard bool
		force  bool
	)

	cmd := &cobra.Command{
		Use:     "init [dir]",
		Aliases: []string{"i"},
		Short:   "Create a new mtb project",
		Long: `Create the source directories, an mtb.config.yaml, two sample components
(Hero and ui/Button) and an index page. The directory defaults to the current
one and is created if missing.

Examples:
  mtb init               # In the current directory
  mtb init my-site       # In ./my-site
  mtb init --wizard      # Choose directories and server settings interactively`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			cfg := config.Default()
			if wizard {
				var err error
				cfg, err = config.NewConfigWizard(cmd.InOrStdin(), cmd.OutOrStdout()).Run()
				if err != nil {
					return err
				}
			}

			logger := logging.NewNopLogger()
			if opts.verbose {
				logger = logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelDebug, Output: cmd.ErrOrStderr()})
			}

			result, err := scaffolding.InitProject(cmd.Context(), scaffolding.InitOptions{
				Dir:    dir,
				Config: cfg,
				Force:  force,
			}, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initialized mtb project in %s\n", result.Root)
			for _, file := range result.Created {
				fmt.Fprintf(out, "  created %s\n", relTo(result.Root, file))
			}
			for _, file := range result.Skipped {
				fmt.Fprintf(out, "  kept    %s\n", relTo(result.Root, file))
			}
			fmt.Fprintln(out, "\nNext: mtb serve")
			return nil
		},
	}

	cmd.Flags().BoolVar(&wizard, "wizard", false, "configure the project interactively")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file and sample files")

	return cmd
}

func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
