package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mtb-build/mtb/internal/scaffolding"
)

func newNewCommand(opts *rootOptions) *cobra.Command {
	var (
		template      string
		force         bool
		listTemplates bool
	)

	cmd := &cobra.Command{
		Use:     "new <name>",
		Aliases: []string{"n", "generate"},
		Short:   "Create a component file",
		Long: `Create <components>/<name>.html from a template. Names may be namespaced
with slashes; intermediate directories are created.

Examples:
  mtb new Card
  mtb new ui/inputs/TextInput --template card
  mtb new --list-templates`,
		Args: func(cmd *cobra.Command, args []string) error {
			if listTemplates {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			generator := scaffolding.NewComponentGenerator(cfg.Directories.Components, logger)
			out := cmd.OutOrStdout()

			if listTemplates {
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TEMPLATE\tCATEGORY\tPROPS\tDESCRIPTION")
				for _, t := range generator.ListTemplates() {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", t.Name, t.Category, t.Parameters, t.Description)
				}
				return w.Flush()
			}

			file, err := generator.Generate(cmd.Context(), scaffolding.GenerateOptions{
				Name:     args[0],
				Template: template,
				Force:    force,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Created %s (use it with {{%s}})\n", file, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", scaffolding.DefaultTemplate, "component template")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing component")
	cmd.Flags().BoolVar(&listTemplates, "list-templates", false, "list available templates")

	return cmd
}
