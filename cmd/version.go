package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mtb-build/mtb/internal/version"
)

func newVersionCommand() *cobra.Command {
	var (
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the mtb version, commit, build time, Go version and platform.

Examples:
  mtb version
  mtb version --detailed
  mtb version -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetBuildInfo()
			out := cmd.OutOrStdout()

			switch strings.ToLower(format) {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case "yaml":
				return yaml.NewEncoder(out).Encode(info)
			}

			if detailed {
				_, err := fmt.Fprintln(out, info.String())
				return err
			}
			_, err := fmt.Fprintf(out, "mtb %s\n", info.Short())
			return err
		},
	}

	addFormatFlag(cmd, &format, versionFormats)
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show commit, build time and platform")

	return cmd
}
