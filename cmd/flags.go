package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Output formats accepted by --format.
var (
	listFormats     = []string{"table", "json", "yaml"}
	validateFormats = []string{"text", "json"}
	versionFormats  = []string{"text", "json", "yaml"}
)

// AddFlagValidation makes flagName reject values validator refuses at parse
// time, so cobra reports them with usage.
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if err := v.validator(val); err != nil {
		return err
	}
	return v.Value.Set(val)
}

// ValidateFormat accepts one of valid, case-insensitively.
func ValidateFormat(format string, valid []string) error {
	for _, f := range valid {
		if strings.EqualFold(format, f) {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q, must be one of: %s", format, strings.Join(valid, ", "))
}

// ValidatePort accepts 1-65535.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}

	return nil
}

func addFormatFlag(cmd *cobra.Command, target *string, valid []string) {
	cmd.Flags().StringVarP(target, "format", "f", valid[0], "output format ("+strings.Join(valid, "|")+")")
	AddFlagValidation(cmd, "format", func(s string) error { return ValidateFormat(s, valid) })
}
