package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mtb-build/mtb/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string      `json:"field"`
	Value       interface{} `json:"value,omitempty"`
	Message     string      `json:"message"`
	Suggestions []string    `json:"suggestions,omitempty"`
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Configuration errors:\n")
		writeIssues(&builder, vr.Errors)
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Configuration warnings:\n")
		writeIssues(&builder, vr.Warnings)
	}

	return builder.String()
}

func writeIssues(builder *strings.Builder, issues []ValidationError) {
	for _, issue := range issues {
		builder.WriteString(fmt.Sprintf("  - %s: %s\n", issue.Field, issue.Message))
		for _, suggestion := range issue.Suggestions {
			builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
		}
	}
}

// ValidateConfigWithDetails performs comprehensive validation with detailed
// feedback. Paths are checked relative to the working directory.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateServerConfigDetails(&config.Server, result)
	validateDirectoriesConfigDetails(&config.Directories, result)
	validateLogConfigDetails(&config.Log, result)

	result.Valid = !result.HasErrors()

	return result
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
				"Port 0 lets the system assign an available port",
			},
		})
	} else if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Consider using a port above 1024 for development",
			},
		})
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.host",
				Value:   config.Host,
				Message: err.Error(),
				Suggestions: []string{
					"Use 'localhost' for local development",
					"Use '0.0.0.0' to bind to all interfaces",
				},
			})
		}
	}

	if config.Host == "0.0.0.0" && len(config.AllowedOrigins) == 0 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.allowed_origins",
			Message: "server binds to all interfaces but live reload only accepts local origins",
			Suggestions: []string{
				"Add the hosts you browse from to server.allowed_origins",
			},
		})
	}

	for _, origin := range config.AllowedOrigins {
		if strings.Contains(origin, "://") {
			if err := validation.ValidateURL(origin); err != nil {
				result.Errors = append(result.Errors, ValidationError{
					Field:   "server.allowed_origins",
					Value:   origin,
					Message: err.Error(),
				})
			}
		}
	}
}

func validateDirectoriesConfigDetails(config *DirectoriesConfig, result *ValidationResult) {
	dirs := []struct {
		field string
		value string
	}{
		{"directories.components", config.Components},
		{"directories.pages", config.Pages},
		{"directories.assets", config.Assets},
		{"directories.output", config.Output},
	}

	for _, dir := range dirs {
		if err := validation.ValidatePath(dir.value); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   dir.field,
				Value:   dir.value,
				Message: err.Error(),
				Suggestions: []string{
					"Use a relative path inside the project, such as 'src/components/'",
					"Avoid parent directory references (..)",
				},
			})
		}
	}

	output := filepath.Clean(config.Output)
	for _, source := range []struct {
		field string
		value string
	}{
		{"directories.components", config.Components},
		{"directories.pages", config.Pages},
		{"directories.assets", config.Assets},
	} {
		if source.value != "" && filepath.Clean(source.value) == output {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "directories.output",
				Value:   config.Output,
				Message: fmt.Sprintf("output directory is the same as %s", source.field),
				Suggestions: []string{
					"Builds clear the output directory; keep it separate from sources",
				},
			})
		}
	}

	if config.Components != "" && !pathExists(config.Components) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "directories.components",
			Value:   config.Components,
			Message: "components directory does not exist yet",
			Suggestions: []string{
				"Run 'mtb init' to create the project structure",
			},
		})
	}

	if config.Pages != "" && !pathExists(config.Pages) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "directories.pages",
			Value:   config.Pages,
			Message: "pages directory does not exist yet",
		})
	}
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	if config.Level != "" && !contains(validLevels, strings.ToLower(config.Level)) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "log.level",
			Value:   config.Level,
			Message: "unknown log level",
			Suggestions: []string{
				"Available levels: debug, info, warn, error",
			},
		})
	}

	validFormats := []string{"text", "json"}
	if config.Format != "" && !contains(validFormats, config.Format) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "log.format",
			Value:   config.Format,
			Message: "unknown log format",
			Suggestions: []string{
				"Available formats: " + strings.Join(validFormats, ", "),
			},
		})
	}
}

// Helper validation functions

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil || host == "localhost" {
		return nil
	}

	if !hostnamePattern.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}

var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
