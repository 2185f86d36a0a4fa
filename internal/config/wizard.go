package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ConfigWizard asks for the main settings of a new project on an
// interactive terminal. An empty answer keeps the default.
type ConfigWizard struct {
	reader *bufio.Reader
	out    io.Writer
	config *Config
}

// NewConfigWizard creates a wizard reading answers from in and writing
// prompts to out.
func NewConfigWizard(in io.Reader, out io.Writer) *ConfigWizard {
	return &ConfigWizard{
		reader: bufio.NewReader(in),
		out:    out,
		config: Default(),
	}
}

// Run executes the interactive configuration wizard
func (w *ConfigWizard) Run() (*Config, error) {
	fmt.Fprintln(w.out, "mtb configuration")
	fmt.Fprintln(w.out, "=================")
	fmt.Fprintln(w.out)

	w.configureDirectories()

	if err := w.configureServer(); err != nil {
		return nil, fmt.Errorf("server configuration failed: %w", err)
	}

	w.config.Log.Level = w.askChoice("Log level", []string{"debug", "info", "warn", "error"}, w.config.Log.Level)

	if err := validateConfig(w.config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return w.config, nil
}

func (w *ConfigWizard) configureDirectories() {
	fmt.Fprintln(w.out, "Directories")
	fmt.Fprintln(w.out, "-----------")

	dirs := &w.config.Directories
	dirs.Components = w.askString("Components directory", dirs.Components)
	dirs.Pages = w.askString("Pages directory", dirs.Pages)
	dirs.Assets = w.askString("Assets directory", dirs.Assets)
	dirs.Output = w.askString("Output directory", dirs.Output)

	fmt.Fprintln(w.out)
}

func (w *ConfigWizard) configureServer() error {
	fmt.Fprintln(w.out, "Development server")
	fmt.Fprintln(w.out, "------------------")

	port, err := w.askInt("Server port", w.config.Server.Port, 1, 65535)
	if err != nil {
		return err
	}
	w.config.Server.Port = port
	w.config.Server.Host = w.askString("Server host", w.config.Server.Host)
	w.config.Server.LiveReload = w.askBool("Reload the browser after each build", w.config.Server.LiveReload)
	w.config.Server.Open = w.askBool("Open the browser on start", w.config.Server.Open)

	fmt.Fprintln(w.out)
	return nil
}

// Helper methods for user interaction

func (w *ConfigWizard) readLine() (string, bool) {
	input, err := w.reader.ReadString('\n')
	if err != nil && input == "" {
		return "", false
	}
	return strings.TrimSpace(input), true
}

func (w *ConfigWizard) askString(prompt, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprintf(w.out, "%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Fprintf(w.out, "%s: ", prompt)
	}

	input, ok := w.readLine()
	if !ok || input == "" {
		return defaultValue
	}
	return input
}

func (w *ConfigWizard) askInt(prompt string, defaultValue, min, max int) (int, error) {
	for {
		fmt.Fprintf(w.out, "%s [%d]: ", prompt, defaultValue)

		input, ok := w.readLine()
		if !ok || input == "" {
			return defaultValue, nil
		}

		value, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintf(w.out, "Invalid number. Please enter a number between %d and %d.\n", min, max)
			continue
		}

		if value < min || value > max {
			fmt.Fprintf(w.out, "Number out of range. Please enter a number between %d and %d.\n", min, max)
			continue
		}

		return value, nil
	}
}

func (w *ConfigWizard) askBool(prompt string, defaultValue bool) bool {
	defaultStr := "n"
	if defaultValue {
		defaultStr = "y"
	}

	fmt.Fprintf(w.out, "%s [%s]: ", prompt, defaultStr)

	input, ok := w.readLine()
	if !ok || input == "" {
		return defaultValue
	}

	input = strings.ToLower(input)
	return input == "y" || input == "yes" || input == "true"
}

func (w *ConfigWizard) askChoice(prompt string, choices []string, defaultValue string) string {
	for {
		fmt.Fprintf(w.out, "%s [%s] (options: %s): ", prompt, defaultValue, strings.Join(choices, ", "))

		input, ok := w.readLine()
		if !ok || input == "" {
			return defaultValue
		}

		for _, choice := range choices {
			if strings.EqualFold(input, choice) {
				return choice
			}
		}

		fmt.Fprintf(w.out, "Invalid choice. Please select from: %s\n", strings.Join(choices, ", "))
	}
}
