package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ RESOURCE NOT FOUND: Dumy
//	   Cannot find resource 'Dumy'.
//
//	   Did you mean: Dummy?
//
//	   → See all resources: filterkit resources
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var attr color.Attribute
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		attr, symbol = color.FgYellow, "⚠️"
	case ErrorLevelInfo:
		attr, symbol = color.FgCyan, "ℹ️"
	default:
		attr, symbol = color.FgRed, "❌"
	}
	header := style(opts.NoColor, attr, color.Bold)
	body := style(opts.NoColor, attr)

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
		if opts.Problem != "" {
			body.Fprintf(&b, "   %s\n", opts.Problem)
		}
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		body.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		style(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := style(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return style(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// ResourceNotFoundError reports an unknown resource with the closest known names
func ResourceNotFoundError(resourceName string, known []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "RESOURCE NOT FOUND",
		Problem:     fmt.Sprintf("Cannot find resource '%s'.", resourceName),
		Suggestions: FindSimilar(resourceName, known, nil),
		HelpCommands: []string{
			"See all resources: filterkit resources",
		},
		NoColor: noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "CONFIGURATION ERROR",
		Problem: message,
		HelpCommands: []string{
			"Point at a config file: filterkit --config path/to/filterkit.yaml",
			"Get help: filterkit --help",
		},
		NoColor: noColor,
	})
}

// ConnectionError reports a database that could not be reached
func ConnectionError(backend, message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "CONNECTION FAILED",
		Problem:     message,
		Consequence: fmt.Sprintf("No %s query was run.", backend),
		HelpCommands: []string{
			"Inspect the query instead: filterkit explain",
		},
		NoColor: noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: message,
		NoColor: noColor,
	})
}
