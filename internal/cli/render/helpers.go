// Package render formats Facade results for chainctl's terminal
// output, following the teacher's internal/cli/render package: color
// via fatih/color, tables via jedib0t/go-pretty.
package render

import (
	"strings"

	"github.com/fatih/color"
)

// FormatWarning formats a warning message with the warning icon, per
// the teacher's render.FormatWarning.
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠ %s", message)
}

// FormatError formats an error message with the error icon.
func FormatError(message string) string {
	msg := message
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return color.New(color.FgRed).Sprintf("✗ %s", msg)
}

// FormatSuccess formats a success message with the success icon.
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✓ %s", message)
}
