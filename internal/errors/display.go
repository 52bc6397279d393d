package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// DisplayError formats and displays an error on stderr
func DisplayError(err error) {
	FprintError(os.Stderr, err)
}

// FprintError formats and writes an error to w with type-specific styling
func FprintError(w io.Writer, err error) {
	color.NoColor = colorDisabled()

	var idcErr *IDCError
	if !stderrors.As(err, &idcErr) {
		fmt.Fprintln(w, color.RedString("Error: %v", err))
		return
	}

	colorFunc := getErrorStyle(idcErr.Type)

	fmt.Fprintf(w, "\n%s\n", colorFunc(idcErr.Message))

	if idcErr.Cause != "" {
		fmt.Fprintf(w, "   %s %s\n", color.YellowString("Cause:"), color.HiBlackString(idcErr.Cause))
	}

	if idcErr.Environment != "" {
		fmt.Fprintf(w, "   %s %s\n", color.CyanString("Environment:"), color.HiBlackString(idcErr.Environment))
	}

	if len(idcErr.Solutions) > 0 {
		fmt.Fprintf(w, "\n   %s\n", color.GreenString("Solutions:"))
		for i, solution := range idcErr.Solutions {
			fmt.Fprintf(w, "   %s %s\n", color.HiBlackString(fmt.Sprintf("%d.", i+1)), solution)
		}
	}

	if idcErr.Verify != "" {
		fmt.Fprintf(w, "\n   %s %s\n", color.BlueString("Verify:"), color.HiWhiteString(idcErr.Verify))
	}

	if idcErr.Help != "" {
		fmt.Fprintf(w, "   %s %s\n", color.MagentaString("Help:"), color.HiWhiteString(idcErr.Help))
	}

	fmt.Fprintln(w)
}

// getErrorStyle returns the appropriate color function for an error type
func getErrorStyle(errType ErrorType) func(format string, a ...interface{}) string {
	switch errType {
	case ErrorTypeConfiguration, ErrorTypeValidation:
		return color.YellowString
	case ErrorTypeService:
		return color.CyanString
	case ErrorTypeStorage, ErrorTypeNotFound:
		return color.MagentaString
	default:
		return color.RedString
	}
}

// FormatErrorWithContext formats an error with additional context for CI/CD environments
func FormatErrorWithContext(err error, context map[string]string) string {
	var sb strings.Builder

	var idcErr *IDCError
	if !stderrors.As(err, &idcErr) {
		sb.WriteString(fmt.Sprintf("Error: %v\n", err))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Error: %s\n", idcErr.Message))
	sb.WriteString(fmt.Sprintf("Type: %s/%s\n", idcErr.Type, idcErr.Service))

	if idcErr.Cause != "" {
		sb.WriteString(fmt.Sprintf("Cause: %s\n", idcErr.Cause))
	}

	if len(context) > 0 {
		sb.WriteString("\nContext:\n")
		keys := lo.Keys(context)
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, context[k]))
		}
	}

	if len(idcErr.Solutions) > 0 {
		sb.WriteString("\nSolutions:\n")
		for i, solution := range idcErr.Solutions {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, solution))
		}
	}

	if idcErr.Verify != "" {
		sb.WriteString(fmt.Sprintf("\nVerify: %s\n", idcErr.Verify))
	}

	if idcErr.Help != "" {
		sb.WriteString(fmt.Sprintf("Help: %s\n", idcErr.Help))
	}

	return sb.String()
}

// DisplayWarning shows a warning message with appropriate formatting
func DisplayWarning(message string) {
	color.NoColor = colorDisabled()
	fmt.Fprintf(os.Stderr, "Warning: %s\n", color.YellowString(message))
}

// DisplaySuccess shows a success message with appropriate formatting
func DisplaySuccess(message string) {
	color.NoColor = colorDisabled()
	fmt.Fprintf(os.Stderr, "Success: %s\n", color.GreenString(message))
}

// DisplayInfo shows an info message with appropriate formatting
func DisplayInfo(message string) {
	color.NoColor = colorDisabled()
	fmt.Fprintf(os.Stderr, "Info: %s\n", color.BlueString(message))
}

func colorDisabled() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("IDCVAULT_NO_COLOR") != "" {
		return true
	}
	// Set by --no-color
	return getViperBool("output.no_color")
}

// getViperBool safely gets a boolean value from viper
func getViperBool(key string) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return false
}
