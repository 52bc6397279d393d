package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeAuthentication ErrorType = "Authentication"
	ErrorTypeConfiguration  ErrorType = "Configuration"
	ErrorTypeService        ErrorType = "Service"
	ErrorTypeStorage        ErrorType = "Storage"
	ErrorTypeNetwork        ErrorType = "Network"
	ErrorTypePermission     ErrorType = "Permission"
	ErrorTypeValidation     ErrorType = "Validation"
	ErrorTypeNotFound       ErrorType = "NotFound"
)

// Service names the backend an error came from
type Service string

const (
	ServiceIdentityStore Service = "IdentityStore"
	ServiceSSOAdmin      Service = "SSOAdmin"
	ServiceOrganizations Service = "Organizations"
	ServiceS3            Service = "S3"
	ServiceSTS           Service = "STS"
	ServiceLocal         Service = "Local"
	ServiceUnknown       Service = "Unknown"
)

// IDCError represents a user-facing error with actionable guidance
type IDCError struct {
	Type        ErrorType
	Service     Service
	Message     string
	Cause       string
	Solutions   []string
	Verify      string
	Help        string
	Environment string
	Err         error
}

// Error implements the error interface
func (e *IDCError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\nError: %s\n", e.Message))

	if e.Cause != "" {
		sb.WriteString(fmt.Sprintf("Cause: %s\n", e.Cause))
	}

	if e.Environment != "" {
		sb.WriteString(fmt.Sprintf("Environment: %s\n", e.Environment))
	}

	if len(e.Solutions) > 0 {
		sb.WriteString("\nSolutions:\n")
		for _, solution := range e.Solutions {
			sb.WriteString(fmt.Sprintf("  %s\n", solution))
		}
	}

	if e.Verify != "" {
		sb.WriteString(fmt.Sprintf("\nVerify: %s\n", e.Verify))
	}

	if e.Help != "" {
		sb.WriteString(fmt.Sprintf("Help: %s\n", e.Help))
	}

	return sb.String()
}

// Unwrap returns the underlying error, if any
func (e *IDCError) Unwrap() error {
	return e.Err
}

// Format implements fmt.Formatter for custom formatting
func (e *IDCError) Format(f fmt.State, verb rune) {
	switch verb {
	case 's':
		fmt.Fprintf(f, "%s", e.Error())
	case 'v':
		if f.Flag('+') {
			fmt.Fprintf(f, "[%s/%s] %s", e.Type, e.Service, e.Error())
		} else {
			fmt.Fprintf(f, "%s", e.Error())
		}
	}
}

// New creates a new IDCError
func New(errType ErrorType, service Service, message string) *IDCError {
	return &IDCError{
		Type:        errType,
		Service:     service,
		Message:     message,
		Environment: detectEnvironment(),
	}
}

// Wrap creates an IDCError around err, using err as the cause
func Wrap(err error, errType ErrorType, service Service, message string) *IDCError {
	e := New(errType, service, message)
	e.Err = err
	if err != nil {
		e.Cause = err.Error()
	}
	return e
}

// WithCause adds cause information
func (e *IDCError) WithCause(cause string) *IDCError {
	e.Cause = cause
	return e
}

// WithSolutions adds solution steps
func (e *IDCError) WithSolutions(solutions ...string) *IDCError {
	e.Solutions = append(e.Solutions, solutions...)
	return e
}

// WithVerify adds verification command
func (e *IDCError) WithVerify(verify string) *IDCError {
	e.Verify = verify
	return e
}

// WithHelp adds help command
func (e *IDCError) WithHelp(help string) *IDCError {
	e.Help = help
	return e
}

// detectEnvironment detects the current environment
func detectEnvironment() string {
	ciVars := []string{"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_HOME", "CODEBUILD_BUILD_ID"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return "CI/CD detected"
		}
	}

	if os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "AWS managed runtime detected"
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "Container environment detected"
	}

	if os.Getenv("AWS_CLOUDSHELL_HOME") != "" {
		return "CloudShell detected"
	}

	return "Development workstation detected"
}

// IsUserError checks if error requires user action
func IsUserError(err error) bool {
	var idcErr *IDCError
	return stderrors.As(err, &idcErr)
}

// GetExitCode returns appropriate exit code for error type
func GetExitCode(err error) int {
	var idcErr *IDCError
	if !stderrors.As(err, &idcErr) {
		return 1 // Generic error
	}

	switch idcErr.Type {
	case ErrorTypeAuthentication:
		return 77 // EX_NOPERM
	case ErrorTypeConfiguration:
		return 78 // EX_CONFIG
	case ErrorTypePermission:
		return 77 // EX_NOPERM
	case ErrorTypeStorage:
		return 74 // EX_IOERR
	case ErrorTypeNotFound:
		return 66 // EX_NOINPUT
	case ErrorTypeValidation:
		return 65 // EX_DATAERR
	case ErrorTypeNetwork, ErrorTypeService:
		return 69 // EX_UNAVAILABLE
	default:
		return 1
	}
}
