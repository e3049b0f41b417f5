// Package errors provides coded errors for haview.
//
// Every failure that reaches the user carries a [Code]: the viewer uses it
// to word status messages and the command line maps it to an exit status
// with [ExitCode]. Causes stay reachable through the standard errors.Is and
// errors.As.
//
//	err := errors.Wrap(errors.ErrCodeNetwork, cause, "GET %s", url)
//	if errors.Is(err, errors.ErrCodeNetwork) {
//	    // offer a retry key
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Code is a machine-readable error category.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"  // bad flag, argument or URL
	ErrCodeInvalidConfig Code = "INVALID_CONFIG" // config.toml or HAVIEW_* value
	ErrCodeInvalidFormat Code = "INVALID_FORMAT" // undecodable response or file
	ErrCodeNotFound      Code = "NOT_FOUND"      // API answered 404
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND" // local haproxy.cfg missing
	ErrCodeNetwork       Code = "NETWORK_ERROR"  // transport failure or non-2xx
	ErrCodeTimeout       Code = "TIMEOUT"
	ErrCodeUnauthorized  Code = "UNAUTHORIZED" // API rejected the credentials
	ErrCodeInternal      Code = "INTERNAL_ERROR"
)

// Error is an error with a code, a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with a formatted message and no cause.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err's outermost *Error has the given code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// Exit statuses returned by ExitCode.
const (
	ExitFailure = 1
	ExitUsage   = 2
	ExitAuth    = 3
	ExitNetwork = 4
)

// ExitCode maps err to a process exit status. Uncoded errors are plain
// failures.
func ExitCode(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidConfig:
		return ExitUsage
	case ErrCodeUnauthorized:
		return ExitAuth
	case ErrCodeNetwork, ErrCodeTimeout, ErrCodeNotFound:
		return ExitNetwork
	default:
		return ExitFailure
	}
}

// StatusError is a non-2xx response of the configuration API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

// Code classifies the response status.
func (e *StatusError) Code() Code {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeUnauthorized
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrCodeTimeout
	}
	return ErrCodeNetwork
}

// ValidateURL checks that rawURL is an absolute http or https URL with a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "parse URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL has no host")
	}
	return nil
}
