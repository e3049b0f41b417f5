package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message", New(ErrCodeInvalidInput, "unknown view %q", "side"), `INVALID_INPUT: unknown view "side"`},
		{"with cause", Wrap(ErrCodeNetwork, errors.New("connection refused"), "GET %s", "/api/graph"), "NETWORK_ERROR: GET /api/graph: connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("save: %w", Wrap(ErrCodeInternal, cause, "write haproxy.cfg"))

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through errors.Is")
	}
	var e *Error
	if !errors.As(err, &e) || e.Message != "write haproxy.cfg" {
		t.Errorf("errors.As = %+v", e)
	}
}

func TestCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"coded", New(ErrCodeFileNotFound, "x"), ErrCodeFileNotFound},
		{"outermost wins", Wrap(ErrCodeNetwork, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeNetwork},
		{"through fmt wrap", fmt.Errorf("load: %w", New(ErrCodeTimeout, "x")), ErrCodeTimeout},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if Is(tt.err, ErrCodeUnauthorized) {
				t.Error("Is(UNAUTHORIZED) = true")
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidConfig, "x"), ExitUsage},
		{New(ErrCodeInvalidInput, "x"), ExitUsage},
		{New(ErrCodeUnauthorized, "x"), ExitAuth},
		{Wrap(ErrCodeTimeout, errors.New("deadline"), "x"), ExitNetwork},
		{New(ErrCodeInternal, "x"), ExitFailure},
		{errors.New("plain"), ExitFailure},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StatusError
		wantMsg  string
		wantCode Code
	}{
		{
			name:     "server error with body",
			err:      &StatusError{Method: "POST", Path: "/api/config", StatusCode: 500, Body: "disk full\n"},
			wantMsg:  "POST /api/config: status 500: disk full",
			wantCode: ErrCodeNetwork,
		},
		{
			name:     "unauthorized",
			err:      &StatusError{Method: "GET", Path: "/api/graph", StatusCode: 401},
			wantMsg:  "GET /api/graph: status 401",
			wantCode: ErrCodeUnauthorized,
		},
		{
			name:     "not found",
			err:      &StatusError{Method: "GET", Path: "/api/graph", StatusCode: 404},
			wantMsg:  "GET /api/graph: status 404",
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "gateway timeout",
			err:      &StatusError{Method: "GET", Path: "/api/config", StatusCode: 504},
			wantMsg:  "GET /api/config: status 504",
			wantCode: ErrCodeTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Code(); got != tt.wantCode {
				t.Errorf("Code() = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"http://localhost:5000", false},
		{"https://lb.example.com/admin", false},
		{"", true},
		{"ftp://lb.example.com", true},
		{"localhost:5000", true},
		{"http://", true},
		{"http://bad host", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("code = %q", GetCode(err))
			}
		})
	}
}
