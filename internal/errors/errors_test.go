package errors

import (
	"fmt"
	"io"
	"testing"
)

func TestNetworkError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  NetworkError
		want string
	}{
		{
			name: "retryable",
			err:  NetworkError{Op: "accept", Addr: ":2121", Err: io.EOF, Retryable: true},
			want: "accept :2121: EOF (retryable)",
		},
		{
			name: "non-retryable",
			err:  NetworkError{Op: "listen", Addr: ":2121", Err: fmt.Errorf("bind failed")},
			want: "listen :2121: bind failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	err := &NetworkError{Op: "accept", Addr: "x", Err: io.EOF}
	if !Is(err, io.EOF) {
		t.Error("should unwrap to io.EOF")
	}
}

func TestSessionError_Format(t *testing.T) {
	err := WrapSession(12, "10.0.0.9:40112", "process", fmt.Errorf("boom"))
	want := "session 12 (10.0.0.9:40112) process: boom"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSessionError_Unwrap(t *testing.T) {
	err := WrapSession(1, "x", "process", fmt.Errorf("wrapped: %w", ErrUserBlocked))
	if !IsBlocked(err) {
		t.Error("should unwrap to ErrUserBlocked")
	}
	if Is(err, ErrSessionEnd) {
		t.Error("should not match ErrSessionEnd")
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err: ConfigError{
				Field:   "idle-timeout",
				Value:   -3,
				Message: "must be positive",
				Hint:    "use a number of seconds such as 300",
			},
			want: "config: --idle-timeout=-3: must be positive\n  hint: use a number of seconds such as 300",
		},
		{
			name: "missing value no hint",
			err: ConfigError{
				Field:   "listen",
				Message: "address is required",
			},
			want: "config: --listen: address is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	inner := fmt.Errorf("too many open files")
	err := Wrap("accept", "0.0.0.0:2121", inner)

	if err.Op != "accept" || err.Addr != "0.0.0.0:2121" {
		t.Errorf("wrong fields: Op=%q Addr=%q", err.Op, err.Addr)
	}
	if !Is(err, inner) {
		t.Error("should unwrap to inner error")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"retryable network", &NetworkError{Op: "accept", Addr: "x", Err: io.EOF, Retryable: true}, true},
		{"non-retryable network", &NetworkError{Op: "accept", Addr: "x", Err: io.EOF, Retryable: false}, false},
		{"plain error", fmt.Errorf("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
