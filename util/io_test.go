package util

import (
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHarmless(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"eof", io.EOF, true},
		{"closed", net.ErrClosed, true},
		{"wrapped closed", fmt.Errorf("read: %w", net.ErrClosed), true},
		{"reset", &net.OpError{Op: "read", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, true},
		{"unexpected eof", io.ErrUnexpectedEOF, false},
		{"deadline", os.ErrDeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHarmless(tt.err))
		})
	}
}

func TestIsDeadline(t *testing.T) {
	assert.True(t, IsDeadline(&net.OpError{Op: "read", Err: os.ErrDeadlineExceeded}))
	assert.False(t, IsDeadline(io.EOF))
}

func TestCloseQuietly(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	assert.NoError(t, CloseQuietly(a))
	assert.NoError(t, CloseQuietly(a), "second close must be tolerated")
	assert.NoError(t, CloseQuietly(nil))
}
