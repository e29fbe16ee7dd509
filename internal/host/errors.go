package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Host diagnostic identifiers.
const (
	CodeEndOfFile       = "CPF5001"
	CodeRecordNotFound  = "CPF5006"
	CodeFileNotFound    = "CPF4101"
	CodeFileInUse       = "CPF4128"
	CodeDuplicateKey    = "CPF5026"
	CodeNoCurrentRecord = "CPF5013"
	CodeNotKeyed        = "CPF5034"
	CodeModeViolation   = "CPF5149"
	CodeBadRecord       = "CPF5029"
	CodeFileExists      = "CPF7302"
)

var (
	// ErrState reports a call made in the wrong session state.
	ErrState = errors.New("invalid session state")
	// ErrInterrupted reports a round trip that was cancelled before the host answered.
	ErrInterrupted = errors.New("host round trip interrupted")
	// ErrSecurity reports a rejected credential or authority.
	ErrSecurity = errors.New("host security failure")
)

// Error is a failure reported by the host, identified by one or more
// diagnostic IDs.
type Error struct {
	IDs []string
	Msg string
}

func NewError(msg string, ids ...string) *Error {
	return &Error{IDs: ids, Msg: msg}
}

func (e *Error) Error() string {
	if len(e.IDs) == 0 {
		return "host: " + e.Msg
	}
	return fmt.Sprintf("host %s: %s", strings.Join(e.IDs, ","), e.Msg)
}

func (e *Error) Has(id string) bool {
	for _, v := range e.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is the host saying "no such record" or
// "end of file". Those are answers, not failures.
func IsNotFound(err error) bool {
	var he *Error
	if !errors.As(err, &he) {
		return false
	}
	return he.Has(CodeRecordNotFound) || he.Has(CodeEndOfFile)
}

// Interrupted wraps a context error as ErrInterrupted.
func Interrupted(err error) error {
	return fmt.Errorf("%w: %v", ErrInterrupted, err)
}

// CheckContext returns ErrInterrupted once ctx is done.
func CheckContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return Interrupted(err)
	}
	return nil
}
