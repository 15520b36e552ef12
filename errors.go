package kvtx

import (
	"fmt"

	"github.com/pkg/errors"
)

// TableError decorates a failure with the table (and, where relevant, key)
// it occurred on. There is no bucket or key-encoding concept to describe
// here, since rows live in memory as plain values.
type TableError struct {
	Table string
	Key   any
	Msg   string
	Err   error
}

func tableErrf(table string, key any, err error, format string, args ...any) error {
	return &TableError{Table: table, Key: key, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *TableError) Unwrap() error { return e.Err }

func (e *TableError) Error() string {
	s := e.Table
	if e.Key != nil {
		s += fmt.Sprintf("/%v", e.Key)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// CallbackFailure wraps a transaction callback's recovered panic. A plain
// returned error passes through Read/Write/ReadErr/WriteErr untouched;
// only the panic case gets wrapped, with a Panicked() method and a
// pkg/errors stack trace attached.
type CallbackFailure struct {
	Err      error
	panicked bool
}

func callbackPanic(p any) error {
	var err error
	if e, ok := p.(error); ok {
		err = errors.Wrap(e, "panic in transaction callback")
	} else {
		err = errors.Errorf("panic in transaction callback: %v", p)
	}
	return &CallbackFailure{Err: err, panicked: true}
}

func (e *CallbackFailure) Error() string { return e.Err.Error() }
func (e *CallbackFailure) Unwrap() error { return e.Err }

// Panicked reports whether the callback failed via a panic, as opposed to a
// plain returned error.
func (e *CallbackFailure) Panicked() bool { return e.panicked }
