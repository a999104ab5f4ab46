package errors

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

// ErrorWrapper tags failures of one component operation, such as the digest
// run or a chat turn, with a message that is safe to show staff or parents.
type ErrorWrapper struct {
	module    string
	operation string
	fields    map[string]string
}

// NewWrapper returns a wrapper for operation in module.
func NewWrapper(module, operation string) *ErrorWrapper {
	return &ErrorWrapper{module: module, operation: operation}
}

// With returns a copy of w that also records key=value, e.g. the digest day
// or the reply language. The receiver is unchanged.
func (w *ErrorWrapper) With(key, value string) *ErrorWrapper {
	fields := maps.Clone(w.fields)
	if fields == nil {
		fields = make(map[string]string, 1)
	}
	fields[key] = value
	return &ErrorWrapper{module: w.module, operation: w.operation, fields: fields}
}

// Wrap returns nil for a nil err.
func (w *ErrorWrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Module:      w.module,
		Operation:   w.operation,
		Fields:      maps.Clone(w.fields),
		Cause:       err,
		UserMessage: userMessage,
	}
}

// WrappedError carries the failing operation, its context and the cause.
type WrappedError struct {
	Module      string // "chat", "digest"
	Operation   string // "handle", "run"
	Fields      map[string]string
	Cause       error
	UserMessage string
}

// Error renders "module.operation [k=v ...]: message: cause" with fields
// sorted by key.
func (e *WrappedError) Error() string {
	var b strings.Builder
	b.WriteString(e.Module)
	b.WriteByte('.')
	b.WriteString(e.Operation)
	if len(e.Fields) > 0 {
		b.WriteString(" [")
		for i, k := range slices.Sorted(maps.Keys(e.Fields)) {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(k + "=" + e.Fields[k])
		}
		b.WriteByte(']')
	}
	b.WriteString(": " + e.UserMessage + ": " + e.Cause.Error())
	return b.String()
}

func (e *WrappedError) Unwrap() error { return e.Cause }

// GetUserMessage returns the message of the outermost WrappedError in the
// chain, or err's own text.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var wrapped *WrappedError
	if errors.As(err, &wrapped) {
		return wrapped.UserMessage
	}
	return err.Error()
}
