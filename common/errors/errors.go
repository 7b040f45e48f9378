// Package errors is netsim's drop-in replacement for Golang's lib 'errors',
// adapted from the reference stack's common/errors package: every netsim
// package that wants structured, severity-tagged errors defines a file-local
//
//	func newError(msg ...interface{}) *errors.Error { return errors.New(msg...) }
//
// (the reference stack generates this alias with `go:generate errorgen`;
// code generation is out of scope here so it is written by hand per package).
package errors

import (
	"runtime"
	"strings"

	"github.com/canndrew/netsim-sub001/common/log"
)

const trim = len("github.com/canndrew/netsim-sub001/")

type hasInnerError interface {
	Unwrap() error
}

type hasSeverity interface {
	Severity() log.Severity
}

// Error is an error object with an optional underlying error and severity.
type Error struct {
	prefix   []interface{}
	message  []interface{}
	caller   string
	inner    error
	severity log.Severity
}

// Error implements error.Error().
func (err *Error) Error() string {
	var b strings.Builder
	for _, p := range err.prefix {
		b.WriteByte('[')
		b.WriteString(toString(p))
		b.WriteString("] ")
	}
	if len(err.caller) > 0 {
		b.WriteString(err.caller)
		b.WriteString(": ")
	}
	b.WriteString(concat(err.message...))
	if err.inner != nil {
		b.WriteString(" > ")
		b.WriteString(err.inner.Error())
	}
	return b.String()
}

// Unwrap implements hasInnerError.
func (err *Error) Unwrap() error {
	return err.inner
}

// Base attaches an underlying cause to this error.
func (err *Error) Base(e error) *Error {
	err.inner = e
	return err
}

// WithPrefix tags the error with an extra bracketed prefix (e.g. a machine
// or spawn ID), printed before the message.
func (err *Error) WithPrefix(p interface{}) *Error {
	err.prefix = append(err.prefix, p)
	return err
}

func (err *Error) atSeverity(s log.Severity) *Error {
	err.severity = s
	return err
}

// Severity returns the effective severity, propagated from the innermost
// error if it is more severe than this one.
func (err *Error) Severity() log.Severity {
	if err.inner == nil {
		return err.severity
	}
	if s, ok := err.inner.(hasSeverity); ok {
		if as := s.Severity(); as < err.severity {
			return as
		}
	}
	return err.severity
}

// AtDebug sets the severity to debug.
func (err *Error) AtDebug() *Error { return err.atSeverity(log.SeverityDebug) }

// AtInfo sets the severity to info.
func (err *Error) AtInfo() *Error { return err.atSeverity(log.SeverityInfo) }

// AtWarning sets the severity to warning.
func (err *Error) AtWarning() *Error { return err.atSeverity(log.SeverityWarning) }

// AtError sets the severity to error.
func (err *Error) AtError() *Error { return err.atSeverity(log.SeverityError) }

// String implements log.Message.
func (err *Error) String() string {
	return err.Error()
}

// WriteToLog records this error through the global log handler at its
// configured severity.
func (err *Error) WriteToLog() {
	log.Record(&log.GeneralMessage{
		Severity: GetSeverity(err),
		Content:  err,
	})
}

// New returns a new error with a message formed from the given arguments.
// It records the calling package's name the way the reference stack's
// errorgen-produced newError() does, via runtime.Caller.
func New(msg ...interface{}) *Error {
	pc, _, _, _ := runtime.Caller(1)
	details := runtime.FuncForPC(pc).Name()
	if len(details) >= trim {
		details = details[trim:]
	}
	if i := strings.Index(details, "."); i > 0 {
		details = details[:i]
	}
	return &Error{
		message:  msg,
		severity: log.SeverityInfo,
		caller:   details,
	}
}

// Cause unwraps err down to its root cause.
func Cause(err error) error {
	if err == nil {
		return nil
	}
	for {
		inner, ok := err.(hasInnerError)
		if !ok {
			return err
		}
		next := inner.Unwrap()
		if next == nil {
			return err
		}
		err = next
	}
}

// GetSeverity returns the effective severity of err, Info if unknown.
func GetSeverity(err error) log.Severity {
	if s, ok := err.(hasSeverity); ok {
		return s.Severity()
	}
	return log.SeverityInfo
}

func toString(v interface{}) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return stringify(v)
}

func concat(parts ...interface{}) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(stringify(p))
	}
	return b.String()
}
