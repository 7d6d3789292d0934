// Package report turns errors caught at the dispatch boundary into the text
// and label of an error-report view.
package report

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// KindPanic labels reports of recovered panics.
const KindPanic = "panic"

// Kinder is implemented by errors that name their own kind.
type Kinder interface {
	Kind() string
}

// Detailer is implemented by errors carrying extra report text, such as the
// output of a failed shell command.
type Detailer interface {
	Detail() string
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
	Stack []byte
}

// NewPanicError captures the current goroutine's stack.
func NewPanicError(v any) *PanicError {
	stack := make([]byte, 4096)
	n := runtime.Stack(stack, false)
	return &PanicError{Value: v, Stack: stack[:n]}
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("%v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Kind implements Kinder.
func (e *PanicError) Kind() string { return KindPanic }

// Detail implements Detailer.
func (e *PanicError) Detail() string { return string(e.Stack) }

// Kind returns the kind of err. The first error in the chain with a Kind
// method decides. Otherwise it is the Go type of the outermost error that is
// not a plain fmt wrapper, such as "fs.PathError". Errors made by errors.New
// report "error".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var k Kinder
	if errors.As(err, &k) {
		if kind := k.Kind(); kind != "" {
			return kind
		}
	}

	for e := err; e != nil; e = unwrapFirst(e) {
		name := typeName(e)
		if isWrapper(name) {
			continue
		}
		if name == "errors.errorString" {
			return "error"
		}
		return name
	}
	return "error"
}

// unwrapFirst follows single and multi-error wrappers, taking the first
// branch of the latter.
func unwrapFirst(err error) error {
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return u.Unwrap()
	case interface{ Unwrap() []error }:
		if errs := u.Unwrap(); len(errs) > 0 {
			return errs[0]
		}
	}
	return nil
}

func typeName(err error) string {
	return strings.TrimLeft(reflect.TypeOf(err).String(), "*")
}

func isWrapper(name string) bool {
	switch name {
	case "fmt.wrapError", "fmt.wrapErrors", "errors.joinError":
		return true
	}
	return false
}

// Format renders the report text: "<kind>: <message>" and, when the chain
// carries one, a blank line followed by the detail.
func Format(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", Kind(err), err.Error())

	var d Detailer
	if errors.As(err, &d) {
		if detail := strings.TrimRight(d.Detail(), "\n"); detail != "" {
			b.WriteString("\n")
			b.WriteString(detail)
			b.WriteString("\n")
		}
	}
	return b.String()
}
