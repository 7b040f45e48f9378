package errors

import "fmt"

// stringify renders an arbitrary value for inclusion in an error message,
// a trimmed-down stand-in for the reference stack's common/serial package
// (which wasn't part of this module's scope).
func stringify(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
