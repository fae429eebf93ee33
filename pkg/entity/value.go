package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
)

// Text returns the textual form of a field value. Equality filters compare
// this form against the raw request value.
func Text(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// AsNumber parses the textual form of v as a float.
func AsNumber(v interface{}) (float64, error) {
	return ParseNumber(Text(v))
}

// ParseNumber parses a raw range bound.
func ParseNumber(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, apperr.Validation("%q is not a number", raw)
	}
	return f, nil
}

// Equals reports whether field's value on instance has the textual form raw.
func Equals(f *Field, instance interface{}, raw string) bool {
	return Text(f.Value(instance)) == raw
}

// InRange reports whether field's value on instance lies in [lo, hi].
func InRange(f *Field, instance interface{}, lo, hi float64) (bool, error) {
	n, err := AsNumber(f.Value(instance))
	if err != nil {
		return false, err
	}
	return n >= lo && n <= hi, nil
}
