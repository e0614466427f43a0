package ir

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a sealed interface representing a condition value.
// Only Text, Number, Boolean, DateTime and Raw implement this.
//
// The compiler dispatches on the field's declared catalog type at render
// time, so a Value only records what the caller supplied.
type Value interface {
	irValue() // Sealed - only these types implement it
	String() string
}

// Text is a plain string value. It is XML-escaped when rendered.
type Text string

func (Text) irValue() {}

func (t Text) String() string { return string(t) }

// Number is a numeric value held as the decimal text of the value it was
// built from. Integers keep every digit and float32 values keep their own
// shortest form, so nothing is rounded through float64 on the way out.
type Number struct {
	text string
}

func (Number) irValue() {}

// String returns the decimal text (42, 3.5, -0.25).
func (n Number) String() string { return n.text }

// Int returns the Number for a signed integer.
func Int(n int64) Number { return Number{text: strconv.FormatInt(n, 10)} }

// Uint returns the Number for an unsigned integer.
func Uint(n uint64) Number { return Number{text: strconv.FormatUint(n, 10)} }

// Float returns the Number for f in its shortest decimal form.
// f must be finite.
func Float(f float64) Number { return Number{text: strconv.FormatFloat(f, 'f', -1, 64)} }

// ParseNumber returns the Number spelled by s, a plain decimal with an
// optional sign, fraction and exponent ("-12", "0.5", "1e6"). The text is
// kept as given.
func ParseNumber(s string) (Number, error) {
	if s == "" || strings.Trim(s, "0123456789+-.eE") != "" {
		return Number{}, fmt.Errorf("invalid number %q", s)
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil && !errors.Is(err, strconv.ErrRange) {
		return Number{}, fmt.Errorf("invalid number %q", s)
	}
	return Number{text: s}, nil
}

func finite(f float64, bits int) (Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}, fmt.Errorf("%v is not a finite number", f)
	}
	return Number{text: strconv.FormatFloat(f, 'f', -1, bits)}, nil
}

// Boolean is a boolean value.
type Boolean bool

func (Boolean) irValue() {}

func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }

// DateTime is a point in time.
type DateTime time.Time

func (DateTime) irValue() {}

// Time returns the underlying time.Time.
func (d DateTime) Time() time.Time { return time.Time(d) }

// String renders the instant in the ISO-8601 form used by list queries.
func (d DateTime) String() string { return FormatISO8601(time.Time(d)) }

// Raw is markup emitted verbatim inside the Value element, e.g. "<Today />".
// Raw is never escaped.
type Raw string

func (Raw) irValue() {}

func (r Raw) String() string { return string(r) }

// ISO8601Layout is the round-trip date/time encoding used for DateTime fields.
const ISO8601Layout = "2006-01-02T15:04:05Z"

// FormatISO8601 renders t in UTC using ISO8601Layout.
//
// The Z suffix is true: t is converted to UTC first, so equal instants
// render identically whatever zone they were built in. SharePoint's
// SPUtility.CreateISO8601DateTimeFromSystemDateTime instead stamps the
// local clock reading with Z; callers relying on that behaviour should
// pass times already expressed in the server's zone as UTC wall time.
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(ISO8601Layout)
}

// dateLayouts are tried in order by ParseDateTime.
// Layouts without a zone are interpreted as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDateTime parses the textual date forms accepted for DateTime fields.
func ParseDateTime(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date/time", s)
}

// ValueOf converts a Go scalar to a Value.
// Values that are already a Value pass through unchanged.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case Value:
		return val, nil
	case string:
		return Text(val), nil
	case bool:
		return Boolean(val), nil
	case int:
		return Int(int64(val)), nil
	case int8:
		return Int(int64(val)), nil
	case int16:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint:
		return Uint(uint64(val)), nil
	case uint8:
		return Uint(uint64(val)), nil
	case uint16:
		return Uint(uint64(val)), nil
	case uint32:
		return Uint(uint64(val)), nil
	case uint64:
		return Uint(val), nil
	case float32:
		return finite(float64(val), 32)
	case float64:
		return finite(val, 64)
	case json.Number:
		return ParseNumber(val.String())
	case time.Time:
		return DateTime(val), nil
	case *time.Time:
		if val == nil {
			return nil, nil
		}
		return DateTime(*val), nil
	case fmt.Stringer:
		return Text(val.String()), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// MustValueOf is like ValueOf but panics on unsupported types.
// Intended for tests and package-level fixtures.
func MustValueOf(v any) Value {
	val, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return val
}

// Kind names the concrete Value variant ("text", "number", ...).
func Kind(v Value) string {
	switch v.(type) {
	case nil:
		return "none"
	case Text:
		return "text"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case DateTime:
		return "datetime"
	case Raw:
		return "raw"
	default:
		return fmt.Sprintf("%T", v)
	}
}
