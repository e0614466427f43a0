package caml

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/ChrisPritchard/FluentSharepoint/internal/ir"
)

// Declared field types with dedicated formatting.
const (
	TypeDateTime = "DateTime"
	TypeBoolean  = "Boolean"
)

// formatValue renders v for a field whose declared catalog type is fieldType.
//
// DateTime fields accept a DateTime or a parseable Text/Raw and render as
// ISO-8601 in UTC. Boolean fields accept a Boolean or a Text/Raw spelling
// of one and render TRUE/FALSE. Every other type renders v.String(). Text
// is XML-escaped; Raw is emitted verbatim.
func formatValue(v ir.Value, fieldType string) (string, error) {
	switch fieldType {
	case TypeDateTime:
		return formatDateTime(v)
	case TypeBoolean:
		return formatBoolean(v)
	}

	switch val := v.(type) {
	case ir.Raw:
		return string(val), nil
	case ir.Text:
		return escape(string(val)), nil
	case ir.Number, ir.Boolean, ir.DateTime:
		return val.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func formatDateTime(v ir.Value) (string, error) {
	switch val := v.(type) {
	case ir.DateTime:
		return ir.FormatISO8601(val.Time()), nil
	case ir.Text, ir.Raw:
		t, err := ir.ParseDateTime(strings.TrimSpace(val.String()))
		if err != nil {
			return "", err
		}
		return ir.FormatISO8601(t), nil
	default:
		return "", fmt.Errorf("cannot use %s value %q as a date/time", ir.Kind(v), v.String())
	}
}

func formatBoolean(v ir.Value) (string, error) {
	var b bool
	switch val := v.(type) {
	case ir.Boolean:
		b = bool(val)
	case ir.Text, ir.Raw:
		parsed, err := strconv.ParseBool(strings.TrimSpace(val.String()))
		if err != nil {
			return "", fmt.Errorf("cannot parse %q as a boolean", val.String())
		}
		b = parsed
	default:
		return "", fmt.Errorf("cannot use %s value %q as a boolean", ir.Kind(v), v.String())
	}

	if b {
		return "TRUE", nil
	}
	return "FALSE", nil
}

// escape XML-escapes character data.
func escape(s string) string {
	var sb strings.Builder
	// xml.EscapeText only fails when the writer fails; strings.Builder never does.
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
