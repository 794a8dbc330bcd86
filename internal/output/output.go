// Package output renders CLI listings as tables, markdown, or JSON.
package output

import (
	"fmt"
	"strings"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// Listing is anything that can be shown as rows. Raw is what JSON output
// marshals.
type Listing interface {
	Header() []any
	Rows() [][]any
	Footer() []any
	Raw() any
}

// Render renders a listing in the requested format.
func Render(format Format, l Listing) (string, error) {
	switch format {
	case FormatJSON:
		return FormatJSONValue(l.Raw(), true)
	case FormatMarkdown:
		return renderTable(l, true), nil
	default:
		return renderTable(l, false), nil
	}
}
