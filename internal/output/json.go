package output

import (
	"encoding/json"
)

// FormatJSONValue marshals v, indented when requested.
func FormatJSONValue(v any, indent bool) (string, error) {
	var (
		data []byte
		err  error
	)

	if indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
