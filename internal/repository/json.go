package repository

import (
	"bytes"
	"encoding/json"
)

// encodeJSON marshals v leaving non-ASCII text and HTML characters unescaped,
// which is how Open WebUI stores chat content. Indented output uses two spaces.
func encodeJSON(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
