package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plain converts values decoded by the BSON driver into types encoding/json
// renders naturally: documents become maps, arrays become slices, dates become
// RFC 3339 strings and object ids become hex strings.
func Plain(v any) any {
	switch t := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = Plain(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = Plain(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = Plain(val)
		}
		return m
	case primitive.A:
		return plainSlice(t)
	case []any:
		return plainSlice(t)
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}

func plainSlice(in []any) []any {
	out := make([]any, len(in))
	for i, val := range in {
		out[i] = Plain(val)
	}
	return out
}
