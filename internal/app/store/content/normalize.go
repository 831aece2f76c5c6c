package contentstore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Normalize converts values decoded from BSON into the plain types the
// JSON encoder produces when decoding into any: map[string]any, []any,
// float64, string, bool and nil. Content read back therefore serializes to
// the same JSON that was written.
func Normalize(v any) any {
	switch t := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = Normalize(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = Normalize(e)
		}
		return m
	case map[string]any:
		for k, e := range t {
			t[k] = Normalize(e)
		}
		return t
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = Normalize(e)
		}
		return t
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}
