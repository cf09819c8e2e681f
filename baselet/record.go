package baselet

import "encoding/json"

// Record is the constraint on the values stored in a RangeBase. A record
// exposes a numeric range field and a string id field, looked up by the
// names configured for the database.
type Record interface {
	// RangeValue returns the numeric field called key.
	RangeValue(key string) (float64, bool)

	// IDValue returns the string field called key.
	IDValue(key string) (string, bool)
}

// Doc is a schemaless Record. Numeric fields may hold any Go integer or
// float type, or a json.Number.
type Doc map[string]any

// Assert Doc implements Record
var _ Record = Doc(nil)

// RangeValue returns the field called key as a float64.
func (d Doc) RangeValue(key string) (float64, bool) {
	switch v := d[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// IDValue returns the field called key if it is a string.
func (d Doc) IDValue(key string) (string, bool) {
	s, ok := d[key].(string)
	return s, ok
}
