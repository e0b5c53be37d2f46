package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/roach88/dtrace/internal/trace"
	"github.com/roach88/dtrace/internal/value"
)

// encodeObject converts an open map to canonical JSON TEXT for storage.
// A nil map encodes as "{}".
func encodeObject(obj value.Object) (string, error) {
	if obj == nil {
		return "{}", nil
	}
	data, err := value.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal object: %w", err)
	}
	return string(data), nil
}

// decodeObject parses a stored map. Empty or NULL text decodes to an
// empty, non-nil Object.
func decodeObject(data string) (value.Object, error) {
	if data == "" || data == "{}" {
		return value.Object{}, nil
	}
	var obj value.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	return obj, nil
}

// encodeOptionalObject is encodeObject with nil mapped to SQL NULL.
func encodeOptionalObject(obj value.Object) (any, error) {
	if obj == nil {
		return nil, nil
	}
	return encodeObject(obj)
}

// decodeOptionalObject maps SQL NULL back to a nil Object.
func decodeOptionalObject(data sql.NullString) (value.Object, error) {
	if !data.Valid || data.String == "" {
		return nil, nil
	}
	return decodeObject(data.String)
}

// encodeObjects stores an ordered list of open maps as a JSON array.
func encodeObjects(objs []value.Object) (string, error) {
	arr := make(value.Array, len(objs))
	for i, obj := range objs {
		if obj == nil {
			obj = value.Object{}
		}
		arr[i] = obj
	}
	data, err := value.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal object list: %w", err)
	}
	return string(data), nil
}

// decodeObjects parses a stored list of maps. Every element must be a map.
func decodeObjects(data string) ([]value.Object, error) {
	if data == "" || data == "[]" {
		return []value.Object{}, nil
	}
	var arr value.Array
	if err := json.Unmarshal([]byte(data), &arr); err != nil {
		return nil, fmt.Errorf("unmarshal object list: %w", err)
	}
	out := make([]value.Object, len(arr))
	for i, elem := range arr {
		obj, ok := elem.(value.Object)
		if !ok {
			return nil, fmt.Errorf("object list element %d is %T, want object", i, elem)
		}
		out[i] = obj
	}
	return out, nil
}

// encodeStrings stores a string list as a JSON array, preserving order.
func encodeStrings(ss []string) (string, error) {
	arr := make(value.Array, len(ss))
	for i, s := range ss {
		arr[i] = value.String(s)
	}
	data, err := value.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal string list: %w", err)
	}
	return string(data), nil
}

// decodeStrings parses a stored string list into a non-nil slice.
func decodeStrings(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	var ss []string
	if err := json.Unmarshal([]byte(data), &ss); err != nil {
		return nil, fmt.Errorf("unmarshal string list: %w", err)
	}
	if ss == nil {
		ss = []string{}
	}
	return ss, nil
}

// encodeStringMap stores a string-to-string map as a JSON object.
func encodeStringMap(m map[string]string) (string, error) {
	obj := make(value.Object, len(m))
	for k, v := range m {
		obj[k] = value.String(v)
	}
	return encodeObject(obj)
}

// decodeStringMap parses a stored string-to-string map into a non-nil map.
func decodeStringMap(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal string map: %w", err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

// formatTimestamp renders t as fixed-width UTC text.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(trace.TimestampLayout)
}

// parseTimestamp parses stored timestamp text. Rows written by other tools
// in plain RFC 3339 are accepted too.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(trace.TimestampLayout, s)
	if err == nil {
		return t.UTC(), nil
	}
	t, err2 := time.Parse(time.RFC3339Nano, s)
	if err2 != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// encodeDuration stores a duration as float seconds. Negative durations are
// not rejected here.
func encodeDuration(d time.Duration) float64 {
	return d.Seconds()
}

// decodeDuration converts stored float seconds back to a Duration.
func decodeDuration(secs float64) (time.Duration, error) {
	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, fmt.Errorf("duration %v is not finite", secs)
	}
	if secs < 0 {
		return 0, fmt.Errorf("duration %v is negative", secs)
	}
	return time.Duration(math.Round(secs * float64(time.Second))), nil
}

// nullString maps a nil pointer to SQL NULL.
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// fromNullString maps SQL NULL to a nil pointer.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func fromNullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
