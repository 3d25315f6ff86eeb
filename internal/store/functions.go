package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Document value type codes, matching the compiler's closed $type list:
// null, boolean, number, string, blob, array, object.
const (
	typeNull    = 0
	typeBoolean = 1
	typeNumber  = 2
	typeString  = 3
	typeArray   = 5
	typeObject  = 6
)

// registerFunctions installs the helper functions the compiled SQL
// calls. Runs once per connection via the driver's ConnectHook.
func registerFunctions(conn *sqlite3.SQLiteConn) error {
	helpers := []struct {
		name string
		impl any
	}{
		{"fl_value", flValue},
		{"fl_type", flType},
		{"fl_exists", flExists},
		{"fl_count", flCount},
		{"fl_contains", flContains},
		{"rank", rank},
	}
	for _, h := range helpers {
		if err := conn.RegisterFunc(h.name, h.impl, true); err != nil {
			return fmt.Errorf("register %s: %w", h.name, err)
		}
	}
	return nil
}

func decodeBody(body []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("document body: %w", err)
	}
	return doc, nil
}

// flValue extracts the value at path as a SQL scalar. Missing paths
// yield NULL, booleans become 1/0, and containers are re-encoded as
// JSON text.
func flValue(body []byte, path string) (any, error) {
	doc, err := decodeBody(body)
	if err != nil {
		return nil, err
	}
	v, ok := evalPath(doc, path)
	if !ok {
		return nil, nil
	}
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case float64:
		return val, nil
	case string:
		return val, nil
	default:
		// Array or object: JSON text representation.
		data, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
}

// flType returns the type code of the value at path, or NULL when the
// path does not resolve.
func flType(body []byte, path string) (any, error) {
	doc, err := decodeBody(body)
	if err != nil {
		return nil, err
	}
	v, ok := evalPath(doc, path)
	if !ok {
		return nil, nil
	}
	return typeCodeOf(v), nil
}

func typeCodeOf(v any) int64 {
	switch v.(type) {
	case nil:
		return typeNull
	case bool:
		return typeBoolean
	case float64:
		return typeNumber
	case string:
		return typeString
	case []any:
		return typeArray
	case map[string]any:
		return typeObject
	default:
		return typeNull
	}
}

// flExists reports whether path resolves to any value, null included.
func flExists(body []byte, path string) (bool, error) {
	doc, err := decodeBody(body)
	if err != nil {
		return false, err
	}
	_, ok := evalPath(doc, path)
	return ok, nil
}

// flCount returns the element count of the array at path, NULL when
// the path does not resolve to an array.
func flCount(body []byte, path string) (any, error) {
	doc, err := decodeBody(body)
	if err != nil {
		return nil, err
	}
	v, ok := evalPath(doc, path)
	if !ok {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, nil
	}
	return int64(len(arr)), nil
}

// flContains tests the array at path against vals: with all true every
// val must be present, otherwise one suffices.
func flContains(body []byte, path string, all bool, vals ...any) (bool, error) {
	doc, err := decodeBody(body)
	if err != nil {
		return false, err
	}
	v, ok := evalPath(doc, path)
	if !ok {
		return false, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return false, nil
	}

	for _, want := range vals {
		found := false
		for _, elem := range arr {
			if looseEqual(elem, want) {
				found = true
				break
			}
		}
		if all && !found {
			return false, nil
		}
		if !all && found {
			return true, nil
		}
	}
	return all, nil
}

// looseEqual compares a decoded document element against a SQL
// argument, bridging the type gaps between the two (int64 vs float64,
// []byte vs string, bool vs 0/1).
func looseEqual(elem, arg any) bool {
	if b, ok := arg.([]byte); ok {
		arg = string(b)
	}
	switch e := elem.(type) {
	case float64:
		switch a := arg.(type) {
		case float64:
			return e == a
		case int64:
			return e == float64(a)
		}
	case string:
		a, ok := arg.(string)
		return ok && e == a
	case bool:
		switch a := arg.(type) {
		case int64:
			return (a != 0) == e
		case bool:
			return a == e
		}
	case nil:
		return arg == nil
	}
	return false
}

// rank scores an FTS matchinfo blob: the sum of per-phrase, per-column
// hit counts for the current row. The blob is the default "pcx" format
// of little-endian 32-bit counters.
func rank(matchinfo []byte) (float64, error) {
	if len(matchinfo)%4 != 0 {
		return 0, fmt.Errorf("malformed matchinfo blob of %d bytes", len(matchinfo))
	}
	counts := make([]uint32, len(matchinfo)/4)
	if err := binary.Read(bytes.NewReader(matchinfo), binary.LittleEndian, &counts); err != nil {
		return 0, err
	}
	if len(counts) < 2 {
		return 0, nil
	}
	phrases, cols := int(counts[0]), int(counts[1])

	var score float64
	for i := 0; i < phrases*cols; i++ {
		base := 2 + i*3
		if base >= len(counts) {
			break
		}
		score += float64(counts[base])
	}
	return score, nil
}
