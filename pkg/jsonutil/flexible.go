package jsonutil

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling fields
// the upstream API serves inconsistently as numbers. Returns empty string for
// null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return strconv.FormatInt(int64(numVal), 10)
		}
		return strconv.FormatFloat(numVal, 'g', -1, 64)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleFloatValue converts a json.RawMessage to a float pointer. The
// upstream API serves numeric fields both as JSON numbers and as quoted
// strings (coordinates in particular). Null, absent, empty, or unparsable
// values become nil rather than zero, since absence means "no observation".
func FlexibleFloatValue(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return &numVal
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		strVal = strings.TrimSpace(strVal)
		if strVal == "" {
			return nil
		}
		if parsed, err := strconv.ParseFloat(strVal, 64); err == nil {
			return &parsed
		}
	}

	return nil
}

// FlexibleIntValue converts a json.RawMessage to an int, tolerating quoted
// numbers. Null, absent, or unparsable values become the zero fallback.
func FlexibleIntValue(raw json.RawMessage) int {
	if v := FlexibleFloatValue(raw); v != nil {
		return int(*v)
	}
	return 0
}
