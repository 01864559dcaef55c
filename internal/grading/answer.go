package grading

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// isBlank reports whether a submitted answer counts as "no answer".
// Numbers are never blank — a submitted 0 is a real answer.
func isBlank(answer any) bool {
	switch v := answer.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

// normalizeChoice converts a submitted MCQ answer to a zero-based option
// index. Accepts integers (JSON numbers decode as float64), single letters
// A-D in either case, and numeric strings.
func normalizeChoice(answer any) (int, bool) {
	switch v := answer.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		s := strings.TrimSpace(strings.ToUpper(v))
		if len(s) == 1 && s[0] >= 'A' && s[0] <= 'D' {
			return int(s[0] - 'A'), true
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}
	return 0, false
}

// answerText renders a submitted answer as text for oracle prompts and
// numeric parsing. Whole floats print without a trailing ".0" so "42"
// submitted as a JSON number round-trips cleanly.
func answerText(answer any) string {
	switch v := answer.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
