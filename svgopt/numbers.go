package svgopt

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numeric attribute value, with an optional unit
var numericValue = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(px|pt|pc|mm|cm|m|in|ft|em|ex|%)?$`)

// formatNumber rounds `v` to `precision` decimals and returns
// its shortest representation: no trailing zeros, no leading zero
// before the decimal point, and no negative zero.
func formatNumber(v float64, precision int) string {
	v = roundTo(v, precision)
	if v == 0 {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.HasPrefix(s, "0.") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-0.") {
		s = "-" + s[2:]
	}
	return s
}

// roundTo rounds `v` to `precision` decimals; a negative
// precision disables rounding.
func roundTo(v float64, precision int) float64 {
	if precision < 0 {
		return v
	}
	p := math.Pow(10, float64(precision))
	return math.Round(v*p) / p
}

// cleanupNumber rewrites a numeric attribute value, dropping the
// default `px` unit. `ok` is false if `value` is not numeric.
func cleanupNumber(value string, precision int) (out string, ok bool) {
	match := numericValue.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return value, false
	}
	f, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return value, false
	}
	unit := match[2]
	if unit == "px" {
		unit = ""
	}
	return formatNumber(f, precision) + unit, true
}

// cleanupNumberList handles space or comma separated lists, such as viewBox
func cleanupNumberList(value string, precision int) (string, bool) {
	fields := splitOnCommaOrSpace(value)
	if len(fields) == 0 {
		return value, false
	}
	out := make([]string, len(fields))
	for i, field := range fields {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return value, false
		}
		out[i] = formatNumber(f, precision)
	}
	return strings.Join(out, " "), true
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
}
