package svgopt

import (
	"errors"
	"strconv"
	"strings"
)

// This file rewrites the `d` attribute of paths in its most
// compact textual form. The geometry is left untouched: only the
// number precision, the separators and the repeated
// command letters are affected.

var errPathSyntax = errors.New("invalid path data")

// number of arguments expected by each command
var pathArgs = map[byte]int{
	'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'A': 7, 'Z': 0,
}

type pathSegment struct {
	command byte // as written, upper case for absolute
	args    []float64
}

type pathLexer struct {
	src string
	pos int
}

func (l *pathLexer) skipSeparators() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\n', '\r', '\f', ',':
			l.pos++
		default:
			return
		}
	}
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// readNumber scans a number following the SVG grammar:
// sign? digits? ('.' digits)? (exponent)?
func (l *pathLexer) readNumber() (float64, error) {
	l.skipSeparators()
	start := l.pos
	if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
		l.pos++
	}
	digits := 0
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
		digits++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
			digits++
		}
	}
	if digits == 0 {
		l.pos = start
		return 0, errPathSyntax
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		expDigits := 0
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
			expDigits++
		}
		if expDigits == 0 {
			l.pos = save
		}
	}
	return strconv.ParseFloat(l.src[start:l.pos], 64)
}

// readFlag scans an arc flag, which may not be followed by a separator
func (l *pathLexer) readFlag() (float64, error) {
	l.skipSeparators()
	if l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '0':
			l.pos++
			return 0, nil
		case '1':
			l.pos++
			return 1, nil
		}
	}
	return 0, errPathSyntax
}

// startsNumber reports whether the next token is a number
func (l *pathLexer) startsNumber() bool {
	l.skipSeparators()
	if l.pos >= len(l.src) {
		return false
	}
	c := l.src[l.pos]
	return isDigit(c) || c == '.' || c == '-' || c == '+'
}

func (l *pathLexer) readArgs(command byte) ([]float64, error) {
	n := pathArgs[toUpper(command)]
	args := make([]float64, n)
	for i := range args {
		var err error
		if toUpper(command) == 'A' && (i == 3 || i == 4) {
			args[i], err = l.readFlag()
		} else {
			args[i], err = l.readNumber()
		}
		if err != nil {
			return nil, err
		}
	}
	return args, nil
}

func toUpper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// parsePathData splits `d` in segments, one per command
// (implicit repetitions are made explicit).
// On syntax error, the segments read so far are returned with the error.
func parsePathData(d string) ([]pathSegment, error) {
	l := pathLexer{src: d}
	var (
		segments []pathSegment
		previous byte
	)
	for {
		l.skipSeparators()
		if l.pos >= len(l.src) {
			return segments, nil
		}
		command := l.src[l.pos]
		if _, isCommand := pathArgs[toUpper(command)]; isCommand {
			l.pos++
		} else if previous != 0 && toUpper(previous) != 'Z' && l.startsNumber() {
			// implicit repetition; a moveto is followed by linetos
			command = previous
			switch previous {
			case 'M':
				command = 'L'
			case 'm':
				command = 'l'
			}
		} else {
			return segments, errPathSyntax
		}
		if len(segments) == 0 && toUpper(command) != 'M' {
			return segments, errPathSyntax
		}
		args, err := l.readArgs(command)
		if err != nil {
			return segments, err
		}
		segments = append(segments, pathSegment{command: command, args: args})
		previous = command
	}
}

// appendNumber writes `s` after `out`, adding a separator only when
// the two numbers would otherwise merge.
func appendNumber(out *strings.Builder, last string, s string) {
	switch {
	case last == "":
	case s[0] == '-':
	case s[0] == '.' && strings.Contains(last, ".") && !strings.ContainsAny(last, "eE"):
	default:
		out.WriteByte(' ')
	}
	out.WriteString(s)
}

type point struct{ x, y float64 }

// roundSegments rounds the arguments of the segments to `precision`.
// The current point is tracked both as written in the input and as
// reached by the rounded output, so that relative coordinates are
// computed against the rounded position: rounding errors do not
// accumulate along a path.
// Relative linetos which become empty are dropped, except right after
// a moveto, where they draw a dot.
func roundSegments(segments []pathSegment, precision int) []pathSegment {
	var (
		out                      []pathSegment
		exact, rounded           point // current point
		exactStart, roundedStart point // start of the subpath
	)
	round := func(v float64) float64 { return roundTo(v, precision) }
	for _, seg := range segments {
		relative := seg.command != toUpper(seg.command)
		args := make([]float64, len(seg.args))
		switch toUpper(seg.command) {
		case 'Z':
			exact, rounded = exactStart, roundedStart
		case 'H':
			if relative {
				args[0] = round(exact.x + seg.args[0] - rounded.x)
				exact.x += seg.args[0]
				rounded.x += args[0]
			} else {
				args[0] = round(seg.args[0])
				exact.x, rounded.x = seg.args[0], args[0]
			}
		case 'V':
			if relative {
				args[0] = round(exact.y + seg.args[0] - rounded.y)
				exact.y += seg.args[0]
				rounded.y += args[0]
			} else {
				args[0] = round(seg.args[0])
				exact.y, rounded.y = seg.args[0], args[0]
			}
		default:
			first := 0 // first coordinate pair
			if toUpper(seg.command) == 'A' {
				// radii, rotation and flags are not coordinates
				args[0], args[1], args[2] = round(seg.args[0]), round(seg.args[1]), round(seg.args[2])
				args[3], args[4] = seg.args[3], seg.args[4]
				first = 5
			}
			for i := first; i+1 < len(seg.args); i += 2 {
				if relative {
					args[i] = round(exact.x + seg.args[i] - rounded.x)
					args[i+1] = round(exact.y + seg.args[i+1] - rounded.y)
				} else {
					args[i], args[i+1] = round(seg.args[i]), round(seg.args[i+1])
				}
			}
			n := len(seg.args)
			if relative {
				exact.x, exact.y = exact.x+seg.args[n-2], exact.y+seg.args[n-1]
				rounded.x, rounded.y = rounded.x+args[n-2], rounded.y+args[n-1]
			} else {
				exact = point{seg.args[n-2], seg.args[n-1]}
				rounded = point{args[n-2], args[n-1]}
			}
			if toUpper(seg.command) == 'M' {
				exactStart, roundedStart = exact, rounded
			}
		}

		if isEmptyLineto(seg.command, args) && len(out) != 0 && toUpper(out[len(out)-1].command) != 'M' {
			continue
		}
		out = append(out, pathSegment{command: seg.command, args: args})
	}
	return out
}

func isEmptyLineto(command byte, args []float64) bool {
	if command != 'l' && command != 'h' && command != 'v' {
		return false
	}
	for _, a := range args {
		if a != 0 {
			return false
		}
	}
	return true
}

// formatPathData writes the segments in compact form.
func formatPathData(segments []pathSegment, precision int) string {
	var (
		out      strings.Builder
		previous byte
		last     string // last number written, empty after a command letter
	)
	for _, seg := range roundSegments(segments, precision) {
		implicit := previous == seg.command && previous != 'M' && previous != 'm' ||
			previous == 'M' && seg.command == 'L' ||
			previous == 'm' && seg.command == 'l'
		if !implicit || toUpper(seg.command) == 'Z' {
			out.WriteByte(seg.command)
			last = ""
		}
		for i, arg := range seg.args {
			var s string
			if toUpper(seg.command) == 'A' && (i == 3 || i == 4) {
				s = strconv.Itoa(int(arg))
			} else {
				s = formatNumber(arg, precision)
			}
			appendNumber(&out, last, s)
			last = s
		}
		previous = seg.command
	}
	return out.String()
}

// convertPathData returns the compact form of `d`, or `d` itself
// when it contains a syntax error.
func convertPathData(d string, precision int) string {
	segments, err := parsePathData(d)
	if err != nil || len(segments) == 0 {
		return d
	}
	return formatPathData(segments, precision)
}
