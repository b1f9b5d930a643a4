package utils

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// MessageType selects the colour of a message.
type MessageType int

// The message types used across the CLI.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	WarningMessage
	ErrorMessage
	StatusMessage
)

// ANSI colours used across the CLI.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	WarningColor = "\x1b[33m"
	ErrorColor   = "\x1b[31m"
)

// DecorateText shows the message types in different colors.
func DecorateText(s string, msgType MessageType) string {
	switch msgType {
	case DefaultMessage:
		s = DefaultColor + s
	case StatusMessage:
		s = StatusColor + s
	case SuccessMessage:
		s = SuccessColor + s
	case WarningMessage:
		s = WarningColor + s
	case ErrorMessage:
		s = ErrorColor + s
	default:
		return s
	}
	return s + DefaultColor
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Decorator colours messages only when they are written to a terminal,
// and NO_COLOR is not set.
type Decorator struct {
	enabled bool
}

// NewDecorator returns a Decorator for messages written to w.
func NewDecorator(w io.Writer) Decorator {
	return Decorator{enabled: IsTerminal(w) && os.Getenv("NO_COLOR") == ""}
}

// Text decorates s if colours are enabled.
func (d Decorator) Text(s string, msgType MessageType) string {
	if !d.enabled {
		return s
	}
	return DecorateText(s, msgType)
}

// FormatTime formats time.Duration output to a human readable value.
func FormatTime(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm %.2fs", int64(d.Minutes()), d.Seconds()-60*float64(int64(d.Minutes())))
	}
}
