// Package color renders ANSI-colored terminal text.
package color

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ANSI color codes
const (
	reset = "\033[0m"

	FgRed    = 31
	FgGreen  = 32
	FgYellow = 33
	FgBlue   = 34
	FgCyan   = 36
	FgWhite  = 37

	Bold = 1
	Dim  = 2
)

// NoColor disables color output. It starts true when NO_COLOR is set.
var NoColor = os.Getenv("NO_COLOR") != ""

// Color represents a text color configuration
type Color struct {
	params []int
}

// New creates a new Color with the given attributes
func New(attrs ...int) *Color {
	return &Color{params: attrs}
}

// format returns the ANSI escape sequence for this color
func (c *Color) format() string {
	if NoColor || len(c.params) == 0 {
		return ""
	}
	codes := make([]string, len(c.params))
	for i, p := range c.params {
		codes[i] = strconv.Itoa(p)
	}
	return "\033[" + strings.Join(codes, ";") + "m"
}

func (c *Color) wrap(s string) string {
	f := c.format()
	if f == "" {
		return s
	}
	return f + s + reset
}

// Fprintf prints formatted output with color to the given writer
func (c *Color) Fprintf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprint(w, c.wrap(fmt.Sprintf(format, a...)))
}

// Sprint returns a colored string
func (c *Color) Sprint(a ...interface{}) string {
	return c.wrap(fmt.Sprint(a...))
}
