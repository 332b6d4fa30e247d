package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

// statusLine is one labeled row in a status section, rendered as
// "  Label:           [KIND] message".
type statusLine struct {
	label   string
	kind    statusKind
	message string
}

// statusSection groups status lines under an underlined heading. Sections
// build declaratively and render in one pass so every command that shows
// daemon or experience state shares one layout.
type statusSection struct {
	title string
	lines []statusLine
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const statusLabelWidth = 18

func (s statusSection) render(w io.Writer, colorize bool) {
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(s.title))
	rule := strings.Repeat("-", len(heading))
	if colorize {
		heading = ansiBlue + heading + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	fmt.Fprintln(w, heading)
	fmt.Fprintln(w, rule)
	for _, line := range s.lines {
		fmt.Fprintln(w, line.render(colorize))
	}
}

func (l statusLine) render(colorize bool) string {
	tag := "[" + l.kind.String() + "]"
	if l.message != "" {
		tag += " " + l.message
	}
	rendered := fmt.Sprintf("  %-*s %s", statusLabelWidth, l.label+":", tag)
	if color := l.kind.color(); colorize && color != "" {
		return color + rendered + ansiReset
	}
	return rendered
}

func (k statusKind) String() string {
	switch k {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (k statusKind) color() string {
	switch k {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	default:
		return ansiBlue
	}
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
