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

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 16
	statusIndent     = "  "
)

type statusLine struct {
	label   string
	kind    statusKind
	message string
}

func renderStatusLine(line statusLine, colorize bool) string {
	text := "[" + statusKindLabel(line.kind) + "]"
	if line.message != "" {
		text += " " + line.message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, line.label+":", text)
	if colorize {
		if color := statusKindColor(line.kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func renderSection(w io.Writer, title string, lines []statusLine, colorize bool) {
	header := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if colorize {
		header = ansiBlue + header + ansiReset
	}
	fmt.Fprintln(w, header)
	for _, line := range lines {
		fmt.Fprintln(w, renderStatusLine(line, colorize))
	}
}

func statusKindLabel(kind statusKind) string {
	switch kind {
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

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
