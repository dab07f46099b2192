package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gifrelay/internal/capture"
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
	statusLabelWidth = 12
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
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

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var titleCaser = cases.Title(language.Und)

func stateLabel(state capture.State) string {
	return titleCaser.String(state.String())
}

func stateKind(state capture.State) statusKind {
	switch state {
	case capture.StateResult:
		return statusOK
	case capture.StateError:
		return statusError
	case capture.StateGenerating:
		return statusWarn
	default:
		return statusInfo
	}
}

// renderSession prints the capture screen for one session snapshot.
func renderSession(out io.Writer, view capture.View, colorize bool) {
	var message string
	switch view.State {
	case capture.StateHasImage:
		message = fmt.Sprintf("%s, %d base64 chars", view.Image.MIMEType, len(view.Image.Payload))
	case capture.StateGenerating:
		message = "waiting for the relay"
	case capture.StateResult:
		message = view.ResultURL
	case capture.StateError:
		message = view.Error
	}
	fmt.Fprintln(out, renderStatusLine(stateLabel(view.State), stateKind(view.State), message, colorize))
}
