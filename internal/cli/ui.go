package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/taintview/pkg/taint"
)

// ANSI 256 palette.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorPink   = lipgloss.Color("213")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

var (
	StyleTitle   = fg(colorCyan).Bold(true)
	StyleDim     = fg(colorDim)
	StyleValue   = fg(colorWhite)
	StyleAddress = fg(colorBlue)
	StyleWarning = fg(colorYellow)

	styleIconSpinner = fg(colorCyan)
	styleCommand     = fg(colorBlue)
	styleKey         = fg(colorGray).Width(12)
)

// Node class colors match the diagram fills.
var classStyles = map[taint.Class]lipgloss.Style{
	taint.ClassSink:   fg(colorRed),
	taint.ClassSource: fg(colorGreen),
	taint.ClassReg:    fg(colorPink),
}

func classStyle(c taint.Class) lipgloss.Style {
	if s, ok := classStyles[c]; ok {
		return s
	}
	return StyleValue
}

type statusKind int

const (
	statusSuccess statusKind = iota
	statusError
	statusWarning
	statusInfo
)

var statusIcons = [...]struct {
	icon  string
	style lipgloss.Style
	body  *lipgloss.Style
}{
	statusSuccess: {"✓", fg(colorGreen), nil},
	statusError:   {"✗", fg(colorRed), nil},
	statusWarning: {"!", fg(colorYellow), &StyleWarning},
	statusInfo:    {"›", fg(colorGray), nil},
}

// status prints one icon-prefixed line to stdout.
func status(kind statusKind, format string, args ...any) {
	s := statusIcons[kind]
	msg := fmt.Sprintf(format, args...)
	if s.body != nil {
		msg = s.body.Render(msg)
	}
	fmt.Fprintln(os.Stdout, s.style.Render(s.icon), msg)
}

func printSuccess(format string, args ...any) { status(statusSuccess, format, args...) }
func printError(format string, args ...any)   { status(statusError, format, args...) }
func printWarning(format string, args ...any) { status(statusWarning, format, args...) }
func printInfo(format string, args ...any)    { status(statusInfo, format, args...) }

func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints "N nodes · M edges" plus the skipped count when nonzero
// and whether the graph came from the cache.
func printStats(nodes, edges, skipped int, cached bool) {
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d nodes", nodes)),
		StyleDim.Render(fmt.Sprintf("%d edges", edges)),
	}
	if skipped > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d skipped", skipped)))
	}
	if cached {
		parts = append(parts, fg(colorGreen).Render("cached"))
	} else {
		parts = append(parts, fg(colorGray).Render("fresh"))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() { fmt.Println() }
