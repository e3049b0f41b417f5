package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/haview/pkg/app"
	"github.com/matzehuels/haview/pkg/view"
)

// Terminal palette (ANSI 256).
var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorLink   = lipgloss.Color("75")
	colorValue  = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

// Styles shared by the command output and the viewer.
var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleDim     = lipgloss.NewStyle().Foreground(colorMuted)
	StyleValue   = lipgloss.NewStyle().Foreground(colorValue)
	StyleWarning = lipgloss.NewStyle().Foreground(colorWarn)
	StyleError   = lipgloss.NewStyle().Foreground(colorFail)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleCommand     = lipgloss.NewStyle().Foreground(colorLink)
	styleKey         = lipgloss.NewStyle().Foreground(colorLabel).Width(12)
)

// groupColor returns the node color of a topology group.
func groupColor(group string) lipgloss.Color {
	return lipgloss.Color(view.GroupStyle(group).Color)
}

// statusKind selects the icon of a status line.
type statusKind int

const (
	statusOK statusKind = iota
	statusFail
	statusWarn
	statusInfo
)

var statusIcons = [...]struct {
	glyph string
	style lipgloss.Style
}{
	statusOK:   {"✓", lipgloss.NewStyle().Foreground(colorOK)},
	statusFail: {"✗", lipgloss.NewStyle().Foreground(colorFail)},
	statusWarn: {"!", lipgloss.NewStyle().Foreground(colorWarn)},
	statusInfo: {"›", lipgloss.NewStyle().Foreground(colorLabel)},
}

// uiOut receives the human-oriented status lines. Machine output goes to
// the command's own writer instead.
var uiOut = os.Stdout

func statusLine(kind statusKind, format string, args ...any) string {
	icon := statusIcons[kind]
	msg := fmt.Sprintf(format, args...)
	if kind == statusWarn {
		msg = StyleWarning.Render(msg)
	}
	return icon.style.Render(icon.glyph) + " " + msg
}

func printSuccess(format string, args ...any) {
	fmt.Fprintln(uiOut, statusLine(statusOK, format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(uiOut, statusLine(statusInfo, format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(uiOut, statusLine(statusWarn, format, args...))
}

// printDetail prints an indented, muted line below a status line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printNotice prints a controller notice with the icon for its level.
func printNotice(n app.Notice) {
	kind := statusInfo
	switch n.Level {
	case app.LevelError:
		kind = statusFail
	case app.LevelWarn:
		kind = statusWarn
	}
	fmt.Fprintln(uiOut, statusLine(kind, "%s", n))
}

// printFile prints the path of a written file.
func printFile(path string) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render("→")+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(uiOut, styleKey.Render(key)+" "+StyleValue.Render(value))
}

func printStats(nodeCount, edgeCount, dropped int) {
	fmt.Fprintln(uiOut, statsLine(nodeCount, edgeCount, dropped))
}

// statsLine formats graph counts as "  6 nodes · 5 edges", adding the
// number of dropped elements when there are any.
func statsLine(nodeCount, edgeCount, dropped int) string {
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d nodes", nodeCount)),
		StyleDim.Render(fmt.Sprintf("%d edges", edgeCount)),
	}
	if dropped > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d dropped", dropped)))
	}
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(uiOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}
