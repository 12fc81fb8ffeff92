package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/deppatcher/pkg/patch"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success, added lines
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors, removed lines
	colorBlue   = lipgloss.Color("75")  // Light blue - hunk markers
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleDiffAdd    = lipgloss.NewStyle().Foreground(colorGreen)
	styleDiffRemove = lipgloss.NewStyle().Foreground(colorRed)
	styleDiffHunk   = lipgloss.NewStyle().Foreground(colorBlue)
	styleDiffFile   = lipgloss.NewStyle().Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printer writes styled status lines.
type printer struct {
	w io.Writer
}

func (p printer) success(format string, args ...any) {
	fmt.Fprintln(p.w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func (p printer) error(format string, args ...any) {
	fmt.Fprintln(p.w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	fmt.Fprintln(p.w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	fmt.Fprintln(p.w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// detail prints an indented, dimmed line.
func (p printer) detail(format string, args ...any) {
	fmt.Fprintln(p.w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// file prints a file output line.
func (p printer) file(path string) {
	fmt.Fprintln(p.w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// =============================================================================
// Reports
// =============================================================================

// change prints one rewritten declaration.
func (p printer) change(ch patch.Change) {
	from := ch.From.String()
	to := ch.To.String()
	line := fmt.Sprintf("    %s %s %s %s",
		StyleHighlight.Render(ch.Path.String()), StyleDim.Render(from), StyleDim.Render(iconArrow), StyleValue.Render(to))
	if ch.Restored {
		line += " " + StyleDim.Render("(restored)")
	}
	fmt.Fprintln(p.w, line)
}

// report prints the outcome of one manifest. Unmodified manifests are
// only listed in verbose mode by the caller.
func (p printer) report(r *patch.Report, dryRun bool) {
	switch {
	case r.Frozen:
		p.success("%s: ledger removed", r.Path)
	case len(r.Changes) > 0:
		p.success("%s: %d %s", r.Path, len(r.Changes), plural(len(r.Changes), "change", "changes"))
		for _, ch := range r.Changes {
			p.change(ch)
		}
	default:
		return
	}
	if dryRun {
		p.diff(r.Path, r.Before, r.After)
	}
}

// diff prints a colored line diff.
func (p printer) diff(path string, before, after []byte) {
	text := formatDiff(path, string(before), string(after), 2)
	if text == "" {
		return
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			body = styleDiffFile.Render(body)
		case strings.HasPrefix(line, "@@"):
			body = styleDiffHunk.Render(body)
		case strings.HasPrefix(line, "+"):
			body = styleDiffAdd.Render(body)
		case strings.HasPrefix(line, "-"):
			body = styleDiffRemove.Render(body)
		}
		fmt.Fprintln(p.w, body)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
