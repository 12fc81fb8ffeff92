package cli

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
	old  int // 1-based line in before, 0 for insertions
	new  int // 1-based line in after, 0 for deletions
}

// lineDiff compares two texts line by line.
func lineDiff(before, after string) []diffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []diffLine
	oldN, newN := 1, 1
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			l := diffLine{op: d.Type, text: text}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				l.old, l.new = oldN, newN
				oldN++
				newN++
			case diffmatchpatch.DiffDelete:
				l.old = oldN
				oldN++
			case diffmatchpatch.DiffInsert:
				l.new = newN
				newN++
			}
			out = append(out, l)
		}
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r\n")
	}
	return lines
}

// formatDiff renders a unified-style diff keeping ctx lines of context
// around each change. Identical texts render as "".
func formatDiff(path, before, after string, ctx int) string {
	lines := lineDiff(before, after)
	keep := make([]bool, len(lines))
	changed := false
	for i, l := range lines {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		changed = true
		for j := max(0, i-ctx); j <= min(len(lines)-1, i+ctx); j++ {
			keep[j] = true
		}
	}
	if !changed {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", path, path)
	for i := 0; i < len(lines); i++ {
		if !keep[i] {
			continue
		}
		if i == 0 || !keep[i-1] {
			fmt.Fprintf(&b, "@@ -%d +%d @@\n", hunkStart(lines, i, true), hunkStart(lines, i, false))
		}
		switch lines[i].op {
		case diffmatchpatch.DiffEqual:
			b.WriteString(" ")
		case diffmatchpatch.DiffDelete:
			b.WriteString("-")
		case diffmatchpatch.DiffInsert:
			b.WriteString("+")
		}
		b.WriteString(lines[i].text)
		b.WriteString("\n")
	}
	return b.String()
}

// hunkStart finds the first old or new line number at or after i.
func hunkStart(lines []diffLine, i int, old bool) int {
	for ; i < len(lines); i++ {
		n := lines[i].new
		if old {
			n = lines[i].old
		}
		if n > 0 {
			return n
		}
	}
	return 0
}
