package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// DiagKind classifies a diagnostic by the pass that produced it.
type DiagKind int

const (
	DiagLex DiagKind = iota
	DiagParse
	DiagScope
	DiagName
	DiagType
)

var diagHeaders = [...]string{
	DiagLex:   "Lexical Error",
	DiagParse: "Syntax Error",
	DiagScope: "Scope Error",
	DiagName:  "Name Error",
	DiagType:  "Type Error",
}

func (k DiagKind) String() string {
	if int(k) >= 0 && int(k) < len(diagHeaders) {
		return diagHeaders[k]
	}
	return fmt.Sprintf("DiagKind(%d)", int(k))
}

// Span marks a region of source text. Lines and columns are 1-based, and
// EndCol is one past the last column, so the character at EndCol is not
// part of the span. A zero-width span (EndCol == StartCol) anchors a point
// rather than a range, e.g. the position of an end-of-file token.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// joinSpans returns the smallest span containing both a and b.
func joinSpans(a, b Span) Span {
	s := a
	if b.StartLine < s.StartLine || (b.StartLine == s.StartLine && b.StartCol < s.StartCol) {
		s.StartLine, s.StartCol = b.StartLine, b.StartCol
	}
	if b.EndLine > s.EndLine || (b.EndLine == s.EndLine && b.EndCol > s.EndCol) {
		s.EndLine, s.EndCol = b.EndLine, b.EndCol
	}
	return s
}

// Problem is a single finding: a source span plus the message describing
// what is wrong there.
type Problem struct {
	Span
	Message string
}

// Diag is one renderable diagnostic. A diagnostic may carry several
// problems when one statement has more than one thing wrong with it; they
// render together under a single header above the offending source lines.
type Diag struct {
	Kind     DiagKind
	Problems []Problem

	firstLine int      // 1-based line number of window[0]
	window    []string // source lines covered by the problems
}

// NewDiag builds a diagnostic from problems found in the given source
// lines. The slice of lines spanned by the problems is captured so the
// diagnostic can render itself later without the source at hand.
func NewDiag(kind DiagKind, problems []Problem, lines []string) *Diag {
	first, last := problems[0].StartLine, problems[0].EndLine
	for _, p := range problems[1:] {
		if p.StartLine < first {
			first = p.StartLine
		}
		if p.EndLine > last {
			last = p.EndLine
		}
	}
	if first < 1 {
		first = 1
	}
	if last > len(lines) {
		last = len(lines)
	}
	d := &Diag{Kind: kind, Problems: problems, firstLine: first}
	if first <= last {
		d.window = lines[first-1 : last]
	}
	return d
}

// StartLine reports the first source line the diagnostic touches. Merged
// reports are ordered by this value.
func (d *Diag) StartLine() int { return d.firstLine }

func (d *Diag) String() string { return d.Error() }

// Error renders the diagnostic: a header naming the kind, then each source
// line in the window followed by a caret row marking the problem spans and
// one row per problem message, stacked so every message lines up under the
// column where its problem begins.
func (d *Diag) Error() string {
	var b strings.Builder
	b.WriteString(d.Kind.String())
	b.WriteString("\n~~~~~~~~~~~~~~~~~~~\n")
	for i, line := range d.window {
		d.renderLine(&b, d.firstLine+i, line)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (d *Diag) renderLine(b *strings.Builder, lineNo int, line string) {
	fmt.Fprintf(b, "%d | %s\n", lineNo, line)
	pad := strings.Repeat(" ", len(strconv.Itoa(lineNo)))

	// A problem can anchor past the end of the text, e.g. at an
	// end-of-file token. Widen the rows so its caret and message still
	// have a column to sit in.
	width := len(line)
	for _, p := range d.Problems {
		if p.StartLine == lineNo && p.StartCol > width {
			width = p.StartCol
		}
	}

	carets := make([]byte, width)
	for i := range carets {
		carets[i] = ' '
	}
	any := false
	for _, p := range d.Problems {
		if lineNo < p.StartLine || lineNo > p.EndLine {
			continue
		}
		from, to := 0, len(line)
		if lineNo == p.StartLine {
			from = p.StartCol - 1
		}
		if lineNo == p.EndLine {
			to = p.EndCol - 1
		}
		if lineNo == p.StartLine && to <= from {
			to = from + 1 // zero-width spans still get one caret
		}
		if to > width {
			to = width
		}
		for c := from; c < to; c++ {
			carets[c] = '^'
			any = true
		}
	}
	if any {
		fmt.Fprintf(b, "%s | %s\n", pad, strings.TrimRight(string(carets), " "))
	}

	var onLine []Problem
	for _, p := range d.Problems {
		if p.StartLine == lineNo {
			onLine = append(onLine, p)
		}
	}
	count := len(onLine)

	// Messages stack bottom-up: the last problem's message prints first,
	// with a '|' in the columns of the problems still waiting, so each
	// message ends up directly under its own caret.
	for j := 0; j < count; j++ {
		b.WriteString(pad)
		b.WriteString(" | ")
		slot := 0
		for c := 0; c < width && slot < count; c++ {
			if c == onLine[slot].StartCol-1 {
				if slot < count-1-j {
					b.WriteByte('|')
					slot++
				} else {
					b.WriteString(onLine[slot].Message)
					break
				}
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
}

// Report accumulates the diagnostics produced by one pass.
type Report struct {
	Diags []*Diag
}

// Add appends diagnostics to the report.
func (r *Report) Add(diags ...*Diag) {
	r.Diags = append(r.Diags, diags...)
}

// Empty reports whether the pass found nothing wrong.
func (r *Report) Empty() bool { return r == nil || len(r.Diags) == 0 }

// Problems counts the individual problems across all diagnostics.
func (r *Report) Problems() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, d := range r.Diags {
		n += len(d.Problems)
	}
	return n
}

// String renders every diagnostic in order, separated by blank lines.
func (r *Report) String() string {
	if r == nil {
		return ""
	}
	parts := make([]string, len(r.Diags))
	for i, d := range r.Diags {
		parts[i] = d.Error()
	}
	return strings.Join(parts, "\n\n")
}

// MergeReports interleaves several reports into one, ordered by the first
// source line of each diagnostic. Ties keep the order the reports were
// listed in, so when two passes flag the same line the earlier pass's
// diagnostic prints first.
func MergeReports(reports ...*Report) *Report {
	merged := &Report{}
	idx := make([]int, len(reports))
	for {
		best := -1
		for i, r := range reports {
			if r == nil || idx[i] >= len(r.Diags) {
				continue
			}
			if best == -1 || r.Diags[idx[i]].StartLine() < reports[best].Diags[idx[best]].StartLine() {
				best = i
			}
		}
		if best == -1 {
			return merged
		}
		merged.Add(reports[best].Diags[idx[best]])
		idx[best]++
	}
}
