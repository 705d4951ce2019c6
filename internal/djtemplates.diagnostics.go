package internal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rendering constants for pretty-printed diagnostics
const (
	prettyWidth      = 78
	prettyHeadPrefix = "  × " // "  × "
	prettyContPrefix = "  │ " // "  │ "
	prettyHelpPrefix = "  help: "
	prettyHelpIndent = "        "
	prettyFrameTop   = "╭────" // "╭────"
	prettyFrameBot   = "╰────" // "╰────"
)

// Span identifies a byte range in the template source.
type Span struct {
	Start int
	Len   int
}

// End returns the byte offset one past the span.
func (s Span) End() int {
	return s.Start + s.Len
}

// After returns a zero-width span immediately following this one.
func (s Span) After() Span {
	return Span{Start: s.End(), Len: 0}
}

// Label attaches a short annotation to a span of the source.
type Label struct {
	At   Span
	Text string
}

// Diagnostic is a span-aware template error. It is immutable once
// constructed and is the only externally observable effect of any
// compile or render failure.
type Diagnostic struct {
	Message string
	Labels  []Label
	Help    string
}

// Error implements the error interface with the bare message.
func (d *Diagnostic) Error() string {
	return d.Message
}

// NewDiagnostic builds a diagnostic with a single labeled span.
func NewDiagnostic(message string, at Span, label string) *Diagnostic {
	return &Diagnostic{
		Message: message,
		Labels:  []Label{{At: at, Text: label}},
	}
}

// Pretty renders the diagnostic against the template source it was
// produced from: a word-wrapped header, the offending source line with
// aligned span markers and callouts, and an optional help block.
func (d *Diagnostic) Pretty(source string) string {
	return d.PrettyNamed(source, "")
}

// PrettyNamed renders like Pretty but includes the origin name (for
// example a template file path) in the frame header.
func (d *Diagnostic) PrettyNamed(source, name string) string {
	var b strings.Builder
	writeWrapped(&b, d.Message, prettyHeadPrefix, prettyContPrefix)

	if len(d.Labels) > 0 {
		d.writeFrame(&b, source, name)
	}

	if d.Help != "" {
		for i, line := range strings.Split(d.Help, "\n") {
			if i == 0 {
				writeWrapped(&b, line, prettyHelpPrefix, prettyHelpIndent)
			} else {
				writeWrapped(&b, line, prettyHelpIndent, prettyHelpIndent)
			}
		}
	}
	return b.String()
}

// writeWrapped greedily word-wraps text so every emitted line stays
// within prettyWidth columns including its prefix.
func writeWrapped(b *strings.Builder, text, firstPrefix, contPrefix string) {
	prefix := firstPrefix
	line := ""
	flush := func() {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteByte('\n')
		prefix = contPrefix
		line = ""
	}
	for _, word := range strings.Fields(text) {
		if line == "" {
			line = word
			continue
		}
		if utf8.RuneCountInString(prefix)+utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) > prettyWidth {
			flush()
			line = word
			continue
		}
		line += " " + word
	}
	flush()
}

// writeFrame emits the framed source excerpt: every line a label
// covers plus one line of context on each side, each labeled line
// followed by its own span markers and callouts. Multi-line sources
// carry the primary label's line:col origin in the frame header.
func (d *Diagnostic) writeFrame(b *strings.Builder, source, name string) {
	labels := make([]Label, len(d.Labels))
	copy(labels, d.Labels)
	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].At.Start < labels[j].At.Start
	})

	starts := lineStarts(source)
	first := lineIndex(starts, labels[0].At.Start)
	last := first
	for _, l := range labels {
		end := l.At.Start
		if l.At.Len > 0 {
			end = l.At.End() - 1
		}
		if ln := lineIndex(starts, end); ln > last {
			last = ln
		}
	}

	from, to := first, last
	if from > 0 {
		from--
	}
	if to < len(starts)-1 {
		to++
	}

	width := len(strconv.Itoa(to + 1))
	gutter := strings.Repeat(" ", width+2)
	marker := gutter + "· " // "· "

	column := utf8.RuneCountInString(source[starts[first]:labels[0].At.Start]) + 1
	switch {
	case name != "":
		fmt.Fprintf(b, "%s╭─[%s:%d:%d]\n", gutter, name, first+1, column)
	case len(starts) > 1:
		fmt.Fprintf(b, "%s╭─[%d:%d]\n", gutter, first+1, column)
	default:
		fmt.Fprintf(b, "%s%s\n", gutter, prettyFrameTop)
	}

	for ln := from; ln <= to; ln++ {
		lineStart := starts[ln]
		lineEnd := len(source)
		if ln+1 < len(starts) {
			lineEnd = starts[ln+1] - 1
		}
		fmt.Fprintf(b, " %*d │ %s\n", width, ln+1, source[lineStart:lineEnd])
		writeLineMarkers(b, marker, source, lineStart, lineEnd, labels)
	}

	fmt.Fprintf(b, "%s%s\n", gutter, prettyFrameBot)
}

// writeLineMarkers emits the underline and callout rows for the labels
// anchored on one source line. A span reaching past the line clamps to
// the line end.
func writeLineMarkers(b *strings.Builder, marker, source string, lineStart, lineEnd int, labels []Label) {
	// Column arithmetic is in runes so markers line up under
	// multi-byte source text.
	var cols, widths, anchors []int // span start, rune width, ┬/▲ column
	var texts []string
	for _, l := range labels {
		if l.At.Start < lineStart || l.At.Start > lineEnd {
			continue
		}
		end := clamp(l.At.End(), lineStart, lineEnd)
		col := utf8.RuneCountInString(source[lineStart:l.At.Start])
		w := utf8.RuneCountInString(source[l.At.Start:end])
		cols = append(cols, col)
		widths = append(widths, w)
		anchors = append(anchors, col+w/2)
		texts = append(texts, l.Text)
	}
	if len(cols) == 0 {
		return
	}

	// Underline row: all of the line's spans share it.
	row := newMarkerRow()
	for i := range cols {
		if widths[i] == 0 {
			row.set(anchors[i], '▲') // ▲
			continue
		}
		for c := cols[i]; c < cols[i]+widths[i]; c++ {
			row.set(c, '─') // ─
		}
		row.set(anchors[i], '┬') // ┬
	}
	b.WriteString(marker + row.String() + "\n")

	// Callout rows, rightmost label first. Earlier labels keep a
	// vertical bar at their anchor until their own callout prints.
	for i := len(cols) - 1; i >= 0; i-- {
		row = newMarkerRow()
		for j := 0; j < i; j++ {
			row.set(anchors[j], '│') // │
		}
		row.set(anchors[i], '╰') // ╰
		b.WriteString(marker + row.String() + "── " + texts[i] + "\n")
	}
}

// lineStarts returns the byte offset of each line start in source.
func lineStarts(source string) []int {
	starts := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineIndex returns the 0-indexed line containing the byte offset.
func lineIndex(starts []int, offset int) int {
	return sort.SearchInts(starts, offset+1) - 1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// markerRow builds a sparse row of marker runes addressed by column.
type markerRow struct {
	runes []rune
}

func newMarkerRow() *markerRow {
	return &markerRow{}
}

func (r *markerRow) set(col int, ch rune) {
	for len(r.runes) <= col {
		r.runes = append(r.runes, ' ')
	}
	r.runes[col] = ch
}

func (r *markerRow) String() string {
	return string(r.runes)
}
