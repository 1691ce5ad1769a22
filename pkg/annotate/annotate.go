// Package annotate applies the calculator to a text document the way an
// editor command does: evaluate the selection (or the current line when
// nothing is selected), then either report a verdict or append the result.
package annotate

import (
	"strings"

	"github.com/lemonberrylabs/timecalc/pkg/expr"
	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// Position is a zero-based line and byte column in a Document.
type Position struct {
	Line   int
	Column int
}

// Before reports whether p comes before q.
func (p Position) Before(q Position) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Column < q.Column)
}

// Selection is a range of a Document. Start and End may be in either
// order. Active is the line holding the cursor, used when the selection is
// empty.
type Selection struct {
	Start  Position
	End    Position
	Active int
}

// Empty reports whether the selection covers no text.
func (s Selection) Empty() bool {
	return s.Start == s.End
}

// Cursor returns an empty selection with the cursor on the given line.
func Cursor(line int) Selection {
	return Selection{Active: line}
}

// Document is a text buffer split into lines.
type Document struct {
	Lines []string
}

// NewDocument splits text into lines.
func NewDocument(text string) *Document {
	return &Document{Lines: strings.Split(text, "\n")}
}

// String joins the document's lines.
func (d *Document) String() string {
	return strings.Join(d.Lines, "\n")
}

// LineRange returns a selection spanning the whole given line.
func (d *Document) LineRange(line int) Selection {
	return Selection{
		Start:  Position{Line: line},
		End:    Position{Line: line, Column: len(d.Lines[line])},
		Active: line,
	}
}

// Text returns the text covered by the selection. Positions outside the
// document are clamped and a reversed selection reads the same as the
// forward one.
func (d *Document) Text(sel Selection) string {
	start, end := d.bounds(sel)
	if start.Line == end.Line {
		return d.Lines[start.Line][start.Column:end.Column]
	}
	var sb strings.Builder
	sb.WriteString(d.Lines[start.Line][start.Column:])
	for i := start.Line + 1; i < end.Line; i++ {
		sb.WriteByte('\n')
		sb.WriteString(d.Lines[i])
	}
	sb.WriteByte('\n')
	sb.WriteString(d.Lines[end.Line][:end.Column])
	return sb.String()
}

// Insert inserts text at the given position.
func (d *Document) Insert(pos Position, text string) {
	pos = d.clamp(pos)
	line := d.Lines[pos.Line]
	d.Lines[pos.Line] = line[:pos.Column] + text + line[pos.Column:]
}

// bounds returns the clamped selection ends in document order.
func (d *Document) bounds(sel Selection) (start, end Position) {
	start, end = d.clamp(sel.Start), d.clamp(sel.End)
	if end.Before(start) {
		start, end = end, start
	}
	return start, end
}

func (d *Document) clamp(p Position) Position {
	if len(d.Lines) == 0 {
		d.Lines = []string{""}
	}
	if p.Line < 0 {
		p = Position{}
	}
	if p.Line >= len(d.Lines) {
		p.Line = len(d.Lines) - 1
		p.Column = len(d.Lines[p.Line])
	}
	if p.Column < 0 {
		p.Column = 0
	}
	if p.Column > len(d.Lines[p.Line]) {
		p.Column = len(d.Lines[p.Line])
	}
	return p
}

// Kind says what the caller should do with an Outcome.
type Kind int

const (
	// Insert means Text should be inserted at Position.
	Insert Kind = iota
	// Notify means Message should be shown to the user.
	Notify
	// Failure means Message is an error to show to the user.
	Failure
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Notify:
		return "notify"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of applying the calculator to a selection.
type Outcome struct {
	Kind     Kind
	Position Position // Insert
	Text     string   // Insert: " = <result>"
	Message  string   // Notify, Failure
	Value    types.Value
	Err      error
}

// Apply evaluates the selected text of doc. An empty selection is widened to
// the active line. Verdicts become notifications, other results an
// insertion of " = <result>" at the end of the selection, and errors a
// failure carrying the error message unchanged. The document is not
// modified; see Run.
func Apply(doc *Document, sel Selection) Outcome {
	if sel.Empty() {
		sel = doc.LineRange(doc.clamp(Position{Line: sel.Active}).Line)
	}
	out := evaluate(doc.Text(sel))
	if out.Kind == Insert {
		_, out.Position = doc.bounds(sel)
	}
	return out
}

// Run is Apply followed by performing the insertion, if any.
func Run(doc *Document, sel Selection) Outcome {
	out := Apply(doc, sel)
	if out.Kind == Insert {
		doc.Insert(out.Position, out.Text)
	}
	return out
}

// Line applies the calculator to a single line of text.
func Line(text string) Outcome {
	out := evaluate(text)
	if out.Kind == Insert {
		out.Position = Position{Column: len(text)}
	}
	return out
}

func evaluate(text string) Outcome {
	v, err := expr.Calculate(text)
	if err != nil {
		return Outcome{Kind: Failure, Message: err.Error(), Err: err}
	}
	if v.Type() == types.TypeBool {
		return Outcome{Kind: Notify, Message: expr.Format(v), Value: v}
	}
	return Outcome{Kind: Insert, Text: " = " + expr.Format(v), Value: v}
}
