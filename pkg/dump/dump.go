// Package dump renders the bits behind each decoded field for debugging.
package dump

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ssargent/bitspec/pkg/bitio"
	"github.com/ssargent/bitspec/pkg/codec"
	"github.com/ssargent/bitspec/pkg/layout"
)

// Group is one primitive read: Bits bits holding Value.
type Group struct {
	Value uint64
	Bits  int
}

func (g Group) String() string {
	s := strconv.FormatUint(g.Value, 2)
	if pad := g.Bits - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}

// FieldTrace is the decoded value of one field and the bits it consumed.
type FieldTrace struct {
	Name   string
	Value  any
	Groups []Group
	Bits   int
}

// Trace decodes buf field by field, recording every bit group each field
// reads. On failure it returns the fields decoded so far along with the
// error.
func Trace(l *layout.Layout, buf bitio.Buffer) ([]FieldTrace, error) {
	r := bitio.NewReader(buf)
	var groups []Group
	r.Trace(func(v uint64, bits int) {
		groups = append(groups, Group{Value: v, Bits: bits})
	})

	d := l.NewDecoder(r)
	traces := make([]FieldTrace, 0, l.Len())
	for {
		start := r.Consumed()
		f, v, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return traces, err
		}
		traces = append(traces, FieldTrace{
			Name:   f.Name,
			Value:  v,
			Groups: groups,
			Bits:   r.Consumed() - start,
		})
		groups = nil
	}
	if _, err := d.Finish(); err != nil {
		return traces, err
	}
	return traces, nil
}

// Options controls Fprint output.
type Options struct {
	// Color alternates group colours when the output is a terminal.
	Color bool
}

type styles struct {
	color  bool
	name   lipgloss.Style
	groups [2]lipgloss.Style
	faint  lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	if !color {
		return styles{}
	}
	r := lipgloss.NewRenderer(w)
	return styles{
		color: true,
		name:  r.NewStyle().Bold(true),
		groups: [2]lipgloss.Style{
			r.NewStyle().Foreground(lipgloss.Color("6")),
			r.NewStyle().Foreground(lipgloss.Color("3")),
		},
		faint: r.NewStyle().Faint(true),
	}
}

func (s styles) paint(st lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return st.Render(text)
}

// Fprint writes one line per field:
//
//	name -> 0101 11001010 (value / 12 bits)
//
// Fields decoded before a failure are printed before the error is returned.
func Fprint(w io.Writer, l *layout.Layout, buf bitio.Buffer, opts Options) error {
	traces, err := Trace(l, buf)
	st := newStyles(w, opts.Color)

	width := nameWidth(l)
	for _, t := range traces {
		bits := make([]string, len(t.Groups))
		for i, g := range t.Groups {
			bits[i] = st.paint(st.groups[i%2], g.String())
		}
		if len(bits) == 0 {
			bits = []string{"-"}
		}
		name := st.paint(st.name, fmt.Sprintf("%-*s", width, t.Name))
		detail := st.paint(st.faint, fmt.Sprintf("(%s / %d bits)", FormatValue(t.Value), t.Bits))
		if _, werr := fmt.Fprintf(w, "%s -> %s %s\n", name, strings.Join(bits, " "), detail); werr != nil {
			return werr
		}
	}
	return err
}

// FprintRecord writes "name -> value" for every field of l present in rec.
func FprintRecord(w io.Writer, l *layout.Layout, rec *layout.Record) error {
	width := nameWidth(l)
	for _, f := range l.Fields() {
		v, ok := rec.Get(f.Name)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-*s -> %s\n", width, f.Name, FormatValue(v)); err != nil {
			return err
		}
	}
	return nil
}

// FormatValue renders a decoded value on one line.
func FormatValue(v any) string {
	return formatPlain(codec.Plain(v))
}

func formatPlain(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatPlain(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}

func nameWidth(l *layout.Layout) int {
	width := 0
	for _, f := range l.Fields() {
		if len(f.Name) > width {
			width = len(f.Name)
		}
	}
	return width
}
