package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/stluc/hms/internal/store"
)

// Field is one labelled value printed under the document header.
type Field struct {
	Label string
	Value string
}

// Line is one priced row of a document. Note is printed in a third column
// when set.
type Line struct {
	Label  string
	Amount string
	Note   string
}

// Document is a printable receipt, bill or card.
type Document struct {
	Number   string
	Title    string
	Hospital store.HospitalProfile
	IssuedAt time.Time
	Fields   []Field
	Section  string
	Lines    []Line
	Totals   []Line
	Footer   string
}

const rule = "----------------------------------------"

// Render lays the document out as plain text for a receipt printer.
func (d *Document) Render() []byte {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, d.Hospital.Name)
	if d.Hospital.Address != "" {
		fmt.Fprintln(&buf, d.Hospital.Address)
	}
	if d.Hospital.Phone != "" {
		fmt.Fprintln(&buf, "Tél: "+d.Hospital.Phone)
	}
	fmt.Fprintln(&buf, rule)
	fmt.Fprintln(&buf, d.Title)
	fmt.Fprintln(&buf, "Date: "+FormatDate(d.IssuedAt))
	if d.Number != "" {
		fmt.Fprintln(&buf, "N°: "+d.Number)
	}
	fmt.Fprintln(&buf, rule)

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	for _, f := range d.Fields {
		fmt.Fprintf(w, "%s:\t%s\n", f.Label, f.Value)
	}
	w.Flush()

	if d.Section != "" {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, d.Section)
	}
	writeLines(&buf, d.Lines)
	if len(d.Totals) > 0 {
		fmt.Fprintln(&buf, rule)
		writeLines(&buf, d.Totals)
	}
	if d.Footer != "" {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, d.Footer)
	}
	return buf.Bytes()
}

func writeLines(buf *bytes.Buffer, lines []Line) {
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	for _, l := range lines {
		row := []string{l.Label, l.Amount}
		if l.Note != "" {
			row = append(row, l.Note)
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// FormatAmount prints an amount in gourdes.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f Gdes", v)
}

// FormatDate prints t the way dates are written on the forms (dd/mm/yyyy).
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
