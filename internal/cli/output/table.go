package output

import (
	"encoding/json"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
)

// MaxCellWidth is the longest cell rendered when not in wide mode.
const MaxCellWidth = 60

// TableFormatter formats data as an aligned table.
//
// Maps render as NAME/VALUE rows sorted by name with values as compact
// JSON, structs as FIELD/VALUE rows, anything else as a single JSON line.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format formats data as a table.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	var table *Table
	switch d := data.(type) {
	case *Table:
		table = d
	case Table:
		table = &d
	case map[string]any:
		table = mapToTable(d)
	default:
		v := reflect.ValueOf(data)
		if v.Kind() == reflect.Ptr && !v.IsNil() {
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			line, err := compactJSON(data)
			if err != nil {
				return err
			}
			_, err = io.WriteString(w, f.cell(line)+"\n")
			return err
		}
		table = structToTable(v)
	}

	if !f.Wide {
		table = table.truncated()
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

func (f *TableFormatter) cell(s string) string {
	if f.Wide {
		return s
	}
	return truncate(s)
}

func mapToTable(m map[string]any) *Table {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	t := &Table{Headers: []string{"NAME", "VALUE"}}
	for _, name := range names {
		val, err := compactJSON(m[name])
		if err != nil {
			val = "<" + err.Error() + ">"
		}
		t.AddRow(name, val)
	}
	return t
}

func structToTable(v reflect.Value) *Table {
	t := &Table{Headers: []string{"FIELD", "VALUE"}}
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			if n := strings.Split(tag, ",")[0]; n != "" && n != "-" {
				name = n
			}
		}
		t.AddRow(name, formatValue(v.Field(i)))
	}
	return t
}

func formatValue(v reflect.Value) string {
	if v.Kind() == reflect.String {
		if v.String() == "" {
			return "-"
		}
		return v.String()
	}
	s, err := compactJSON(v.Interface())
	if err != nil {
		return "-"
	}
	return s
}

func compactJSON(v any) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxCellWidth {
		return s
	}
	return string(r[:MaxCellWidth-3]) + "..."
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		io.WriteString(tw, strings.Join(t.Headers, "\t")+"\n")
	}
	for _, row := range t.Rows {
		io.WriteString(tw, strings.Join(row, "\t")+"\n")
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) truncated() *Table {
	out := &Table{Headers: t.Headers, Rows: make([][]string, len(t.Rows))}
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = truncate(c)
		}
		out.Rows[i] = cells
	}
	return out
}
