package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trailpost/tours-api/internal/query"
)

type kind int

const (
	kindText kind = iota
	kindNumeric
	kindBool
	kindTime
)

// Column is one filterable/sortable column: its SQL name and the type
// its bound arguments must have.
type Column struct {
	Name string
	Kind kind
}

// Columns maps API field names to table columns. Rendering a query.Spec
// only ever goes through this map, so client input can never reach the
// SQL text; unknown fields are dropped.
type Columns map[string]Column

// renderSpec appends WHERE/ORDER BY/LIMIT/OFFSET for spec to a base
// SELECT. Conditions whose field is not in cols are skipped, as are
// unknown sort keys; an empty sort falls back to the package default.
func renderSpec(base string, cols Columns, spec query.Spec) (string, []any) {
	var b strings.Builder
	b.WriteString(base)

	args := make([]any, 0, len(spec.Conditions)+2)

	var where []string
	for _, c := range spec.Conditions {
		col, ok := cols[c.Field]
		if !ok {
			continue
		}
		arg, ok := condArg(col, c.Value)
		if !ok {
			// the value can never inhabit the column's type, so the
			// condition matches nothing; never let it reach Postgres
			where = append(where, "false")
			continue
		}
		args = append(args, arg)
		where = append(where, fmt.Sprintf("%s %s $%d", col.Name, c.Op, len(args)))
	}
	if len(where) > 0 {
		if strings.Contains(base, " WHERE ") {
			b.WriteString(" AND ")
		} else {
			b.WriteString(" WHERE ")
		}
		b.WriteString(strings.Join(where, " AND "))
	}

	var order []string
	for _, o := range spec.Sort {
		col, ok := cols[o.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		order = append(order, col.Name+" "+dir)
	}
	if len(order) == 0 {
		col := cols["createdAt"].Name
		if col == "" {
			col = "created_at"
		}
		order = append(order, col+" DESC")
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(order, ", "))

	args = append(args, spec.Limit)
	b.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	args = append(args, spec.Offset())
	b.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	return b.String(), args
}

func itoa(n int) string { return strconv.Itoa(n) }

var timeLayouts = []string{time.RFC3339, "2006-01-02"}

// condArg converts a raw query-string value into the bound argument for
// its column, typed by the column and never guessed from the value: a
// text column keeps "2024" or "true" as a string. ok=false means the
// value cannot inhabit the column's type (e.g. ?price=cheap).
func condArg(c Column, v string) (any, bool) {
	switch c.Kind {
	case kindNumeric:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	case kindBool:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	case kindTime:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
		return nil, false
	default:
		return v, true
	}
}

// renderPatch builds the SET clause of a partial update from an
// allowlist-filtered patch. Returns ok=false when nothing in the patch
// survived the allowlist.
func renderPatch(patch map[string]any, cols Columns) (string, []any, bool) {
	var set []string
	var args []any
	for field, value := range patch {
		col, ok := cols[field]
		if !ok {
			continue
		}
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", col.Name, len(args)))
	}
	if len(set) == 0 {
		return "", nil, false
	}
	set = append(set, "updated_at = now()")
	return strings.Join(set, ", "), args, true
}
