package aggregate

import (
	"fmt"
	"sort"
	"strings"
)

// Selection is a client-requested field projection (?select=title,lessonCount).
// Derived fields are computed by the service and never reach the store.
type Selection struct {
	fields  []string
	set     map[string]bool
	derived map[string]bool
}

// ParseSelection splits a comma separated field list. derived names the
// fields that are computed rather than stored.
func ParseSelection(raw string, derived ...string) Selection {
	s := Selection{set: map[string]bool{}, derived: map[string]bool{}}
	for _, d := range derived {
		s.derived[d] = true
	}
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" || s.set[f] {
			continue
		}
		s.set[f] = true
		s.fields = append(s.fields, f)
	}
	return s
}

// Empty means no projection was requested: every field is returned.
func (s Selection) Empty() bool {
	return len(s.fields) == 0
}

// Wants reports whether a field belongs in the result.
func (s Selection) Wants(field string) bool {
	return s.Empty() || s.set[field]
}

func (s Selection) Fields() []string {
	return append([]string(nil), s.fields...)
}

// onlyDerived is true when every requested field is derived, in which case
// the identifying id is kept so the row stays addressable.
func (s Selection) onlyDerived() bool {
	if s.Empty() {
		return false
	}
	for _, f := range s.fields {
		if !s.derived[f] {
			return false
		}
	}
	return true
}

// Columns maps the stored part of the selection onto database columns. id is
// always loaded since derived values are keyed by it. Unknown fields are an
// error. An empty selection returns nil, meaning all columns.
func (s Selection) Columns(columns map[string]string) ([]string, error) {
	if s.Empty() {
		return nil, nil
	}
	cols := []string{"id"}
	seen := map[string]bool{"id": true}
	var unknown []string
	for _, f := range s.fields {
		if s.derived[f] {
			continue
		}
		col, ok := columns[f]
		if !ok {
			unknown = append(unknown, f)
			continue
		}
		if !seen[col] {
			seen[col] = true
			cols = append(cols, col)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown select fields: %s", strings.Join(unknown, ", "))
	}
	return cols, nil
}

// Project trims a decoded row down to the selection.
func (s Selection) Project(row map[string]interface{}) map[string]interface{} {
	if s.Empty() {
		return row
	}
	out := make(map[string]interface{}, len(s.fields)+1)
	for _, f := range s.fields {
		if v, ok := row[f]; ok {
			out[f] = v
		}
	}
	if s.onlyDerived() {
		if id, ok := row["id"]; ok {
			out["id"] = id
		}
	}
	return out
}
