package access

import "sort"

// Grant is the outcome of evaluating a role set against the policy for one
// (resource, action, possession) triple. Attributes of several roles are
// unioned: a field is allowed when any contributing role allows it.
type Grant struct {
	Granted bool
	sets    []fieldSet
}

func newGrant(attrLists [][]string) Grant {
	g := Grant{}
	for _, attrs := range attrLists {
		g.sets = append(g.sets, newFieldSet(attrs))
	}
	g.Granted = len(g.sets) > 0
	return g
}

// AllowsAll is true when at least one role grants every field without
// exceptions.
func (g Grant) AllowsAll() bool {
	for _, fs := range g.sets {
		if fs.all && len(fs.deny) == 0 {
			return true
		}
	}
	return false
}

// AllowedFields returns the attribute notation of every contributing role, or
// ["*"] when the grant allows all fields.
func (g Grant) AllowedFields() []string {
	if g.AllowsAll() {
		return []string{"*"}
	}
	seen := map[string]bool{}
	var out []string
	for _, fs := range g.sets {
		for _, a := range fs.attributes() {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Allows reports whether a single field path is readable or writable.
func (g Grant) Allows(path string) bool {
	for _, fs := range g.sets {
		if fs.leafAllowed(path) {
			return true
		}
	}
	return false
}

func (g Grant) judge(path string) verdict {
	best := verdictDeny
	for _, fs := range g.sets {
		if v := fs.judge(path); v > best {
			best = v
		}
	}
	return best
}

// Filter returns a copy of a decoded JSON value with every field the grant
// does not allow removed. Maps are filtered key by key, slices element by
// element, at any depth. Removed keys are absent, not null.
func (g Grant) Filter(value interface{}) interface{} {
	if !g.Granted {
		return emptyLike(value)
	}
	if g.AllowsAll() {
		return value
	}
	return g.filter(value, "")
}

// FilterPayload strips disallowed keys from a write payload. It never fails;
// the caller is not told which keys were dropped.
func (g Grant) FilterPayload(payload map[string]interface{}) map[string]interface{} {
	if payload == nil {
		return nil
	}
	out, _ := g.Filter(payload).(map[string]interface{})
	if out == nil {
		out = map[string]interface{}{}
	}
	return out
}

func (g Grant) filter(value interface{}, prefix string) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, child := range v {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			switch g.judge(path) {
			case verdictFull:
				out[key] = child
			case verdictPartial:
				if isContainer(child) {
					out[key] = g.filter(child, path)
				} else if g.Allows(path) {
					out[key] = child
				}
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		for _, item := range v {
			if isContainer(item) {
				out = append(out, g.filter(item, prefix))
			} else if prefix == "" || g.Allows(prefix) {
				out = append(out, item)
			}
		}
		return out
	default:
		return value
	}
}

func isContainer(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return true
	}
	return false
}

func emptyLike(v interface{}) interface{} {
	switch v.(type) {
	case []interface{}:
		return []interface{}{}
	case map[string]interface{}:
		return map[string]interface{}{}
	}
	return nil
}
