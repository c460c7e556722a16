package access

import "strings"

// fieldSet is the attribute list of a single role grant, in accesscontrol
// notation: "*" for every field, "name" to allow, "!name" to deny, and dotted
// paths ("teacher.username") for nested objects.
type fieldSet struct {
	all   bool
	allow []string
	deny  []string
}

func newFieldSet(attrs []string) fieldSet {
	var fs fieldSet
	for _, a := range attrs {
		a = strings.TrimSpace(a)
		switch {
		case a == "":
		case a == "*":
			fs.all = true
		case strings.HasPrefix(a, "!"):
			if name := strings.TrimSpace(a[1:]); name != "" {
				fs.deny = append(fs.deny, name)
			}
		default:
			fs.allow = append(fs.allow, a)
		}
	}
	return fs
}

func (fs fieldSet) attributes() []string {
	var out []string
	if fs.all {
		out = append(out, "*")
	}
	out = append(out, fs.allow...)
	for _, d := range fs.deny {
		out = append(out, "!"+d)
	}
	return out
}

// within reports whether path equals rule or lies underneath it.
func within(path, rule string) bool {
	return path == rule || strings.HasPrefix(path, rule+".")
}

// below reports whether rule lies strictly underneath path.
func below(path, rule string) bool {
	return strings.HasPrefix(rule, path+".")
}

func (fs fieldSet) covers(path string) bool {
	if fs.all {
		return true
	}
	for _, a := range fs.allow {
		if within(path, a) {
			return true
		}
	}
	return false
}

func (fs fieldSet) excludes(path string) bool {
	for _, d := range fs.deny {
		if within(path, d) {
			return true
		}
	}
	return false
}

type verdict int

const (
	verdictDeny verdict = iota
	verdictPartial
	verdictFull
)

func (fs fieldSet) judge(path string) verdict {
	if fs.excludes(path) {
		return verdictDeny
	}
	if fs.covers(path) {
		for _, d := range fs.deny {
			if below(path, d) {
				return verdictPartial
			}
		}
		return verdictFull
	}
	for _, a := range fs.allow {
		if below(path, a) {
			return verdictPartial
		}
	}
	return verdictDeny
}

// leafAllowed is used for scalars reached under a partial verdict.
func (fs fieldSet) leafAllowed(path string) bool {
	return fs.covers(path) && !fs.excludes(path)
}
