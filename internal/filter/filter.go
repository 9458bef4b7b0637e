// Package filter normalizes the two accepted filter shapes into the portal's
// a(sa(us)) structure.
//
// The native shape is an ordered list of (name, spec) pairs where spec is a
// comma-separated list of bare extensions ("c,cpp"). The Windows shape is a
// single buffer of alternating name and pattern strings separated by NUL
// bytes and terminated by a double NUL ("Text\x00*.TXT\x00\x00"), where each
// pattern is a semicolon-separated glob list.
package filter

import "strings"

// Glob marks a pattern rule as a glob; the portal also defines 1 for MIME
// types, which this bridge never emits.
const Glob uint32 = 0

// AllFilesName is the display name of the catch-all entry.
const AllFilesName = "All files"

// Item is one native-shape filter: a display name and a comma-separated
// extension spec without wildcards or dots.
type Item struct {
	Name string
	Spec string
}

// Rule is one (kind, pattern) pair of the portal schema. Field order matters:
// godbus marshals the struct as (us).
type Rule struct {
	Kind    uint32
	Pattern string
}

// Filter is one (name, rules) entry of the portal schema, marshalled as
// (sa(us)).
type Filter struct {
	Name  string
	Rules []Rule
}

// FromItem encodes a native filter item. The display name is
// "Name (ext1, ext2)" and each extension becomes a *.ext glob.
func FromItem(it Item) Filter {
	exts := strings.Split(it.Spec, ",")
	rules := make([]Rule, len(exts))
	for i, ext := range exts {
		rules[i] = Rule{Kind: Glob, Pattern: "*." + ext}
	}
	return Filter{
		Name:  it.Name + " (" + strings.Join(exts, ", ") + ")",
		Rules: rules,
	}
}

// Wildcard returns the catch-all entry. An empty name selects the default
// display name.
func Wildcard(name string) Filter {
	if name == "" {
		name = AllFilesName
	}
	return Filter{Name: name, Rules: []Rule{{Kind: Glob, Pattern: "*"}}}
}

// FromWinEntry encodes one Windows-shape pair. Each semicolon-separated glob
// becomes its own rule, case-wrapped. An empty pattern collapses to the
// wildcard entry under the given name.
func FromWinEntry(name, pattern string) Filter {
	if pattern == "" {
		return Wildcard(name)
	}
	globs := strings.Split(pattern, ";")
	rules := make([]Rule, len(globs))
	for i, g := range globs {
		rules[i] = Rule{Kind: Glob, Pattern: CaseInsensitivePattern(g)}
	}
	return Filter{Name: name, Rules: rules}
}

// CaseInsensitivePattern wraps every ASCII letter of a glob in a [xX] class
// so the portal matches it case-insensitively. Every letter is wrapped
// regardless of its role in the glob; non-letters pass through unchanged.
func CaseInsensitivePattern(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case 'a' <= c && c <= 'z':
			b.WriteByte('[')
			b.WriteByte(c)
			b.WriteByte(c - 'a' + 'A')
			b.WriteByte(']')
		case 'A' <= c && c <= 'Z':
			b.WriteByte('[')
			b.WriteByte(c - 'A' + 'a')
			b.WriteByte(c)
			b.WriteByte(']')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// WinEntry is one parsed pair of the Windows buffer. An empty Pattern means
// the entry is the trailing "all files" collapse.
type WinEntry struct {
	Name    string
	Pattern string
}

// ParseWin walks the alternating name/pattern buffer. A missing or empty
// pattern ends the list: the malformed tail behaves like *.* on Windows, so
// the entry is kept with an empty pattern and everything after it is
// ignored. The terminating double NUL is optional.
func ParseWin(buf string) []WinEntry {
	var entries []WinEntry
	for len(buf) > 0 {
		name, rest := cutNUL(buf)
		if name == "" {
			break
		}
		pattern, rest := cutNUL(rest)
		entries = append(entries, WinEntry{Name: name, Pattern: pattern})
		if pattern == "" {
			break
		}
		buf = rest
	}
	return entries
}

func cutNUL(s string) (head, rest string) {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// ExtensionOf returns the bare extension of a filename, without the dot.
// Returns "" when the name has no usable extension.
func ExtensionOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}

// MatchesExtension reports whether extn appears verbatim in the item's
// comma-separated spec. Comparison is byte-exact, not case-folded.
func MatchesExtension(it Item, extn string) bool {
	if extn == "" {
		return false
	}
	for spec := it.Spec; spec != ""; {
		var tok string
		if i := strings.IndexByte(spec, ','); i >= 0 {
			tok, spec = spec[:i], spec[i+1:]
		} else {
			tok, spec = spec, ""
		}
		if tok == extn {
			return true
		}
	}
	return false
}
