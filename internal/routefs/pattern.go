package routefs

import (
	"fmt"
	"path"
	"strings"
)

// Bindings maps variable names to the path segments they captured.
type Bindings map[string]string

// A pattern segment is exactly one of: a literal that must match the
// concrete segment byte for byte, a ":name" variable that captures one
// segment, or a trailing "*name" variable that captures all remaining
// segments joined by "/".
type segment struct {
	literal string
	name    string // variable name, empty for literals
	rest    bool
}

// Pattern is a parsed path pattern. Matching is purely structural on
// "/"-delimited segments; there is no globbing beyond variable capture.
type Pattern struct {
	raw      string
	segments []segment
	vars     int
}

// ParsePattern parses a pattern such as "/docs/by-id/:id/content.txt".
// A "*name" segment is only valid in the last position.
func ParsePattern(raw string) (*Pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return nil, fmt.Errorf("pattern %q: must be absolute", raw)
	}
	p := &Pattern{raw: raw}
	parts := splitPath(raw)
	for i, part := range parts {
		switch {
		case strings.HasPrefix(part, ":"):
			name := part[1:]
			if name == "" {
				return nil, fmt.Errorf("pattern %q: empty variable name", raw)
			}
			p.segments = append(p.segments, segment{name: name})
			p.vars++
		case strings.HasPrefix(part, "*"):
			name := part[1:]
			if name == "" {
				return nil, fmt.Errorf("pattern %q: empty rest variable name", raw)
			}
			if i != len(parts)-1 {
				return nil, fmt.Errorf("pattern %q: rest variable must be last", raw)
			}
			p.segments = append(p.segments, segment{name: name, rest: true})
			p.vars++
		case part == "":
			return nil, fmt.Errorf("pattern %q: empty segment", raw)
		default:
			p.segments = append(p.segments, segment{literal: part})
		}
	}
	return p, nil
}

// MustPattern is ParsePattern for statically known patterns.
func MustPattern(raw string) *Pattern {
	p, err := ParsePattern(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pattern as written.
func (p *Pattern) String() string { return p.raw }

// VarCount is the pattern's specificity score: the number of variable
// segments. Lower is more specific.
func (p *Pattern) VarCount() int { return p.vars }

// Match reports whether the concrete path matches the pattern and, if
// so, returns the variable bindings. A pattern with zero variables
// matches only the identical literal path.
func (p *Pattern) Match(concrete string) (Bindings, bool) {
	parts := splitPath(concrete)
	bindings := make(Bindings, p.vars)
	for i, seg := range p.segments {
		if seg.rest {
			// Trailing rest variable: needs at least one segment left.
			if i >= len(parts) {
				return nil, false
			}
			bindings[seg.name] = strings.Join(parts[i:], "/")
			return bindings, true
		}
		if i >= len(parts) {
			return nil, false
		}
		switch {
		case seg.name != "":
			bindings[seg.name] = parts[i]
		case seg.literal != parts[i]:
			return nil, false
		}
	}
	if len(parts) != len(p.segments) {
		return nil, false
	}
	return bindings, true
}

// IsSidecarPath reports whether the path names a filesystem metadata
// sidecar (AppleDouble "._*" shadow files the macOS kernel probes for
// extended attributes). These are rejected with ENOTSUP before any
// route is consulted so they can neither false-positive against a
// variable segment nor trigger accessor side effects.
func IsSidecarPath(concrete string) bool {
	return strings.HasPrefix(path.Base(concrete), "._")
}

// splitPath splits a "/"-delimited path into its segments. The root
// path "/" has zero segments.
func splitPath(s string) []string {
	s = strings.Trim(s, "/")
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}
