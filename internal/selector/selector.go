// Package selector parses compact element#id.class queries.
package selector

import "strings"

// Wildcard matches every node.
const Wildcard = "*"

// Selector is a parsed query. Empty fields are unconstrained.
type Selector struct {
	Kind     string
	ID       string
	Classes  []string
	wildcard bool
}

// Parse splits s into an optional leading element kind, an optional #id and
// zero or more .class tokens. Malformed input yields empty fields.
func Parse(s string) Selector {
	s = strings.TrimSpace(s)
	if s == Wildcard {
		return Selector{wildcard: true}
	}

	var sel Selector
	end := strings.IndexAny(s, "#.")
	if end < 0 {
		sel.Kind = s
		return sel
	}
	sel.Kind = s[:end]

	rest := s[end:]
	for len(rest) > 0 {
		marker := rest[0]
		rest = rest[1:]
		next := strings.IndexAny(rest, "#.")
		if next < 0 {
			next = len(rest)
		}
		token := rest[:next]
		rest = rest[next:]
		if token == "" {
			continue
		}
		switch marker {
		case '#':
			if sel.ID == "" {
				sel.ID = token
			}
		case '.':
			sel.Classes = append(sel.Classes, token)
		}
	}
	return sel
}

// IsWildcard reports whether the selector was "*".
func (s Selector) IsWildcard() bool {
	return s.wildcard
}

// ClassName returns the classes joined by a single space.
func (s Selector) ClassName() string {
	return strings.Join(s.Classes, " ")
}

// Match reports whether a node with the given kind, id and class string is
// selected. Classes compare as the joined class string.
func (s Selector) Match(kind, id, className string) bool {
	if s.wildcard {
		return true
	}
	if s.Kind != "" && s.Kind != kind {
		return false
	}
	if s.ID != "" && s.ID != id {
		return false
	}
	if cn := s.ClassName(); cn != "" && cn != className {
		return false
	}
	return true
}

// String rebuilds the canonical selector text.
func (s Selector) String() string {
	if s.wildcard {
		return Wildcard
	}
	var b strings.Builder
	b.WriteString(s.Kind)
	if s.ID != "" {
		b.WriteByte('#')
		b.WriteString(s.ID)
	}
	for _, c := range s.Classes {
		b.WriteByte('.')
		b.WriteString(c)
	}
	return b.String()
}
