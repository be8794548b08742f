package parsing

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// exclusionSet is an immutable, compiled snapshot of exclusion patterns.
//
// Matching rules:
//   - A pattern without "/" matches any single path element, so "*.dll"
//     excludes Helper.dll anywhere and "node_modules" excludes everything
//     beneath any node_modules directory.
//   - A pattern with "/" matches the full slash-separated path. Relative
//     patterns match at any depth ("vendor/**" behaves as "**/vendor/**").
//   - A pattern that does not compile as a glob is compared literally.
type exclusionSet struct {
	patterns []string
	matchers []exclusionMatcher
}

type exclusionMatcher struct {
	pattern string
	literal string // cleaned pattern for the literal fallback
	element bool
	glob    glob.Glob // nil: literal comparison
}

var emptyExclusions = &exclusionSet{}

func compileExclusions(patterns []string) *exclusionSet {
	set := &exclusionSet{
		patterns: append([]string(nil), patterns...),
		matchers: make([]exclusionMatcher, 0, len(patterns)),
	}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		m := exclusionMatcher{
			pattern: p,
			element: !strings.Contains(p, "/"),
		}
		expr := p
		if !m.element {
			// Matched paths are clean, so "./vendor/**" must become "vendor/**".
			expr = path.Clean(p)
			m.literal = expr
			if !strings.HasPrefix(expr, "/") && !strings.HasPrefix(expr, "**") {
				expr = "**/" + expr
			}
		}
		if g, err := glob.Compile(expr, '/'); err == nil {
			m.glob = g
		}
		set.matchers = append(set.matchers, m)
	}
	return set
}

// Patterns returns a copy of the configured patterns in order.
func (s *exclusionSet) Patterns() []string {
	return append([]string(nil), s.patterns...)
}

// Match returns the first pattern excluding path.
func (s *exclusionSet) Match(path string) (string, bool) {
	if len(s.matchers) == 0 {
		return "", false
	}

	slash := filepath.ToSlash(path)
	var elements []string
	for _, m := range s.matchers {
		if m.element {
			if elements == nil {
				elements = strings.Split(strings.Trim(slash, "/"), "/")
			}
			for _, el := range elements {
				if m.matches(el) {
					return m.pattern, true
				}
			}
			continue
		}
		if m.glob != nil {
			if m.glob.Match(slash) {
				return m.pattern, true
			}
			continue
		}
		if slash == m.literal || strings.HasSuffix(slash, "/"+strings.TrimPrefix(m.literal, "/")) {
			return m.pattern, true
		}
	}
	return "", false
}

func (m exclusionMatcher) matches(s string) bool {
	if m.glob != nil {
		return m.glob.Match(s)
	}
	return s == m.pattern
}
