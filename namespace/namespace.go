// Package namespace matches names against debug-style namespace queries
// such as "db:*,http:*,-http:health".
//
// A query is split on whitespace and commas. "*" matches anything, a leading
// "-" turns a pattern into a skip, and every pattern is anchored at both ends.
// Skips win over names. Patterns are regular expressions, so "." is a
// wildcard character; patterns that fail to compile are ignored.
package namespace

import (
	"regexp"
	"strings"
	"sync"
)

var separators = regexp.MustCompile(`[\s,]+`)

// Matcher tests names against a query. Safe for concurrent use; the query
// can be replaced at any time with UpdateQuery.
type Matcher struct {
	names []*regexp.Regexp
	skips []*regexp.Regexp
	query string
	mu    sync.RWMutex
}

// NewMatcher compiles query into a Matcher.
func NewMatcher(query string) *Matcher {
	m := &Matcher{}
	m.UpdateQuery(query)
	return m
}

// UpdateQuery recompiles the matcher for a new query.
func (m *Matcher) UpdateQuery(query string) {
	var names, skips []*regexp.Regexp
	for _, part := range separators.Split(query, -1) {
		if part == "" {
			continue
		}
		pattern := strings.ReplaceAll(part, "*", ".*?")
		skip := false
		if strings.HasPrefix(pattern, "-") {
			skip = true
			pattern = pattern[1:]
		}
		re, err := regexp.Compile("^" + pattern + "$")
		if err != nil {
			continue
		}
		if skip {
			skips = append(skips, re)
		} else {
			names = append(names, re)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.query = query
	m.names = names
	m.skips = skips
}

// Query returns the current query.
func (m *Matcher) Query() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.query
}

// Test reports whether name is enabled by the query. A name ending in "*"
// always matches.
func (m *Matcher) Test(name string) bool {
	if strings.HasSuffix(name, "*") {
		return true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, re := range m.skips {
		if re.MatchString(name) {
			return false
		}
	}
	for _, re := range m.names {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
