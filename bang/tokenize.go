package bang

import (
	"regexp"
	"strings"
)

var filterPattern = regexp.MustCompile(`^(\w+):(.+)$`)

// Filter types that narrow the candidate set.
const (
	FilterBang   = "bang"
	FilterKey    = "key"
	FilterDomain = "domain"
	FilterName   = "name"
)

func isFilterType(t string) bool {
	switch t {
	case FilterBang, FilterKey, FilterDomain, FilterName:
		return true
	}
	return false
}

// Tokenize lower-cases and splits raw into filter clauses and plain terms.
// A `type:value` token only becomes a filter when type is recognised;
// anything else stays a plain term, in input order.
func Tokenize(raw string) Query {
	q := Query{Filters: []Filter{}, Terms: []string{}}
	for _, tok := range strings.Fields(strings.ToLower(raw)) {
		m := filterPattern.FindStringSubmatch(tok)
		if m == nil || !isFilterType(m[1]) {
			q.Terms = append(q.Terms, tok)
			continue
		}
		q.Filters = append(q.Filters, Filter{Type: m[1], Value: m[2]})
	}
	return q
}
