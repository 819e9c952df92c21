package bang

import (
	"regexp"
	"strings"
)

// Outcome describes how a redirect destination was chosen.
type Outcome string

const (
	// OutcomeResolved: the query named a bang that exists.
	OutcomeResolved Outcome = "resolved"
	// OutcomeDefault: no bang in the query, the default engine was used.
	OutcomeDefault Outcome = "default"
	// OutcomeFallback: the query named an unknown bang, the default engine was used.
	OutcomeFallback Outcome = "fallback"
)

var (
	bangPattern  = regexp.MustCompile(`!(\S+)`)
	stripPattern = regexp.MustCompile(`!\S+\s*`)
)

// Resolution is the result of a successful Resolve.
type Resolution struct {
	URL        string  `json:"url"`
	Record     Record  `json:"bang"`
	CleanQuery string  `json:"cleanQuery"`
	Outcome    Outcome `json:"outcome"`
	// Candidate is the lower-cased bang token found in the query, if any.
	Candidate string `json:"candidate,omitempty"`
}

// Resolve picks the record for query and builds its destination URL.
//
// The first `!token` in query selects the record; without one, or when no
// record has that key, the record keyed defaultKey is used. The first
// `!token` is always removed from the text that is searched, even when it
// did not match a record. An empty or blank remainder sends the browser to
// the record's bare domain; only a zero-length query is rejected.
func Resolve(query string, records []Record, defaultKey string) (Resolution, error) {
	if query == "" {
		return Resolution{}, ErrEmptyQuery
	}

	var res Resolution
	if m := bangPattern.FindStringSubmatch(query); m != nil {
		res.Candidate = strings.ToLower(m[1])
	}

	selected, ok := Record{}, false
	if res.Candidate != "" {
		selected, ok = FindKey(records, res.Candidate)
		res.Outcome = OutcomeResolved
	}
	if !ok {
		selected, ok = FindKey(records, defaultKey)
		res.Outcome = OutcomeDefault
		if res.Candidate != "" {
			res.Outcome = OutcomeFallback
		}
	}
	if !ok {
		return Resolution{Candidate: res.Candidate}, ErrUnresolved
	}
	res.Record = selected

	if loc := stripPattern.FindStringIndex(query); loc != nil {
		query = query[:loc[0]] + query[loc[1]:]
	}
	res.CleanQuery = strings.TrimSpace(query)

	if res.CleanQuery == "" {
		res.URL = "https://" + selected.Domain
		return res, nil
	}
	res.URL = Expand(selected.URL, res.CleanQuery)
	return res, nil
}

// Expand substitutes the encoded query into the first placeholder of tmpl.
// Encoded slashes are restored so "owner/repo" style queries reach the
// target as a path. A template without a placeholder is returned as is.
func Expand(tmpl, query string) string {
	encoded := strings.ReplaceAll(EscapeComponent(query), "%2F", "/")
	return strings.Replace(tmpl, Placeholder, encoded, 1)
}

const upperhex = "0123456789ABCDEF"

// EscapeComponent percent-encodes s the way browsers encode a URI component:
// letters, digits and -_.!~*'() are kept, every other byte is escaped.
func EscapeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
