package bang

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholder is the marker in a URL template that receives the encoded query.
const Placeholder = "{{{s}}}"

// Record is a single shortcut definition (a "bang").
type Record struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Key         string `json:"t" yaml:"t"`
	Name        string `json:"s" yaml:"s"`
	URL         string `json:"u" yaml:"u"`
	Domain      string `json:"d" yaml:"d"`
	Category    string `json:"c,omitempty" yaml:"c,omitempty"`
	Rank        *int   `json:"r,omitempty" yaml:"r,omitempty"`
	Subcategory string `json:"sc,omitempty" yaml:"sc,omitempty"`
}

// Filter is a recognised `type:value` clause of a search query.
type Filter struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Query is the tokenized form of a raw search string.
type Query struct {
	Filters []Filter `json:"filters"`
	Terms   []string `json:"terms"`
}

// Empty reports whether the query has neither filters nor terms.
func (q Query) Empty() bool {
	return len(q.Filters) == 0 && len(q.Terms) == 0
}

var (
	ErrNotFound   = errors.New("bang not found")
	ErrInvalid    = errors.New("invalid bang")
	ErrEmptyQuery = errors.New("empty query")
	ErrUnresolved = errors.New("unable to determine redirect URL")
)

// Normalize trims the editable fields, drops a leading "!" from the key and
// fills in a missing domain from the URL template. Key, name and URL are
// required.
func Normalize(rec Record) (Record, error) {
	rec.Key = strings.TrimPrefix(strings.TrimSpace(rec.Key), "!")
	rec.Name = strings.TrimSpace(rec.Name)
	rec.URL = strings.TrimSpace(rec.URL)
	rec.Domain = strings.TrimSpace(rec.Domain)

	switch {
	case rec.Key == "":
		return rec, fmt.Errorf("%w: key is required", ErrInvalid)
	case strings.ContainsAny(rec.Key, " \t\n"):
		return rec, fmt.Errorf("%w: key %q contains whitespace", ErrInvalid, rec.Key)
	case rec.Name == "":
		return rec, fmt.Errorf("%w: name is required", ErrInvalid)
	case rec.URL == "":
		return rec, fmt.Errorf("%w: url is required", ErrInvalid)
	}
	if rec.Domain == "" {
		rec.Domain = InferDomain(rec.URL)
	}
	return rec, nil
}
