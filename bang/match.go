package bang

import (
	"sort"
	"strings"
)

// Score weights, per term.
const (
	scoreKeyExact  = 100
	scoreKeyPrefix = 50
	scoreKeyInfix  = 20
	scoreName      = 10
	scoreDomain    = 5
)

// Scored pairs a record with its accumulated score.
type Scored struct {
	Record Record `json:"bang"`
	Score  int    `json:"score"`
}

// Match filters records by q.Filters and, when q has terms, drops records
// that score zero and orders the rest by descending score. Equal scores
// keep store order.
func Match(records []Record, q Query) []Record {
	ranked := Rank(records, q)
	out := make([]Record, len(ranked))
	for i, s := range ranked {
		out[i] = s.Record
	}
	return out
}

// Rank is Match with the scores kept. Without terms every surviving record
// has score 0 and store order is returned.
func Rank(records []Record, q Query) []Scored {
	candidates := applyFilters(records, q.Filters)

	out := make([]Scored, 0, len(candidates))
	if len(q.Terms) == 0 {
		for _, r := range candidates {
			out = append(out, Scored{Record: r})
		}
		return out
	}

	for _, r := range candidates {
		if score := Score(r, q.Terms); score > 0 {
			out = append(out, Scored{Record: r, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Score sums the per-term contributions for rec. Terms are expected to be
// lower-case already, as Tokenize produces them.
func Score(rec Record, terms []string) int {
	key := strings.ToLower(rec.Key)
	name := strings.ToLower(rec.Name)
	domain := strings.ToLower(rec.Domain)

	score := 0
	for _, t := range terms {
		switch {
		case key == t:
			score += scoreKeyExact
		case strings.HasPrefix(key, t):
			score += scoreKeyPrefix
		case strings.Contains(key, t):
			score += scoreKeyInfix
		}
		if strings.Contains(name, t) {
			score += scoreName
		}
		if strings.Contains(domain, t) {
			score += scoreDomain
		}
	}
	return score
}

func applyFilters(records []Record, filters []Filter) []Record {
	out := records
	for _, f := range filters {
		var field func(Record) string
		switch f.Type {
		case FilterBang, FilterKey:
			field = func(r Record) string { return r.Key }
		case FilterDomain:
			field = func(r Record) string { return r.Domain }
		case FilterName:
			field = func(r Record) string { return r.Name }
		default:
			continue
		}
		value := strings.ToLower(f.Value)
		kept := make([]Record, 0, len(out))
		for _, r := range out {
			if strings.Contains(strings.ToLower(field(r)), value) {
				kept = append(kept, r)
			}
		}
		out = kept
	}
	return out
}
