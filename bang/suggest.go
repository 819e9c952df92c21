package bang

import (
	"net/url"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	maxSuggestions = 3
	maxSuggestDist = 2
)

// Suggest returns up to three keys close to candidate by edit distance,
// nearest first. Used to explain a failed resolution.
func Suggest(records []Record, candidate string) []string {
	candidate = strings.ToLower(candidate)
	if candidate == "" {
		return nil
	}

	type hit struct {
		key  string
		dist int
	}
	var hits []hit
	seen := make(map[string]bool)
	for _, r := range records {
		key := strings.ToLower(r.Key)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if d := levenshtein.ComputeDistance(candidate, key); d <= maxSuggestDist {
			hits = append(hits, hit{key: r.Key, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]string, 0, maxSuggestions)
	for _, h := range hits {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, h.key)
	}
	return out
}

// InferDomain returns the host of a URL template, or "" when it has none.
func InferDomain(tmpl string) string {
	u, err := url.Parse(strings.ReplaceAll(tmpl, Placeholder, ""))
	if err != nil {
		return ""
	}
	return u.Host
}
