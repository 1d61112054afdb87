package search

import (
	"context"
	"sort"
	"strings"

	"github.com/pagecast/pagecast-go/internal/content"
)

// autocompleteCandidates is how many documents feed the suggestion pool.
const autocompleteCandidates = 25

// Autocomplete suggests completions for a partial term. The index is
// rebuilt under the same staleness rule as a full search; matching uses the
// lower fuzziness setting. Suggestions are drawn from the matched
// documents' title, tag, and heading terms, deduplicated, with exact
// matches first and shorter terms before longer ones.
func (e *Engine) Autocomplete(ctx context.Context, term string, limit int) ([]string, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, &ValidationError{Reason: "autocomplete term is empty"}
	}
	if limit <= 0 {
		limit = e.limit
	}

	idx, err := e.ensureIndex(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(idx.posts) == 0 {
		return nil, ErrIndexUnavailable
	}

	hits, err := idx.search(term, autocompleteCandidates, autocompleteFuzziness)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var suggestions []string
	for _, hit := range hits {
		for _, candidate := range suggestionTerms(hit.post.Title, hit.post.Tags, content.Headings([]byte(hit.post.Content))) {
			lower := strings.ToLower(candidate)
			if !strings.Contains(lower, term) {
				continue
			}
			if _, dup := seen[lower]; dup {
				continue
			}
			seen[lower] = struct{}{}
			suggestions = append(suggestions, lower)
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		iExact, jExact := suggestions[i] == term, suggestions[j] == term
		if iExact != jExact {
			return iExact
		}
		iPrefix, jPrefix := strings.HasPrefix(suggestions[i], term), strings.HasPrefix(suggestions[j], term)
		if iPrefix != jPrefix {
			return iPrefix
		}
		if len(suggestions[i]) != len(suggestions[j]) {
			return len(suggestions[i]) < len(suggestions[j])
		}
		return suggestions[i] < suggestions[j]
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// suggestionTerms splits a document's display fields into candidate terms:
// title and heading words, and tags verbatim.
func suggestionTerms(title string, tags []string, headings []string) []string {
	var terms []string
	terms = append(terms, strings.Fields(title)...)
	terms = append(terms, tags...)
	for _, h := range headings {
		terms = append(terms, strings.Fields(h)...)
	}
	for i, t := range terms {
		terms[i] = strings.Trim(t, ".,:;!?\"'()[]")
	}
	return terms
}
