// Package picker implements the interactive command picker: a fuzzy index
// over command names and a terminal UI to choose an entry from it.
package picker

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/cesarferreira/robin/internal/command"
)

// fuzziness is the allowed edit distance as a fraction of the query term length.
const fuzziness = 0.2

// Match is a ranked search result.
type Match struct {
	Entry command.Entry
	Score float64
}

// Index is a search index over the names of a command table.
type Index struct {
	entries []command.Entry
	terms   [][]string
}

// NewIndex builds an index keyed by entry name.
func NewIndex(table command.Table) *Index {
	idx := &Index{
		entries: append([]command.Entry(nil), table...),
		terms:   make([][]string, len(table)),
	}
	for i, e := range table {
		idx.terms[i] = terms(e.Name)
	}
	return idx
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int { return len(idx.entries) }

// Search ranks the entries against query. An empty query returns every
// entry in table order. Otherwise entries with at least one matching term
// are returned best first; ties keep table order.
func (idx *Index) Search(query string) []Match {
	queryTerms := terms(query)
	if len(queryTerms) == 0 {
		all := make([]Match, len(idx.entries))
		for i, e := range idx.entries {
			all[i] = Match{Entry: e}
		}
		return all
	}

	var matches []Match
	for i, e := range idx.entries {
		var score float64
		for _, q := range queryTerms {
			score += bestTermScore(q, idx.terms[i])
		}
		if score > 0 {
			matches = append(matches, Match{Entry: e, Score: score})
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	return matches
}

// bestTermScore scores one query term against the terms of a name: 1 for an
// exact term, up to 0.9 for a prefix and up to 0.4 for a fuzzy match.
func bestTermScore(q string, nameTerms []string) float64 {
	maxDist := int(math.Round(fuzziness * float64(len(q))))
	var best float64
	for _, t := range nameTerms {
		var s float64
		switch {
		case t == q:
			s = 1
		case strings.HasPrefix(t, q):
			s = 0.5 + 0.4*float64(len(q))/float64(len(t))
		case maxDist > 0:
			if d := levenshtein.ComputeDistance(q, t); d <= maxDist {
				s = 0.4 * (1 - float64(d)/float64(maxDist+1))
			}
		}
		if s > best {
			best = s
		}
	}
	return best
}

// terms splits s into lowercase alphanumeric words.
func terms(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
