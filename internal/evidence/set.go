// internal/evidence/set.go
package evidence

import (
	"sort"
	"strings"
)

// maxItems caps tokens and phrases independently to bound validation cost.
const maxItems = 80

// MatchOptions tunes fuzzy membership checks. Distance 0 disables fuzziness.
// The defaults mirror the historical matcher (distance 1 for tokens of length
// 4 or more) but are deliberately tunable rather than load-bearing.
type MatchOptions struct {
	FuzzyDistance  int
	FuzzyMinLength int
}

// DefaultMatchOptions returns the historical fuzzy-matching constants.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{FuzzyDistance: 1, FuzzyMinLength: 4}
}

// Set holds the deduplicated evidence extracted from one text. Membership is
// case-insensitive; all-caps credential tokens are stored upper-cased and
// everything else lower-cased.
type Set struct {
	Tokens  []string `json:"tokens"`
	Phrases []string `json:"phrases"`
}

// Empty reports whether no evidence at all was extracted.
func (s Set) Empty() bool {
	return len(s.Tokens) == 0 && len(s.Phrases) == 0
}

// Size returns the total number of evidence items.
func (s Set) Size() int {
	return len(s.Tokens) + len(s.Phrases)
}

// Contains reports case-insensitive membership of word among tokens, phrases,
// and individual phrase words, with optional fuzzy matching per opts.
func (s Set) Contains(word string, opts MatchOptions) bool {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return false
	}

	for _, t := range s.Tokens {
		if matchWord(w, strings.ToLower(t), opts) {
			return true
		}
	}
	for _, p := range s.Phrases {
		lp := strings.ToLower(p)
		if lp == w {
			return true
		}
		for _, pw := range strings.Fields(lp) {
			if matchWord(w, pw, opts) {
				return true
			}
		}
	}
	return false
}

// ContainsPhrase reports whether the multi-word phrase is present, checking
// each word of the candidate against the set.
func (s Set) ContainsPhrase(phrase string, opts MatchOptions) bool {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(phrase)))
	if len(words) == 0 {
		return false
	}
	if len(words) == 1 {
		return s.Contains(words[0], opts)
	}
	for _, p := range s.Phrases {
		if strings.EqualFold(p, phrase) {
			return true
		}
	}
	// Fall back to requiring every word to be grounded individually.
	for _, w := range words {
		if !s.Contains(w, opts) {
			return false
		}
	}
	return true
}

// Format renders the set as text: tokens on one comma-separated line, then one
// phrase per line. Re-extracting evidence from this output is a no-op, which
// keeps extraction idempotent.
func (s Set) Format() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(s.Tokens, ", "))
	for _, p := range s.Phrases {
		sb.WriteString("\n")
		sb.WriteString(p)
	}
	return sb.String()
}

func matchWord(candidate, member string, opts MatchOptions) bool {
	if candidate == member {
		return true
	}
	if opts.FuzzyDistance > 0 &&
		len(candidate) >= opts.FuzzyMinLength &&
		len(member) >= opts.FuzzyMinLength {
		return levenshtein(candidate, member) <= opts.FuzzyDistance
	}
	return false
}

// builder accumulates unique items in insertion order up to the cap.
type builder struct {
	seen  map[string]struct{}
	items []string
}

func newBuilder() *builder {
	return &builder{seen: make(map[string]struct{})}
}

func (b *builder) add(item string) {
	if item == "" || len(b.items) >= maxItems {
		return
	}
	key := strings.ToLower(item)
	if _, ok := b.seen[key]; ok {
		return
	}
	b.seen[key] = struct{}{}
	b.items = append(b.items, item)
}

func (b *builder) sorted() []string {
	out := make([]string, len(b.items))
	copy(out, b.items)
	sort.Strings(out)
	return out
}

// levenshtein computes edit distance with the usual two-row dynamic program.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
