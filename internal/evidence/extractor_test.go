// internal/evidence/extractor_test.go
package evidence

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelmatch/internal/common/logger"
)

// ==========================
// Extraction Tests
// ==========================

func TestDomainExtractor_CredentialsAndCompliance(t *testing.T) {
	ex := NewDomainExtractor(logger.NewNoOpLogger())

	set := ex.Extract("Board-certified MD with HIPAA compliance experience. Worked on clinical data review.")

	assert.Contains(t, set.Tokens, "MD")
	assert.Contains(t, set.Tokens, "HIPAA")
	assert.Contains(t, set.Tokens, "clinical")
	assert.Contains(t, set.Phrases, "clinical data review")

	// Pay/schedule and soft-skill words never count as evidence.
	assert.NotContains(t, set.Tokens, "experience")
}

func TestTaskExtractor_PlatformsAndTasks(t *testing.T) {
	ex := NewTaskExtractor(logger.NewNoOpLogger())

	set := ex.Extract("Two years of RLHF response ranking on Surge AI, plus bounding box annotation.")

	assert.Contains(t, set.Tokens, "rlhf")
	assert.Contains(t, set.Phrases, "surge ai")
	assert.Contains(t, set.Phrases, "bounding box")
	assert.Contains(t, set.Phrases, "response ranking")
}

func TestExtract_EmptyInput(t *testing.T) {
	ex := NewDomainExtractor(logger.NewNoOpLogger())

	assert.True(t, ex.Extract("").Empty())
	assert.True(t, ex.Extract("   \n\t  ").Empty())
}

func TestExtract_LanguageGating(t *testing.T) {
	ex := NewDomainExtractor(logger.NewNoOpLogger())

	tests := []struct {
		name     string
		text     string
		language string
		kept     bool
	}{
		{
			name:     "language near cue word counts",
			text:     "Reviewed Spanish medical content for accuracy",
			language: "spanish",
			kept:     true,
		},
		{
			name:     "fluency listing does not count",
			text:     "Fluent speaker: Spanish, French, and German",
			language: "spanish",
			kept:     false,
		},
		{
			name:     "translation cue legitimizes the language",
			text:     "Performed Japanese translation review",
			language: "japanese",
			kept:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := ex.Extract(tt.text)
			if tt.kept {
				assert.Contains(t, set.Tokens, tt.language)
			} else {
				assert.NotContains(t, set.Tokens, tt.language)
			}
		})
	}
}

func TestExtract_TokenNormalization(t *testing.T) {
	ex := NewDomainExtractor(logger.NewNoOpLogger())

	set := ex.Extract("Worked at NASA using (Python). Holds a PhD.")

	// Mixed-case and parenthesized words are lower-cased; all-caps stay upper.
	assert.Contains(t, set.Tokens, "python")
	assert.Contains(t, set.Tokens, "NASA")
	assert.Contains(t, set.Tokens, "phd")
}

func TestExtract_PhrasesBreakAtPunctuation(t *testing.T) {
	ex := NewDomainExtractor(logger.NewNoOpLogger())

	set := ex.Extract("clinical trials, oncology research")

	assert.Contains(t, set.Phrases, "clinical trials")
	assert.Contains(t, set.Phrases, "oncology research")
	// The comma breaks adjacency; no phrase spans it.
	assert.NotContains(t, set.Phrases, "clinical trials oncology research")
	assert.NotContains(t, set.Phrases, "trials oncology")
}

func TestExtract_LongRunsChunkedToFiveWords(t *testing.T) {
	ex := NewDomainExtractor(logger.NewNoOpLogger())

	set := ex.Extract("cardiac surgery recovery protocol design review board oversight")

	for _, p := range set.Phrases {
		assert.LessOrEqual(t, len(strings.Fields(p)), 5)
	}
}

func TestExtract_CapsAtEightyItems(t *testing.T) {
	ex := NewDomainExtractor(logger.NewNoOpLogger())

	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "specialty%03d. ", i)
	}
	set := ex.Extract(sb.String())

	assert.Len(t, set.Tokens, 80)
}

func TestExtract_Idempotent(t *testing.T) {
	ex := NewDomainExtractor(logger.NewNoOpLogger())

	first := ex.Extract("Board-certified MD with HIPAA training. Reviewed clinical trial data using Python and SQL.")
	require.False(t, first.Empty())

	second := ex.Extract(first.Format())

	assert.Equal(t, first.Tokens, second.Tokens)
	assert.Equal(t, first.Phrases, second.Phrases)
}

// ==========================
// Set Membership Tests
// ==========================

func TestSet_Contains_Fuzzy(t *testing.T) {
	set := Set{Tokens: []string{"python", "MD"}}

	assert.True(t, set.Contains("python", DefaultMatchOptions()))
	assert.True(t, set.Contains("pythn", DefaultMatchOptions()), "one deletion within fuzzy distance")
	assert.False(t, set.Contains("pythn", MatchOptions{}), "fuzziness disabled")
	// Short tokens never match fuzzily.
	assert.False(t, set.Contains("mr", DefaultMatchOptions()))
}

func TestSet_Contains_PhraseWords(t *testing.T) {
	set := Set{Phrases: []string{"clinical data review"}}

	assert.True(t, set.Contains("clinical", MatchOptions{}))
	assert.True(t, set.ContainsPhrase("clinical data review", MatchOptions{}))
	assert.True(t, set.ContainsPhrase("data review", MatchOptions{}), "every word grounded individually")
	assert.False(t, set.ContainsPhrase("data entry", MatchOptions{}))
}

func TestSet_Format_RoundTrip(t *testing.T) {
	set := Set{
		Tokens:  []string{"HIPAA", "MD", "clinical"},
		Phrases: []string{"clinical trials"},
	}

	out := set.Format()
	assert.Contains(t, out, "HIPAA, MD, clinical")
	assert.Contains(t, out, "\nclinical trials")
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"python", "pythn", 1},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}
