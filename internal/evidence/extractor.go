// Package evidence pulls structured evidence (credential tokens, domain
// phrases, task phrases) out of free text. Two extractor flavors exist: domain
// evidence from job/résumé subject matter, and labeling/task evidence from
// AI-training work history. Extraction never fails; on any internal panic it
// returns an empty set and logs a warning.
package evidence

import (
	"regexp"
	"strings"
	"unicode"

	"labelmatch/internal/common/logger"
)

// languageCueWindow is the byte distance a language token may sit from a
// subject-matter cue word and still count as evidence.
const languageCueWindow = 80

const (
	minTokenLength  = 3
	minPhraseLength = 2
	maxPhraseLength = 5
)

type exactPattern struct {
	term string
	re   *regexp.Regexp
}

// Extractor scans text with three layered matchers: exact vocabulary terms,
// a filtered general token scan, and a 2-5 word phrase scan. Patterns are
// compiled once at construction and reused across calls.
type Extractor struct {
	exact     []exactPattern
	stopSet   map[string]struct{}
	blockSet  map[string]struct{}
	langSet   map[string]struct{}
	langRes   map[string]*regexp.Regexp
	cueRe     *regexp.Regexp
	segmentRe *regexp.Regexp
	log       logger.Logger
}

// NewDomainExtractor builds the extractor tuned for subject-matter evidence:
// credentials, compliance terms, tech stack, and gated language names.
func NewDomainExtractor(log logger.Logger) *Extractor {
	vocab := make([]string, 0, len(credentialVocab)+len(complianceVocab)+len(techVocab))
	vocab = append(vocab, credentialVocab...)
	vocab = append(vocab, complianceVocab...)
	vocab = append(vocab, techVocab...)
	return newExtractor(vocab, log)
}

// NewTaskExtractor builds the extractor tuned for labeling/task evidence:
// platform names, annotation task types, and model-training terms. It carries
// no credential pass.
func NewTaskExtractor(log logger.Logger) *Extractor {
	return newExtractor(taskVocab, log)
}

func newExtractor(vocab []string, log logger.Logger) *Extractor {
	e := &Extractor{
		stopSet:   toSet(stopwords),
		blockSet:  toSet(softBlocklist),
		langSet:   toSet(languageNames),
		langRes:   make(map[string]*regexp.Regexp, len(languageNames)),
		segmentRe: regexp.MustCompile(`[.,;:!?()\[\]"\n\r\t]+`),
		log:       log,
	}

	for _, term := range vocab {
		e.exact = append(e.exact, exactPattern{
			term: term,
			re:   wholeWordPattern(term),
		})
	}
	for _, name := range languageNames {
		e.langRes[name] = wholeWordPattern(name)
	}
	e.cueRe = wholeWordPattern(strings.Join(languageCueWords, "|"))

	return e
}

// Extract scans text and returns the merged, deduplicated evidence set. It
// never returns an error: any internal failure yields an empty set.
func (e *Extractor) Extract(text string) (set Set) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("evidence extraction failed, returning empty set", map[string]interface{}{
				"panic": r,
			})
			set = Set{}
		}
	}()

	if strings.TrimSpace(text) == "" {
		return Set{}
	}

	tokens := newBuilder()
	phrases := newBuilder()

	// Pass 1: exact vocabulary terms, highest priority.
	for _, p := range e.exact {
		if p.re.MatchString(text) {
			if strings.Contains(p.term, " ") {
				phrases.add(strings.ToLower(p.term))
			} else {
				tokens.add(e.normalizeToken(p.term))
			}
		}
	}

	// Gate language names on a nearby subject-matter cue word.
	allowedLangs := e.gatedLanguages(text)

	// Passes 2 and 3: token scan and adjacent-phrase scan, segment by segment
	// so punctuation breaks adjacency.
	for _, segment := range e.segmentRe.Split(text, -1) {
		var run []string
		flush := func() {
			e.addPhraseRun(phrases, run)
			run = run[:0]
		}

		for _, raw := range strings.Fields(segment) {
			word := e.normalizeToken(raw)
			if !e.qualifies(word, allowedLangs) {
				flush()
				continue
			}
			tokens.add(word)
			run = append(run, strings.ToLower(word))
		}
		flush()
	}

	return Set{Tokens: tokens.sorted(), Phrases: phrases.sorted()}
}

// gatedLanguages returns the language names that occur within the cue window
// of a subject-matter cue word anywhere in text.
func (e *Extractor) gatedLanguages(text string) map[string]struct{} {
	lower := strings.ToLower(text)
	cues := e.cueRe.FindAllStringIndex(lower, -1)
	if len(cues) == 0 {
		return nil
	}

	allowed := make(map[string]struct{})
	for name, re := range e.langRes {
		for _, loc := range re.FindAllStringIndex(lower, -1) {
			if nearAny(loc, cues, languageCueWindow) {
				allowed[name] = struct{}{}
				break
			}
		}
	}
	return allowed
}

func nearAny(loc []int, anchors [][]int, window int) bool {
	for _, a := range anchors {
		if loc[0] <= a[1]+window && a[0] <= loc[1]+window {
			return true
		}
	}
	return false
}

func (e *Extractor) qualifies(word string, allowedLangs map[string]struct{}) bool {
	if len(word) < minTokenLength {
		return false
	}
	lower := strings.ToLower(word)
	if _, ok := e.stopSet[lower]; ok {
		return false
	}
	if _, ok := e.blockSet[lower]; ok {
		return false
	}
	if isNumeric(word) {
		return false
	}
	if _, isLang := e.langSet[lower]; isLang {
		_, ok := allowedLangs[lower]
		return ok
	}
	return true
}

func (e *Extractor) addPhraseRun(phrases *builder, run []string) {
	for len(run) >= minPhraseLength {
		n := len(run)
		if n > maxPhraseLength {
			n = maxPhraseLength
		}
		phrases.add(strings.Join(run[:n], " "))
		run = run[n:]
	}
}

// normalizeToken strips leading/trailing punctuation, upper-cases all-caps or
// alphanumeric tokens (credentials like "MD" or "SOC2"), and lower-cases
// everything else.
func (e *Extractor) normalizeToken(raw string) string {
	word := strings.TrimFunc(raw, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if word == "" {
		return ""
	}
	if isUpperOrDigits(word) {
		return strings.ToUpper(word)
	}
	return strings.ToLower(word)
}

func isUpperOrDigits(s string) bool {
	hasLetter := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasLetter = true
		case unicode.IsDigit(r):
		default:
			return false
		}
	}
	return hasLetter
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

// wholeWordPattern compiles a case-insensitive whole-word regex for term,
// which may be an alternation.
func wholeWordPattern(term string) *regexp.Regexp {
	escaped := term
	if !strings.Contains(term, "|") {
		escaped = regexp.QuoteMeta(term)
	}
	return regexp.MustCompile(`(?i)\b(?:` + escaped + `)\b`)
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[strings.ToLower(item)] = struct{}{}
	}
	return out
}
