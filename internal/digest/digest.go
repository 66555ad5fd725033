package digest

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"safetyintel/internal/domain"
)

// Summarizer picks the incident descriptions that best represent a group of
// incidents by ranking them on shared term frequency, stopwords filtered.
type Summarizer struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewSummarizer creates a frequency-based description ranker.
func NewSummarizer() *Summarizer {
	return &Summarizer{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

// Summarize returns up to max descriptions from incidents, most representative
// first. Duplicate descriptions count once.
func (s *Summarizer) Summarize(incidents []domain.Incident, max int) []string {
	if max <= 0 {
		max = 3
	}
	seen := make(map[string]struct{}, len(incidents))
	var texts []string
	for _, inc := range incidents {
		t := strings.TrimSpace(inc.Description)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		texts = append(texts, t)
	}
	if len(texts) == 0 {
		return []string{}
	}

	freq := map[string]float64{}
	for _, t := range texts {
		for tok := range s.termSet(t) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}

	type ranked struct {
		idx   int
		score float64
	}
	scores := make([]ranked, len(texts))
	for i, t := range texts {
		terms := s.termSet(t)
		sc := 0.0
		for tok := range terms {
			sc += freq[tok] / maxF
		}
		if n := len(terms); n > 0 {
			sc /= math.Sqrt(float64(n))
		}
		scores[i] = ranked{i, sc}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if max > len(scores) {
		max = len(scores)
	}
	out := make([]string, max)
	for i := range out {
		out[i] = texts[scores[i].idx]
	}
	return out
}

// TopTerms returns the n most frequent non-stopword terms across incidents,
// ties broken alphabetically.
func (s *Summarizer) TopTerms(incidents []domain.Incident, n int) []string {
	freq := map[string]int{}
	for _, inc := range incidents {
		for tok := range s.termSet(inc.Description) {
			freq[tok]++
		}
	}
	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if n > 0 && n < len(terms) {
		terms = terms[:n]
	}
	return terms
}

func (s *Summarizer) termSet(text string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, tok := range s.tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if len(tok) < 3 {
			continue
		}
		if _, stop := s.stopwords[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"near", "reported", "his", "her", "their", "while",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
