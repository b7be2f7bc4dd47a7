package summarizer

import (
	"fmt"
	"sort"
	"strings"

	"complaintrag/internal/config"
	"complaintrag/internal/domain"
)

const recommendation = "Recommendation: Review these complaints for patterns and consider product improvements or customer service training."

// HeuristicSummarizer renders an answer from retrieved chunks by tallying
// their metadata and matching theme keywords. It never calls a model.
type HeuristicSummarizer struct {
	themes       []config.Theme
	maxThemes    int
	maxExcerpts  int
	excerptWords int
	excerptChars int
}

// NewHeuristicSummarizer builds an answerer from the answerer config.
// Zero limits fall back to 3 themes, 2 excerpts of 20 words and 200 runes.
func NewHeuristicSummarizer(cfg config.AnswererConfig) *HeuristicSummarizer {
	h := &HeuristicSummarizer{
		themes:       cfg.Themes,
		maxThemes:    cfg.MaxThemes,
		maxExcerpts:  cfg.MaxExcerpts,
		excerptWords: cfg.ExcerptWords,
		excerptChars: cfg.ExcerptChars,
	}
	if h.themes == nil {
		h.themes = config.DefaultThemes()
	}
	if h.maxThemes <= 0 {
		h.maxThemes = 3
	}
	if h.maxExcerpts <= 0 {
		h.maxExcerpts = 2
	}
	if h.excerptWords <= 0 {
		h.excerptWords = 20
	}
	if h.excerptChars <= 0 {
		h.excerptChars = 200
	}
	return h
}

// tally counts occurrences while remembering first-seen order.
type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally { return &tally{counts: map[string]int{}} }

func (t *tally) add(key string, n int) {
	if _, ok := t.counts[key]; !ok {
		t.order = append(t.order, key)
	}
	t.counts[key] += n
}

// ranked returns keys by descending count; ties keep first-seen order.
func (t *tally) ranked() []string {
	keys := append([]string(nil), t.order...)
	sort.SliceStable(keys, func(i, j int) bool { return t.counts[keys[i]] > t.counts[keys[j]] })
	return keys
}

func (t *tally) format(keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s (%d)", k, t.counts[k])
	}
	return strings.Join(parts, ", ")
}

// Summarize renders the answer for query. chunks and metadata are parallel
// and ordered by relevance.
func (h *HeuristicSummarizer) Summarize(query string, chunks []string, metadata []domain.Metadata) string {
	if len(chunks) == 0 {
		return fmt.Sprintf("No relevant complaints found for '%s'.", query)
	}

	products := newTally()
	issues := newTally()
	themes := newTally()
	for i, chunk := range chunks {
		var meta domain.Metadata
		if i < len(metadata) {
			meta = metadata[i]
		}
		products.add(meta.Get(domain.KeyProductCategory), 1)
		if issue := meta.Get(domain.KeyIssue); issue != domain.Unknown {
			issues.add(issue, 1)
		}
		lower := strings.ToLower(chunk)
		for _, theme := range h.themes {
			hits := 0
			for _, kw := range theme.Keywords {
				if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
					hits++
				}
			}
			if hits > 0 {
				themes.add(theme.Name, hits)
			}
		}
	}

	lines := []string{fmt.Sprintf("Based on analysis of %d complaint excerpts for '%s':", len(chunks), query)}
	ranked := products.ranked()
	lines = append(lines, fmt.Sprintf("• Most common product: %s (%d)", ranked[0], products.counts[ranked[0]]))
	lines = append(lines, "• Products mentioned: "+products.format(products.order))
	if len(issues.order) > 0 {
		lines = append(lines, "• Main issues: "+issues.format(firstN(issues.ranked(), 3)))
	}
	if len(themes.order) > 0 {
		lines = append(lines, "• Common themes: "+strings.Join(firstN(h.byVocabulary(themes).ranked(), h.maxThemes), ", "))
	}

	lines = append(lines, "", "Specific complaints include:")
	for i, chunk := range firstN(chunks, h.maxExcerpts) {
		lines = append(lines, fmt.Sprintf("  %d. '%s...'", i+1, h.excerpt(chunk)))
	}
	lines = append(lines, "", recommendation)
	return strings.Join(lines, "\n")
}

// byVocabulary reorders the theme tally so ties follow the configured
// vocabulary order rather than first-seen order.
func (h *HeuristicSummarizer) byVocabulary(t *tally) *tally {
	out := newTally()
	for _, theme := range h.themes {
		if n, ok := t.counts[theme.Name]; ok {
			out.add(theme.Name, n)
		}
	}
	return out
}

func (h *HeuristicSummarizer) excerpt(chunk string) string {
	words := strings.Fields(chunk)
	text := strings.Join(firstN(words, h.excerptWords), " ")
	if r := []rune(text); len(r) > h.excerptChars {
		text = string(r[:h.excerptChars])
	}
	return text
}

func firstN[T any](s []T, n int) []T {
	if n < len(s) {
		return s[:n]
	}
	return s
}
