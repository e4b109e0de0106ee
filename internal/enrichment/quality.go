package enrichment

import (
	"regexp"
	"strings"

	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/store"
	"github.com/llmc/ragcore/internal/types"
)

// placeholderPatterns catches boilerplate a weak backend emits instead of a
// real answer. Matches are case-insensitive.
var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)auto-?summary generated offline`),
	regexp.MustCompile(`(?i)as an ai language model`),
	regexp.MustCompile(`(?i)i('m| am) unable to`),
	regexp.MustCompile(`(?i)^(no|n/a|none|todo|tbd)$`),
}

const minSummaryWords = 4

// QualityReport scores one enrichment 0-100 and explains what pulled the
// score down. It is advisory: a low score never blocks persistence, only
// flags the enrichment for operator cleanup.
type QualityReport struct {
	SpanHash string
	Score    int
	Reasons  []string
}

// ScoreEnrichment runs the post-commit quality check against an already
// persisted enrichment.
func ScoreEnrichment(e types.Enrichment) QualityReport {
	report := QualityReport{SpanHash: e.SpanHash, Score: 100}

	deduct := func(n int, reason string) {
		report.Score -= n
		report.Reasons = append(report.Reasons, reason)
	}

	if isPlaceholder(e.Summary) {
		deduct(60, "summary looks like placeholder or refusal text")
	} else if wordCount(e.Summary) < minSummaryWords {
		deduct(25, "summary is suspiciously short")
	}

	if len(e.Inputs) == 0 && len(e.Outputs) == 0 {
		deduct(15, "inputs and outputs both empty")
	}
	if len(e.Evidence) == 0 {
		deduct(10, "no evidence references")
	}
	if e.UsageSnippet == "" {
		deduct(10, "missing usage snippet")
	}

	if report.Score < 0 {
		report.Score = 0
	}
	return report
}

func isPlaceholder(s string) bool {
	trimmed := strings.TrimSpace(s)
	for _, p := range placeholderPatterns {
		if p.MatchString(trimmed) {
			return true
		}
	}
	return false
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// QualityThreshold is the score below which CleanupLowQuality deletes an
// enrichment so its span is re-queued for enrichment on the next cycle.
const QualityThreshold = 40

// CleanupLowQuality scans every stored enrichment, deletes those scoring
// below QualityThreshold, and returns their reports for operator review.
// It is operator-invoked, never run implicitly as part of a sync cycle.
func CleanupLowQuality(s *store.Store) ([]QualityReport, error) {
	log := logging.For(logging.CategoryEnrichment)

	all, err := s.AllEnrichments()
	if err != nil {
		return nil, err
	}

	var flagged []QualityReport
	for _, e := range all {
		report := ScoreEnrichment(e)
		if report.Score >= QualityThreshold {
			continue
		}
		flagged = append(flagged, report)
		if err := s.DeleteEnrichment(e.SpanHash); err != nil {
			log.Warnw("failed to delete low quality enrichment", "span", e.SpanHash, "err", err)
			continue
		}
		log.Infow("deleted low quality enrichment", "span", e.SpanHash, "score", report.Score, "reasons", report.Reasons)
	}
	return flagged, nil
}
