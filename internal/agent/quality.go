package agent

import "unicode/utf8"

const (
	// confidenceWarnThreshold is the confidence below which answers are
	// flagged as reference-only.
	confidenceWarnThreshold = 0.5

	// minAnswerRunes is the minimum answer length before an incompleteness
	// warning is added.
	minAnswerRunes = 50
)

// ConfidenceScore computes the answer confidence from the retrieved
// evidence: an evidence-count term (up to 0.3), a mean-similarity term
// (0.4, defaulting to a 0.5 mean when no item carries a score) and a flat
// 0.3 bonus when structured data is present. The weights are fixed tuning
// constants; changing them changes observable behavior.
func ConfidenceScore(items []RetrievedItem) float64 {
	countTerm := float64(len(items)) / 5
	if countTerm > 1 {
		countTerm = 1
	}

	meanSimilarity := 0.5
	var sum float64
	var scored int
	for _, item := range items {
		if item.Similarity != nil {
			sum += *item.Similarity
			scored++
		}
	}
	if scored > 0 {
		meanSimilarity = sum / float64(scored)
	}

	structuredBonus := 0.0
	for _, item := range items {
		if item.SourceKind == KindStructuredRecord {
			structuredBonus = 0.3
			break
		}
	}

	score := countTerm*0.3 + meanSimilarity*0.4 + structuredBonus
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Assess appends quality warnings to the answer. The rules are independent
// and additive; none suppresses another, and none blocks the answer.
func Assess(a *Answer) {
	if a == nil {
		return
	}
	if len(a.Sources) == 0 {
		a.Warnings = append(a.Warnings, "근거 자료가 없어 검증되지 않은 답변입니다.")
	}
	if a.Confidence < confidenceWarnThreshold {
		a.Warnings = append(a.Warnings, "신뢰도가 낮으니 참고용으로만 활용하세요.")
	}
	if utf8.RuneCountInString(a.Content) < minAnswerRunes {
		a.Warnings = append(a.Warnings, "답변이 불완전할 수 있습니다.")
	}
}
