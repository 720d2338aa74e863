package agent

import (
	"context"
	"encoding/json"
	"log"
	"regexp"
	"strings"

	"github.com/ziadkadry99/partschat/internal/llm"
)

// partIDPattern matches part identifiers like ABC-12345 (uppercase prefix,
// numeric suffix).
var partIDPattern = regexp.MustCompile(`[A-Z]{2,4}-\d{3,6}`)

// partsKeywords signal the query needs structured inventory data.
var partsKeywords = []string{
	"부품", "자재", "재고", "구매", "출고", "장착", "장비", "코드", "사양", "스펙",
}

// docKeywords signal the query needs document search.
var docKeywords = []string{
	"문서", "지침", "가이드", "매뉴얼", "보고서", "자료", "어떻게", "방법", "절차", "기준", "정책",
}

// calcKeywords hint that the answer involves aggregation or arithmetic.
var calcKeywords = []string{"합계", "총", "평균", "비교", "계산", "몇 개", "얼마"}

// Presentation hints for the response format.
var (
	chartKeywords = []string{"차트", "그래프", "시각화", "추이"}
	tableKeywords = []string{"표로", "목록", "리스트", "정리해"}
)

// Classifier turns a raw user query into a Classification, combining
// deterministic keyword rules with one LLM call.
type Classifier struct {
	provider llm.Provider
	model    string
}

// NewClassifier creates a classifier. provider may be nil, in which case
// classification is purely rule-based.
func NewClassifier(provider llm.Provider, model string) *Classifier {
	return &Classifier{provider: provider, model: model}
}

const classifySystemPrompt = `사용자 질문을 분석하여 JSON으로만 응답하세요:
{
  "intent": "info_lookup|part_search|document_search|general|mixed",
  "data_sources": ["structured_store","vector_store","none"],
  "entities": {"part_numbers": [], "part_names": [], "date_ranges": [], "metrics": []},
  "requires_calculation": false,
  "response_format": "text|table|chart|mixed"
}
part_search: 부품/재고/자재 데이터 조회. document_search: 문서/매뉴얼/절차 검색.
mixed: 둘 다 필요. info_lookup: 검색 없이 답할 수 있는 단순 질문. general: 그 외.`

// Classify analyzes the query. It never returns an error: when the LLM call
// fails or yields malformed JSON, the deterministic rule-based classification
// is used instead.
func (c *Classifier) Classify(ctx context.Context, query string) Classification {
	fallback := c.ruleBased(query)

	if c.provider == nil {
		return fallback
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: classifySystemPrompt},
			{Role: llm.RoleUser, Content: query},
		},
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		log.Printf("classification LLM call failed, using rule-based result: %v", err)
		return fallback
	}

	var cls Classification
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Content)), &cls); err != nil {
		log.Printf("classification JSON invalid, using rule-based result: %v", err)
		return fallback
	}
	if !validClassification(&cls) {
		return fallback
	}

	// Rule-extracted part numbers are exact; keep them even when the LLM
	// missed some.
	if cls.Entities == nil {
		cls.Entities = map[string][]string{}
	}
	if len(cls.Entities["part_numbers"]) == 0 {
		cls.Entities["part_numbers"] = fallback.Entities["part_numbers"]
	}
	return cls
}

// ruleBased derives a classification from the entity pattern and the domain
// keyword lists alone.
func (c *Classifier) ruleBased(query string) Classification {
	entities := map[string][]string{
		"part_numbers": extractPartNumbers(query),
		"part_names":   {},
		"date_ranges":  {},
		"metrics":      {},
	}

	needsParts := len(entities["part_numbers"]) > 0 || containsAny(query, partsKeywords)
	needsDocs := containsAny(query, docKeywords)

	cls := Classification{
		Entities:            entities,
		RequiresCalculation: containsAny(query, calcKeywords),
		ResponseFormat:      FormatText,
	}
	switch {
	case containsAny(query, chartKeywords):
		cls.ResponseFormat = FormatChart
	case containsAny(query, tableKeywords):
		cls.ResponseFormat = FormatTable
	}

	switch {
	case needsParts && needsDocs:
		cls.Intent = IntentMixed
		cls.DataSources = []DataSource{SourceStructured, SourceVector}
	case needsParts:
		cls.Intent = IntentPartSearch
		cls.DataSources = []DataSource{SourceStructured}
	case needsDocs:
		cls.Intent = IntentDocumentSearch
		cls.DataSources = []DataSource{SourceVector}
	default:
		cls.Intent = IntentGeneral
		cls.DataSources = []DataSource{SourceNone}
	}
	return cls
}

// extractPartNumbers finds part identifiers in the query. Matching runs on
// the uppercased text so lowercase ids like abc-12345 are caught too.
func extractPartNumbers(query string) []string {
	matches := partIDPattern.FindAllString(strings.ToUpper(query), -1)
	if matches == nil {
		return []string{}
	}
	seen := make(map[string]bool, len(matches))
	unique := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			unique = append(unique, m)
		}
	}
	return unique
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func validClassification(cls *Classification) bool {
	switch cls.Intent {
	case IntentInfoLookup, IntentPartSearch, IntentDocumentSearch, IntentGeneral, IntentMixed:
	default:
		return false
	}
	if len(cls.DataSources) == 0 {
		return false
	}
	for _, ds := range cls.DataSources {
		switch ds {
		case SourceStructured, SourceVector, SourceNone:
		default:
			return false
		}
	}
	switch cls.ResponseFormat {
	case FormatText, FormatTable, FormatChart, FormatMixed:
	case "":
		cls.ResponseFormat = FormatText
	default:
		return false
	}
	return true
}

// extractJSONObject pulls the first JSON object out of text that may carry
// surrounding prose or code fences.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return "{}"
}
