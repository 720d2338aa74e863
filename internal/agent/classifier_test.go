package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/ziadkadry99/partschat/internal/llm"
)

// scriptedProvider returns a canned response or error for every call.
type scriptedProvider struct {
	response string
	err      error
	calls    int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.response}, nil
}

func TestClassifyFallbackOnInvalidJSON(t *testing.T) {
	provider := &scriptedProvider{response: "이것은 JSON이 아닙니다"}
	c := NewClassifier(provider, "gpt-4o")

	cls := c.Classify(context.Background(), "ABC-12345 재고는?")

	if cls.Intent != IntentPartSearch {
		t.Errorf("expected part_search from rule fallback, got %s", cls.Intent)
	}
	if !cls.NeedsSource(SourceStructured) {
		t.Error("expected structured_store in data sources")
	}
	if got := cls.Entities["part_numbers"]; len(got) != 1 || got[0] != "ABC-12345" {
		t.Errorf("expected extracted part number, got %v", got)
	}
}

func TestClassifyFallbackOnProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("connection refused")}
	c := NewClassifier(provider, "gpt-4o")

	cls := c.Classify(context.Background(), "펌프 정비 절차 문서 찾아줘")

	if cls.Intent != IntentMixed {
		t.Errorf("expected mixed (parts+docs keywords), got %s", cls.Intent)
	}
	if !cls.NeedsSource(SourceStructured) || !cls.NeedsSource(SourceVector) {
		t.Errorf("expected both sources, got %v", cls.DataSources)
	}
}

func TestClassifyUsesValidLLMResult(t *testing.T) {
	provider := &scriptedProvider{
		response: `{"intent":"document_search","data_sources":["vector_store"],"entities":{"part_numbers":[],"part_names":["쿼츠 튜브"],"date_ranges":[],"metrics":[]},"requires_calculation":false,"response_format":"text"}`,
	}
	c := NewClassifier(provider, "gpt-4o")

	cls := c.Classify(context.Background(), "쿼츠 튜브 교체 주기를 알려줘")

	if cls.Intent != IntentDocumentSearch {
		t.Errorf("expected LLM intent to win, got %s", cls.Intent)
	}
	if got := cls.Entities["part_names"]; len(got) != 1 || got[0] != "쿼츠 튜브" {
		t.Errorf("expected LLM entities preserved, got %v", got)
	}
}

func TestClassifyRejectsUnknownIntent(t *testing.T) {
	provider := &scriptedProvider{
		response: `{"intent":"teleport","data_sources":["vector_store"]}`,
	}
	c := NewClassifier(provider, "gpt-4o")

	cls := c.Classify(context.Background(), "재고 확인")

	if cls.Intent != IntentPartSearch {
		t.Errorf("invalid LLM payload must fall back to rules, got %s", cls.Intent)
	}
}

func TestClassifyEmptyQueryIsGeneral(t *testing.T) {
	c := NewClassifier(nil, "")

	cls := c.Classify(context.Background(), "안녕하세요")

	if cls.Intent != IntentGeneral {
		t.Errorf("expected general, got %s", cls.Intent)
	}
	if !cls.SkipsRetrieval() {
		t.Error("general queries with no entities must skip retrieval")
	}
}

func TestClassifyLowercasePartNumber(t *testing.T) {
	c := NewClassifier(nil, "")

	cls := c.Classify(context.Background(), "abc-12345 어디에 있어?")

	if got := cls.Entities["part_numbers"]; len(got) != 1 || got[0] != "ABC-12345" {
		t.Errorf("lowercase ids must be extracted uppercased, got %v", got)
	}
}

func TestClassifyMergesRulePartNumbers(t *testing.T) {
	// LLM misses the part number; the rule-extracted one must survive.
	provider := &scriptedProvider{
		response: `{"intent":"part_search","data_sources":["structured_store"],"entities":{"part_numbers":[],"part_names":[],"date_ranges":[],"metrics":[]},"response_format":"text"}`,
	}
	c := NewClassifier(provider, "gpt-4o")

	cls := c.Classify(context.Background(), "XYZ-99101 재고")

	if got := cls.Entities["part_numbers"]; len(got) != 1 || got[0] != "XYZ-99101" {
		t.Errorf("rule-extracted part numbers must be kept, got %v", got)
	}
}

func TestClassifyHints(t *testing.T) {
	c := NewClassifier(nil, "")

	cls := c.Classify(context.Background(), "카테고리별 재고 합계를 그래프로 보여줘")
	if !cls.RequiresCalculation {
		t.Error("aggregation wording must set requires_calculation")
	}
	if cls.ResponseFormat != FormatChart {
		t.Errorf("expected chart format, got %s", cls.ResponseFormat)
	}

	cls = c.Classify(context.Background(), "부품 목록 보여줘")
	if cls.ResponseFormat != FormatTable {
		t.Errorf("expected table format, got %s", cls.ResponseFormat)
	}
	if cls.RequiresCalculation {
		t.Error("plain listing must not set requires_calculation")
	}
}

func TestSkipsRetrieval(t *testing.T) {
	cases := []struct {
		name string
		cls  Classification
		want bool
	}{
		{"none source", Classification{Intent: IntentGeneral, DataSources: []DataSource{SourceNone}}, true},
		{"info lookup", Classification{Intent: IntentInfoLookup, DataSources: []DataSource{SourceVector}}, true},
		{"part search", Classification{Intent: IntentPartSearch, DataSources: []DataSource{SourceStructured}}, false},
		{"mixed", Classification{Intent: IntentMixed, DataSources: []DataSource{SourceStructured, SourceVector}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cls.SkipsRetrieval(); got != tc.want {
				t.Errorf("SkipsRetrieval = %v, want %v", got, tc.want)
			}
		})
	}
}
