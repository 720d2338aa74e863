// Package agent implements the query-answering workflow: classification,
// multi-source retrieval, grounded generation and quality assessment over a
// single shared state per invocation.
package agent

import "encoding/json"

// Intent is the classified purpose of a user query.
type Intent string

const (
	IntentInfoLookup     Intent = "info_lookup"
	IntentPartSearch     Intent = "part_search"
	IntentDocumentSearch Intent = "document_search"
	IntentGeneral        Intent = "general"
	IntentMixed          Intent = "mixed"
)

// DataSource names a retrieval backend a query needs.
type DataSource string

const (
	SourceStructured DataSource = "structured_store"
	SourceVector     DataSource = "vector_store"
	SourceNone       DataSource = "none"
)

// ResponseFormat hints how the answer should be presented.
type ResponseFormat string

const (
	FormatText  ResponseFormat = "text"
	FormatTable ResponseFormat = "table"
	FormatChart ResponseFormat = "chart"
	FormatMixed ResponseFormat = "mixed"
)

// Classification is the structured result of query intent analysis. It is
// created once per query and read-only afterward.
type Classification struct {
	Intent              Intent              `json:"intent"`
	DataSources         []DataSource        `json:"data_sources"`
	Entities            map[string][]string `json:"entities"`
	RequiresCalculation bool                `json:"requires_calculation"`
	ResponseFormat      ResponseFormat      `json:"response_format"`
}

// NeedsSource reports whether the classification requires the given backend.
func (c *Classification) NeedsSource(ds DataSource) bool {
	for _, s := range c.DataSources {
		if s == ds {
			return true
		}
	}
	return false
}

// SkipsRetrieval reports whether the workflow should go straight to
// generation with no evidence: either no data source is needed or the query
// is a lightweight info lookup.
func (c *Classification) SkipsRetrieval() bool {
	if c.Intent == IntentInfoLookup {
		return true
	}
	return len(c.DataSources) == 0 ||
		(len(c.DataSources) == 1 && c.DataSources[0] == SourceNone)
}

// SourceKind distinguishes the origin of a retrieved item.
type SourceKind string

const (
	KindStructuredRecord SourceKind = "structured_record"
	KindDocumentChunk    SourceKind = "document_chunk"
)

// RetrievedItem is a normalized unit of evidence. Structured-store items
// never carry a similarity score.
type RetrievedItem struct {
	Content    string            `json:"content"`
	SourceKind SourceKind        `json:"source_kind"`
	Metadata   map[string]string `json:"metadata"`
	Similarity *float64          `json:"similarity_score,omitempty"`
}

// SourceRef is the provenance entry projected from a RetrievedItem.
type SourceRef struct {
	Kind       SourceKind        `json:"source_kind"`
	Metadata   map[string]string `json:"metadata"`
	Similarity *float64          `json:"similarity_score,omitempty"`
}

// TableData is a markdown table extracted from the answer text.
type TableData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ChartData is the parsed payload of a fenced chart block in the answer.
type ChartData map[string]json.RawMessage

// Answer is the generated response, enriched by the quality gate.
type Answer struct {
	Content    string      `json:"content"`
	Sources    []SourceRef `json:"sources"`
	Confidence float64     `json:"confidence_score"`
	TableData  *TableData  `json:"table_data,omitempty"`
	ChartData  ChartData   `json:"chart_data,omitempty"`
	Warnings   []string    `json:"warnings"`
}

// StageStatus is the lifecycle of one progress record.
type StageStatus string

const (
	StatusInProgress StageStatus = "in_progress"
	StatusCompleted  StageStatus = "completed"
	StatusError      StageStatus = "error"
)

// Workflow stage names, in execution order.
const (
	StageClassify = "classify"
	StageRetrieve = "retrieve"
	StageGenerate = "generate"
	StageAssess   = "assess"
)

// ProgressRecord is one entry of the append-only progress log.
type ProgressRecord struct {
	Stage   string      `json:"stage"`
	Status  StageStatus `json:"status"`
	Message string      `json:"message"`
}

// Request carries the caller-supplied inputs of one workflow invocation.
type Request struct {
	Query              string
	UserID             string
	ConversationID     string
	CustomInstructions string
	MemoryContext      string
	Model              string
	Temperature        float64
}

// State is the single mutable object threaded through the workflow stages.
// Each invocation owns its own instance.
type State struct {
	Request Request

	Classification *Classification
	Items          []RetrievedItem
	Answer         *Answer

	Progress []ProgressRecord
	Err      string

	onProgress func(ProgressRecord)
}

// beginStage appends an in_progress record for the stage.
func (s *State) beginStage(stage, message string) {
	rec := ProgressRecord{Stage: stage, Status: StatusInProgress, Message: message}
	s.Progress = append(s.Progress, rec)
	if s.onProgress != nil {
		s.onProgress(rec)
	}
}

// endStage transitions the most recent record's status in place. Only the
// latest record ever changes; earlier entries are immutable.
func (s *State) endStage(status StageStatus, message string) {
	if len(s.Progress) == 0 {
		return
	}
	last := &s.Progress[len(s.Progress)-1]
	last.Status = status
	if message != "" {
		last.Message = message
	}
	if s.onProgress != nil {
		s.onProgress(*last)
	}
}

// Result is what a synchronous workflow run returns: either an answer or an
// error description, always with the full progress log.
type Result struct {
	Answer   *Answer          `json:"answer,omitempty"`
	Err      string           `json:"error,omitempty"`
	Progress []ProgressRecord `json:"progress"`
}

// EventType tags a streaming workflow event.
type EventType string

const (
	EventProgress EventType = "progress"
	EventFinal    EventType = "final"
	EventError    EventType = "error"
)

// Event is one element of the streaming execution mode: progress events in
// stage order, then exactly one final or error event.
type Event struct {
	Type    EventType   `json:"type"`
	Stage   string      `json:"stage,omitempty"`
	Status  StageStatus `json:"status,omitempty"`
	Message string      `json:"message,omitempty"`
	Answer  *Answer     `json:"answer,omitempty"`
}
