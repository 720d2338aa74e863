package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ziadkadry99/partschat/internal/cache"
)

// Workflow sequences the query-answering stages over a per-invocation State.
// One Workflow instance serves the whole process; invocations share no
// mutable state and may run concurrently.
type Workflow struct {
	classifier *Classifier
	retriever  *Retriever
	generator  *Generator

	cache        cache.Cache
	queryTTL     time.Duration
	alwaysSearch bool
}

// NewWorkflow wires the stages together. c may be nil to disable response
// caching. alwaysSearch switches the retrieval-skip policy: when set,
// lightweight queries still run document search as a default.
func NewWorkflow(classifier *Classifier, retriever *Retriever, generator *Generator, c cache.Cache, queryTTL time.Duration, alwaysSearch bool) *Workflow {
	return &Workflow{
		classifier:   classifier,
		retriever:    retriever,
		generator:    generator,
		cache:        c,
		queryTTL:     queryTTL,
		alwaysSearch: alwaysSearch,
	}
}

// Run executes the workflow synchronously and returns the answer (or error
// description) with the full progress log.
func (w *Workflow) Run(ctx context.Context, req Request) *Result {
	st := w.execute(ctx, req, nil)
	return &Result{Answer: st.Answer, Err: st.Err, Progress: st.Progress}
}

// Stream executes the workflow and emits one event per progress transition,
// followed by exactly one final or error event. The returned channel is
// closed after the terminal event. Every send honors ctx so a consumer that
// stops draining and cancels does not strand the workflow goroutine.
func (w *Workflow) Stream(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)

		emit := func(ev Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}

		st := w.execute(ctx, req, func(rec ProgressRecord) {
			emit(Event{
				Type:    EventProgress,
				Stage:   rec.Stage,
				Status:  rec.Status,
				Message: rec.Message,
			})
		})

		if st.Err != "" {
			emit(Event{Type: EventError, Message: st.Err})
			return
		}
		emit(Event{Type: EventFinal, Answer: st.Answer})
	}()
	return events
}

// execute runs the stage sequence classify -> (retrieve?) -> generate ->
// assess over a fresh State. Any panic inside a stage is caught here and
// converted into a terminal error; callers never see a raw panic.
func (w *Workflow) execute(ctx context.Context, req Request, onProgress func(ProgressRecord)) (st *State) {
	st = &State{Request: req, onProgress: onProgress}

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("질의 처리 중 오류가 발생했습니다: %v", r)
			st.endStage(StatusError, msg)
			st.Err = msg
		}
	}()

	if answer := w.cachedAnswer(ctx, req); answer != nil {
		st.Answer = answer
		st.beginStage(StageClassify, "캐시된 답변을 사용합니다")
		st.endStage(StatusCompleted, "")
		return st
	}

	st.beginStage(StageClassify, "질문을 분석하고 있습니다")
	cls := w.classifier.Classify(ctx, req.Query)
	st.Classification = &cls
	st.endStage(StatusCompleted, fmt.Sprintf("의도: %s", cls.Intent))

	if !cls.SkipsRetrieval() || w.alwaysSearch {
		st.beginStage(StageRetrieve, "자료를 검색하고 있습니다")
		retrieveCls := &cls
		if w.alwaysSearch && cls.SkipsRetrieval() {
			// Fallback policy: search documents even for lightweight queries.
			retrieveCls = &Classification{
				Intent:      cls.Intent,
				DataSources: []DataSource{SourceVector},
				Entities:    cls.Entities,
			}
		}
		st.Items = w.retriever.Retrieve(ctx, retrieveCls, req.Query)
		st.endStage(StatusCompleted, fmt.Sprintf("%d건의 자료를 찾았습니다", len(st.Items)))
	}

	st.beginStage(StageGenerate, "답변을 생성하고 있습니다")
	answer, err := w.generator.Generate(ctx, req, st.Items)
	if err != nil {
		msg := "답변 생성에 실패했습니다: " + err.Error()
		st.endStage(StatusError, msg)
		st.Err = msg
		return st
	}
	st.Answer = answer
	st.endStage(StatusCompleted, "")

	st.beginStage(StageAssess, "답변 품질을 확인하고 있습니다")
	Assess(st.Answer)
	st.endStage(StatusCompleted, fmt.Sprintf("신뢰도 %.2f", st.Answer.Confidence))

	w.storeAnswer(ctx, req, st.Answer)
	return st
}

// cachedAnswer returns a previously cached answer for the query, or nil.
// The cache is advisory: any failure is treated as a miss.
func (w *Workflow) cachedAnswer(ctx context.Context, req Request) *Answer {
	if w.cache == nil || req.CustomInstructions != "" || req.MemoryContext != "" {
		return nil
	}
	data, ok, err := w.cache.Get(ctx, cache.QueryKey(req.Query))
	if err != nil || !ok {
		return nil
	}
	var answer Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		return nil
	}
	return &answer
}

// storeAnswer caches a successful answer. Personalized requests are not
// cached: their answers depend on more than the query text.
func (w *Workflow) storeAnswer(ctx context.Context, req Request, answer *Answer) {
	if w.cache == nil || answer == nil || req.CustomInstructions != "" || req.MemoryContext != "" {
		return
	}
	data, err := json.Marshal(answer)
	if err != nil {
		return
	}
	_ = w.cache.Set(ctx, cache.QueryKey(req.Query), data, w.queryTTL)
}
