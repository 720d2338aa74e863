package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ziadkadry99/partschat/internal/agent"
	"github.com/ziadkadry99/partschat/internal/memory"
	"github.com/ziadkadry99/partschat/internal/settings"
)

// QueryRequest is the inbound payload of a chat query.
type QueryRequest struct {
	Query          string `json:"query"`
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
}

// QueryResponse is the outbound payload of a synchronous chat query.
type QueryResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Answer         *agent.Answer          `json:"answer,omitempty"`
	Error          string                 `json:"error,omitempty"`
	Progress       []agent.ProgressRecord `json:"progress"`
}

// Service ties the workflow to conversation persistence, per-user settings
// and memory.
type Service struct {
	store    *Store
	workflow *agent.Workflow
	memory   *memory.Manager
	settings *settings.Store
}

// NewService creates a chat service. memoryManager and settingsStore may be
// nil; queries then run without personalization.
func NewService(store *Store, workflow *agent.Workflow, memoryManager *memory.Manager, settingsStore *settings.Store) *Service {
	return &Service{
		store:    store,
		workflow: workflow,
		memory:   memoryManager,
		settings: settingsStore,
	}
}

// Store returns the underlying chat store.
func (s *Service) Store() *Store {
	return s.store
}

// prepare resolves the conversation, builds the workflow request from the
// user's settings and memory, and records the user message.
func (s *Service) prepare(ctx context.Context, q QueryRequest) (agent.Request, string, []memory.Turn, error) {
	if q.UserID == "" {
		q.UserID = "anonymous"
	}

	conversationID := q.ConversationID
	if conversationID == "" {
		conv, err := s.store.CreateConversation(ctx, q.UserID, titleFrom(q.Query))
		if err != nil {
			return agent.Request{}, "", nil, err
		}
		conversationID = conv.ID
	} else if conv, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return agent.Request{}, "", nil, err
	} else if conv == nil {
		return agent.Request{}, "", nil, fmt.Errorf("conversation not found: %s", conversationID)
	}

	history, err := s.history(ctx, conversationID)
	if err != nil {
		return agent.Request{}, "", nil, err
	}

	req := agent.Request{
		Query:          q.Query,
		UserID:         q.UserID,
		ConversationID: conversationID,
	}

	if s.settings != nil {
		if st, err := s.settings.Get(ctx, q.UserID); err != nil {
			log.Printf("loading settings for %s: %v", q.UserID, err)
		} else {
			req.CustomInstructions = st.CustomInstructions
			req.Model = st.Model
			req.Temperature = st.Temperature
		}
	}

	if s.memory != nil {
		if memCtx, err := s.memory.FullContext(ctx, q.UserID, history); err != nil {
			log.Printf("loading memory context for %s: %v", q.UserID, err)
		} else {
			req.MemoryContext = memCtx
		}
	}

	if _, err := s.store.AddMessage(ctx, Message{
		ConversationID: conversationID,
		Role:           "user",
		Content:        q.Query,
	}); err != nil {
		log.Printf("saving user message: %v", err)
	}

	return req, conversationID, history, nil
}

// finish records the assistant answer and runs best-effort memory
// extraction in the background.
func (s *Service) finish(conversationID string, req agent.Request, history []memory.Turn, answer *agent.Answer) {
	ctx := context.Background()

	if answer != nil {
		metadata := map[string]any{
			"sources":          answer.Sources,
			"confidence_score": answer.Confidence,
		}
		if len(answer.Warnings) > 0 {
			metadata["warnings"] = answer.Warnings
		}
		if _, err := s.store.AddMessage(ctx, Message{
			ConversationID: conversationID,
			Role:           "assistant",
			Content:        answer.Content,
			Metadata:       metadata,
		}); err != nil {
			log.Printf("saving assistant message: %v", err)
		}
	}

	if s.memory != nil && answer != nil {
		turns := append(history,
			memory.Turn{Role: "user", Content: req.Query},
			memory.Turn{Role: "assistant", Content: answer.Content})
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.memory.ExtractAndSave(ctx, req.UserID, turns)
		}()
	}
}

// Query runs one synchronous chat query end to end.
func (s *Service) Query(ctx context.Context, q QueryRequest) (*QueryResponse, error) {
	req, conversationID, history, err := s.prepare(ctx, q)
	if err != nil {
		return nil, err
	}

	result := s.workflow.Run(ctx, req)
	s.finish(conversationID, req, history, result.Answer)

	return &QueryResponse{
		ConversationID: conversationID,
		Answer:         result.Answer,
		Error:          result.Err,
		Progress:       result.Progress,
	}, nil
}

// Stream runs one chat query in streaming mode. The caller consumes the
// event channel; the assistant message is persisted when the final event
// has been produced.
func (s *Service) Stream(ctx context.Context, q QueryRequest) (<-chan agent.Event, string, error) {
	req, conversationID, history, err := s.prepare(ctx, q)
	if err != nil {
		return nil, "", err
	}

	inner := s.workflow.Stream(ctx, req)
	out := make(chan agent.Event)
	go func() {
		defer close(out)
		for ev := range inner {
			if ev.Type == agent.EventFinal {
				s.finish(conversationID, req, history, ev.Answer)
			}
			out <- ev
		}
	}()
	return out, conversationID, nil
}

// history loads a conversation's turns as memory turns.
func (s *Service) history(ctx context.Context, conversationID string) ([]memory.Turn, error) {
	messages, err := s.store.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	turns := make([]memory.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, memory.Turn{Role: m.Role, Content: m.Content})
	}
	return turns, nil
}

// titleFrom derives a conversation title from the first query.
func titleFrom(query string) string {
	runes := []rune(query)
	if len(runes) > 40 {
		return string(runes[:40]) + "..."
	}
	return query
}
