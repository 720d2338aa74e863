package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/ziadkadry99/partschat/internal/llm"
)

// extractThreshold is the minimum conversation length before the manager
// attempts LLM-based memory extraction.
const extractThreshold = 10

// Turn is one message of conversation history, decoupled from the chat
// package's storage types.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Manager combines long-term memories with recent conversation turns into
// the context string used during answer generation.
type Manager struct {
	store          *Store
	provider       llm.Provider
	model          string
	shortTermTurns int
}

// NewManager creates a memory manager. provider may be nil, in which case
// ExtractAndSave is a no-op.
func NewManager(store *Store, provider llm.Provider, model string, shortTermTurns int) *Manager {
	if shortTermTurns <= 0 {
		shortTermTurns = 5
	}
	return &Manager{
		store:          store,
		provider:       provider,
		model:          model,
		shortTermTurns: shortTermTurns,
	}
}

// Store returns the underlying memory store.
func (m *Manager) Store() *Store {
	return m.store
}

// FullContext renders long-term memories and the last few conversation turns
// as a text block for the system prompt. Returns "" when there is nothing to
// include.
func (m *Manager) FullContext(ctx context.Context, userID string, history []Turn) (string, error) {
	var sb strings.Builder

	memories, err := m.store.List(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading memories: %w", err)
	}
	if len(memories) > 0 {
		sb.WriteString("사용자에 대해 기억하고 있는 정보:\n")
		for _, mem := range memories {
			sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", mem.Category, mem.Key, mem.Value))
		}
	}

	recent := history
	if len(recent) > m.shortTermTurns*2 {
		recent = recent[len(recent)-m.shortTermTurns*2:]
	}
	if len(recent) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("최근 대화:\n")
		for _, turn := range recent {
			sb.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Content))
		}
	}

	return sb.String(), nil
}

type extractedMemory struct {
	Category   string `json:"category"`
	Key        string `json:"key"`
	Value      string `json:"value"`
	Importance string `json:"importance"`
}

const extractSystemPrompt = `대화에서 사용자에 대한 장기 기억으로 저장할 가치가 있는 사실을 추출하세요.
담당 설비, 자주 찾는 부품, 선호하는 답변 형식 같은 지속적인 정보만 추출합니다.
JSON 배열로만 응답하세요: [{"category": "...", "key": "...", "value": "...", "importance": "high|medium|low"}]
저장할 것이 없으면 빈 배열 []을 반환하세요.`

// ExtractAndSave asks the LLM to pull durable facts out of a conversation
// and saves them. It only runs for conversations of at least ten messages,
// and failures are logged rather than returned: memory extraction is a
// best-effort background concern.
func (m *Manager) ExtractAndSave(ctx context.Context, userID string, history []Turn) {
	if m.provider == nil || len(history) < extractThreshold {
		return
	}

	var convo strings.Builder
	for _, turn := range history {
		convo.WriteString(turn.Role)
		convo.WriteString(": ")
		convo.WriteString(turn.Content)
		convo.WriteString("\n")
	}

	resp, err := m.provider.Complete(ctx, llm.CompletionRequest{
		Model: m.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: extractSystemPrompt},
			{Role: llm.RoleUser, Content: convo.String()},
		},
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		log.Printf("memory extraction failed for user %s: %v", userID, err)
		return
	}

	var extracted []extractedMemory
	if err := json.Unmarshal([]byte(extractJSONArray(resp.Content)), &extracted); err != nil {
		log.Printf("memory extraction returned invalid JSON for user %s: %v", userID, err)
		return
	}

	for _, e := range extracted {
		if e.Category == "" || e.Key == "" || e.Value == "" {
			continue
		}
		err := m.store.Save(ctx, Memory{
			UserID:     userID,
			Category:   e.Category,
			Key:        e.Key,
			Value:      e.Value,
			Importance: Importance(e.Importance),
		})
		if err != nil {
			log.Printf("saving extracted memory for user %s: %v", userID, err)
		}
	}
}

// extractJSONArray pulls the first JSON array out of text that may carry
// surrounding prose or code fences.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return "[]"
}
