package store

import "time"

// FunnelState identifies the scripted stage a conversation is in.
type FunnelState string

const (
	StateInitial           FunnelState = "INITIAL"
	StateInsuranceUpsell   FunnelState = "INSURANCE_UPSELL"
	StateAccessoriesUpsell FunnelState = "ACCESSORIES_UPSELL"
	StateWatchUpsell       FunnelState = "WATCH_UPSELL"
	StateFinal             FunnelState = "FINAL"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Recommendation is the product summary attached to assistant turns and
// returned to the chat caller.
type Recommendation struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	URL            string   `json:"url"`
	StorageOptions []string `json:"storage_options"`
	Brand          string   `json:"brand"`
}

// Preferences holds optional, user-stated constraints used by
// preference-based product scoring. All fields are absent by default.
type Preferences struct {
	BudgetMin *float64 `json:"budget_min,omitempty"`
	BudgetMax *float64 `json:"budget_max,omitempty"`
	Brand     string   `json:"brand,omitempty"`
	Storage   string   `json:"storage,omitempty"`
	DataUsage string   `json:"data_usage,omitempty"`
	Features  []string `json:"features,omitempty"`
}

// Turn is a single conversation entry. Turns are append-only, ordered by
// conversation order, and never mutated once appended.
type Turn struct {
	Timestamp       time.Time        `json:"timestamp"`
	Role            string           `json:"role"`
	Content         string           `json:"content"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Session is the durable record of one customer's conversation, keyed by
// an opaque identifier supplied by the client.
type Session struct {
	ID          string      `json:"session_id"`
	CreatedAt   time.Time   `json:"created_at"`
	State       FunnelState `json:"state"`
	Preferences Preferences `json:"preferences"`
	Turns       []Turn      `json:"turns"`
}

// NewSession creates a session in the INITIAL funnel stage with no turns.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		State:     StateInitial,
		Turns:     []Turn{},
	}
}

// AddTurn appends a turn to the conversation log.
func (s *Session) AddTurn(role, content string, recommendations []Recommendation) {
	s.Turns = append(s.Turns, Turn{
		Timestamp:       time.Now().UTC(),
		Role:            role,
		Content:         content,
		Recommendations: recommendations,
	})
}

// RecentTurns returns the last n turns in conversation order.
func (s *Session) RecentTurns(n int) []Turn {
	if n <= 0 || len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}
