package dto

import (
	"time"

	"ai-salesbot-be/pkg/store"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
}

// ChatResponse carries the assistant's reply and the recommendations
// computed for this message.
type ChatResponse struct {
	Response        string                 `json:"response"`
	Recommendations []store.Recommendation `json:"recommendations"`
}

// PreferenceSearchRequest is the body of POST /search/preferences.
type PreferenceSearchRequest struct {
	Preferences store.Preferences `json:"preferences"`
	Limit       int               `json:"limit"`
}

// SessionInfoResponse summarizes one conversation session.
type SessionInfoResponse struct {
	SessionID   string            `json:"session_id"`
	CreatedAt   time.Time         `json:"created_at"`
	State       store.FunnelState `json:"state"`
	Turns       int               `json:"turns"`
	Preferences store.Preferences `json:"preferences"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
