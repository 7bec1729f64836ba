package domain

import "time"

// Feedback — обратная связь оператора (Human-in-the-loop)
type Feedback struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
