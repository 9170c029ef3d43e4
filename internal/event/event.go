package event

type Type string

const (
	TypeHandshakeStarted Type = "oauth.handshake_started"
	TypeTokensIssued     Type = "oauth.tokens_issued"
	TypeHandshakeFailed  Type = "oauth.handshake_failed"
	TypeTokensRefreshed  Type = "oauth.tokens_refreshed"
	TypeStepsUpdated     Type = "steps.updated"
	TypeUserRegistered   Type = "user.registered"
)

// Event payloads must never carry tokens, codes or verifiers.
type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	UserID    int64  `json:"user_id,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
