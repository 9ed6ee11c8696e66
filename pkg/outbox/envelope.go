package outbox

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ActorRef identifies the account that produced the event.
type ActorRef struct {
	Account string `json:"account"`
	Role    string `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
// OccurredAt carries the ledger timestamp of the operation that emitted the
// event.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt int64           `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

func newEnvelopeID() string {
	return uuid.NewString()
}
