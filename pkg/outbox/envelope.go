package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

// EnvelopeVersion is bumped when the envelope layout changes, not when a
// payload gains fields.
const EnvelopeVersion = 1

// ActorRef identifies who caused the event. Guest and system events carry
// no actor.
type ActorRef struct {
	UserID   *uuid.UUID `json:"userId,omitempty"`
	SellerID *uuid.UUID `json:"sellerId,omitempty"`
	Role     string     `json:"role,omitempty"`
}

// PayloadEnvelope is stored in outbox_events.payload and published as the
// message body.
type PayloadEnvelope struct {
	Version    int                   `json:"version"`
	EventID    string                `json:"eventId"`
	EventType  enums.OutboxEventType `json:"eventType,omitempty"`
	OccurredAt time.Time             `json:"occurredAt"`
	Actor      *ActorRef             `json:"actor,omitempty"`
	Data       json.RawMessage       `json:"data"`
}
