// internal/ledger/events.go
package ledger

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventProductRegistered    EventType = "product_registered"
	EventOwnershipTransferred EventType = "ownership_transferred"
	EventCheckpointAdded      EventType = "checkpoint_added"
	EventPaymentEscrowed      EventType = "payment_escrowed"
	EventPaymentReleased      EventType = "payment_released"
	EventProductRecalled      EventType = "product_recalled"
)

// Event is the notification handed to the environment's sink after a mutating
// operation commits.
type Event struct {
	Type      EventType              `json:"type"`
	ProductID uint64                 `json:"product_id"`
	Actor     uuid.UUID              `json:"actor"`
	At        time.Time              `json:"at"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Sink receives committed ledger events. Implementations must not fail the
// originating operation; delivery happens after the transaction is durable.
type Sink interface {
	Emit(event Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// NopSink discards all events.
var NopSink Sink = SinkFunc(func(Event) {})
