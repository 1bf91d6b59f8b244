// Package activity publishes committed ledger changes to a message broker for
// downstream consumers such as dashboards and notification workers.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

type Type string

const (
	TypeRegistered            Type = "registration.created"
	TypeRegistrationCancelled Type = "registration.cancelled"
	TypeCheckedIn             Type = "attendance.checked_in"
	TypeCheckedOut            Type = "attendance.checked_out"
	TypeTokenIssued           Type = "checkin_token.issued"
	TypeTokenRevoked          Type = "checkin_token.revoked"
	TypeTokensExpired         Type = "checkin_token.expired"
)

// Event is one published message.
type Event struct {
	Type    Type              `json:"type"`
	EventID uint              `json:"event_id"`
	UserID  uint              `json:"user_id,omitempty"`
	At      time.Time         `json:"at"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Emit publishes ev after the store transaction has committed. Failures are
// logged and dropped: the database remains the source of truth.
func Emit(ctx context.Context, p Publisher, log zerolog.Logger, ev Event) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn().
			Err(err).
			Str("type", string(ev.Type)).
			Uint("event_id", ev.EventID).
			Msg("activity publish failed")
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
