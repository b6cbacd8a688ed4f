// Package events is the wire format shared by the producing services and the
// notification consumer: JSON envelopes tagged by "event".
package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicAuth    = "auth-events"
	TopicBooking = "booking-events"
)

// Envelope tags.
const (
	KindUserRegistered = "USER_REGISTERED"
	KindBookingCreated = "BOOKING_CREATED"
)

// Verification methods of a registered user.
const (
	VerificationEmail = "email"
	VerificationPhone = "phone"
)

var (
	// ErrMalformed is returned for payloads that are not a JSON envelope.
	ErrMalformed = errors.New("malformed event envelope")
	// ErrMissingPayload is returned when a known tag comes without its payload object.
	ErrMissingPayload = errors.New("event payload missing")
)

// Event is the closed set of envelopes: UserRegistered, BookingCreated and Unknown.
type Event interface {
	Kind() string
	Key() string
	ID() string
	sealed()
}

// Meta is carried by every envelope. Both fields are optional on decode.
type Meta struct {
	EventID    string
	OccurredAt time.Time
}

func (m Meta) ID() string { return m.EventID }

func newMeta(now time.Time) Meta {
	return Meta{EventID: uuid.NewString(), OccurredAt: now.UTC()}
}

type User struct {
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Name               string `json:"name"`
	VerificationCode   string `json:"verificationCode"`
	VerificationMethod string `json:"verificationMethod"`
}

// Booking is the snapshot carried by BookingCreated. Routing reads only the ids,
// so CreatedAt is kept as sent by the producer.
type Booking struct {
	ID        string          `json:"_id"`
	UserID    string          `json:"userId"`
	ListingID string          `json:"listingId"`
	Date      string          `json:"date"`
	Status    string          `json:"status"`
	CreatedAt json.RawMessage `json:"createdAt,omitempty"`
}

// Timestamp encodes t as an RFC 3339 JSON string, or nil when t cannot be encoded.
func Timestamp(t time.Time) json.RawMessage {
	raw, err := t.UTC().MarshalJSON()
	if err != nil {
		return nil
	}
	return raw
}

// UserRegistered is published to TopicAuth, keyed by the user email.
type UserRegistered struct {
	Meta
	User User
}

func NewUserRegistered(u User) UserRegistered {
	return UserRegistered{Meta: newMeta(time.Now()), User: u}
}

func (UserRegistered) Kind() string  { return KindUserRegistered }
func (e UserRegistered) Key() string { return e.User.Email }
func (UserRegistered) sealed()       {}

func (e UserRegistered) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Event: KindUserRegistered, EventID: e.EventID, OccurredAt: e.OccurredAt, User: &e.User})
}

// BookingCreated is published to TopicBooking, keyed by the booking id.
type BookingCreated struct {
	Meta
	Booking Booking
}

func NewBookingCreated(b Booking) BookingCreated {
	return BookingCreated{Meta: newMeta(time.Now()), Booking: b}
}

func (BookingCreated) Kind() string  { return KindBookingCreated }
func (e BookingCreated) Key() string { return e.Booking.ID }
func (BookingCreated) sealed()       {}

func (e BookingCreated) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Event: KindBookingCreated, EventID: e.EventID, OccurredAt: e.OccurredAt, Booking: &e.Booking})
}

// Unknown is any envelope whose tag is not recognised, including a missing tag.
type Unknown struct {
	Meta
	Tag string
}

func (e Unknown) Kind() string { return e.Tag }
func (Unknown) Key() string    { return "" }
func (Unknown) sealed()        {}

func (e Unknown) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Event: e.Tag, EventID: e.EventID, OccurredAt: e.OccurredAt})
}

type envelope struct {
	Event      string    `json:"event"`
	EventID    string    `json:"eventId,omitempty"`
	OccurredAt time.Time `json:"occurredAt,omitzero"`
	User       *User     `json:"user,omitempty"`
	Booking    *Booking  `json:"booking,omitempty"`
}

// Decode parses one envelope. Errors wrap ErrMalformed or ErrMissingPayload.
func Decode(data []byte) (Event, error) {
	var env struct {
		Event      string          `json:"event"`
		EventID    string          `json:"eventId"`
		OccurredAt json.RawMessage `json:"occurredAt"`
		User       json.RawMessage `json:"user"`
		Booking    json.RawMessage `json:"booking"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	meta := Meta{EventID: env.EventID, OccurredAt: parseOccurredAt(env.OccurredAt)}

	switch env.Event {
	case KindUserRegistered:
		var u User
		if err := decodePayload(env.User, &u); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Event, err)
		}
		return UserRegistered{Meta: meta, User: u}, nil
	case KindBookingCreated:
		var b Booking
		if err := decodePayload(env.Booking, &b); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Event, err)
		}
		return BookingCreated{Meta: meta, Booking: b}, nil
	default:
		return Unknown{Meta: meta, Tag: env.Event}, nil
	}
}

// parseOccurredAt ignores values that are not RFC 3339 strings; the field is informational.
func parseOccurredAt(raw json.RawMessage) time.Time {
	var t time.Time
	if len(raw) == 0 || json.Unmarshal(raw, &t) != nil {
		return time.Time{}
	}
	return t
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ErrMissingPayload
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}
