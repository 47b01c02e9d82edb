package clerk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Event types emitted by Clerk that this service understands.
const (
	TypeUserCreated = "user.created"
	TypeUserUpdated = "user.updated"
	TypeUserDeleted = "user.deleted"
)

// ErrMalformedEvent marks payloads that cannot be interpreted as a Clerk event.
var ErrMalformedEvent = errors.New("malformed event")

var validate = validator.New()

// Event is the decoded form of a webhook envelope. The concrete type is one of
// UserUpserted, UserDeleted or Unhandled.
type Event interface {
	Type() string
	event()
}

// User carries the subset of Clerk's user object the profile store cares about.
type User struct {
	ID        string  `json:"id" validate:"required"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Username  *string `json:"username"`
}

// UserUpserted is produced for user.created and user.updated.
type UserUpserted struct {
	Kind string
	User User
}

func (e UserUpserted) Type() string { return e.Kind }
func (UserUpserted) event()         {}

// UserDeleted is produced for user.deleted. ID may be empty; callers that act on deletions
// must check it.
type UserDeleted struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (UserDeleted) Type() string { return TypeUserDeleted }
func (UserDeleted) event()       {}

// Unhandled covers every event type without a dedicated variant.
type Unhandled struct {
	Kind string
}

func (e Unhandled) Type() string { return e.Kind }
func (Unhandled) event()         {}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Decode parses a verified webhook body. Unknown fields inside data are tolerated because
// Clerk sends the full user object; known fields with the wrong JSON type are rejected.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}

	switch env.Type {
	case TypeUserCreated, TypeUserUpdated:
		var u User
		if err := decodeData(env.Data, &u, func() { u.ID = strings.TrimSpace(u.ID) }); err != nil {
			return nil, err
		}
		return UserUpserted{Kind: env.Type, User: u}, nil
	case TypeUserDeleted:
		return decodeDeleted(env.Data), nil
	default:
		return Unhandled{Kind: env.Type}, nil
	}
}

// decodeDeleted tolerates missing or malformed data and leaves ID empty.
func decodeDeleted(data json.RawMessage) UserDeleted {
	var d UserDeleted
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return d
	}
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return UserDeleted{}
	}
	d.ID = strings.TrimSpace(d.ID)
	return d
}

func decodeData(data json.RawMessage, dst any, normalize func()) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: missing data", ErrMalformedEvent)
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("%w: data must be an object", ErrMalformedEvent)
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	normalize()
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}
