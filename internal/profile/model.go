package profile

import (
	"context"
	"errors"

	"github.com/focusnest/webhook-service/internal/clerk"
)

var (
	// ErrNotFound is returned when no profile exists for a Clerk user id.
	ErrNotFound = errors.New("profile not found")
	// ErrMissingClerkID indicates an event or lookup without a user id.
	ErrMissingClerkID = errors.New("clerk id is required")
)

// Profile is the persisted record mirrored from Clerk. ClerkID is unique; the name fields
// are overwritten on every sync and may be null.
type Profile struct {
	ClerkID   string  `json:"clerk_id" firestore:"clerk_id"`
	FirstName *string `json:"first_name" firestore:"first_name"`
	LastName  *string `json:"last_name" firestore:"last_name"`
}

// Action describes what a sync did to the store.
type Action string

const (
	ActionUpserted Action = "upserted"
	ActionDeleted  Action = "deleted"
	ActionIgnored  Action = "ignored"
)

// SyncResult summarises the outcome of applying one event.
type SyncResult struct {
	Action    Action
	EventType string
	ClerkID   string
}

// Repository is the profile store. Upsert must be insert-or-replace keyed on ClerkID so
// redelivered and concurrent events converge on a single record.
type Repository interface {
	Upsert(ctx context.Context, p Profile) error
	Get(ctx context.Context, clerkID string) (*Profile, error)
	Delete(ctx context.Context, clerkID string) error
}

// Pinger is implemented by stores that can report reachability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Service reconciles Clerk events into the profile store.
type Service interface {
	Sync(ctx context.Context, ev clerk.Event) (SyncResult, error)
	Get(ctx context.Context, clerkID string) (*Profile, error)
}
