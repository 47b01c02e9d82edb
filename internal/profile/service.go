package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/focusnest/webhook-service/internal/clerk"
)

type service struct {
	repo          Repository
	logger        *slog.Logger
	syncDeletions bool
}

// ServiceOption configures NewService.
type ServiceOption func(*service)

// WithDeletions makes user.deleted remove the stored profile instead of being ignored.
func WithDeletions(enabled bool) ServiceOption {
	return func(s *service) { s.syncDeletions = enabled }
}

// NewService creates the sync service on top of repo.
func NewService(repo Repository, logger *slog.Logger, opts ...ServiceOption) Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &service{repo: repo, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Sync(ctx context.Context, ev clerk.Event) (SyncResult, error) {
	switch e := ev.(type) {
	case clerk.UserUpserted:
		return s.upsert(ctx, e)
	case clerk.UserDeleted:
		return s.delete(ctx, e)
	case nil:
		return SyncResult{}, fmt.Errorf("sync: nil event")
	default:
		return SyncResult{Action: ActionIgnored, EventType: ev.Type()}, nil
	}
}

func (s *service) upsert(ctx context.Context, e clerk.UserUpserted) (SyncResult, error) {
	id := strings.TrimSpace(e.User.ID)
	if id == "" {
		return SyncResult{}, ErrMissingClerkID
	}

	p := Profile{ClerkID: id, FirstName: e.User.FirstName, LastName: e.User.LastName}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return SyncResult{}, fmt.Errorf("upsert profile %s: %w", id, err)
	}

	if e.User.Username != nil {
		// profiles has no username column yet
		s.logger.DebugContext(ctx, "username not persisted", slog.String("clerkId", id))
	}

	return SyncResult{Action: ActionUpserted, EventType: e.Type(), ClerkID: id}, nil
}

func (s *service) delete(ctx context.Context, e clerk.UserDeleted) (SyncResult, error) {
	if !s.syncDeletions {
		return SyncResult{Action: ActionIgnored, EventType: e.Type(), ClerkID: e.ID}, nil
	}

	id := strings.TrimSpace(e.ID)
	if id == "" {
		return SyncResult{}, ErrMissingClerkID
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return SyncResult{}, fmt.Errorf("delete profile %s: %w", id, err)
	}
	return SyncResult{Action: ActionDeleted, EventType: e.Type(), ClerkID: id}, nil
}

func (s *service) Get(ctx context.Context, clerkID string) (*Profile, error) {
	clerkID = strings.TrimSpace(clerkID)
	if clerkID == "" {
		return nil, ErrMissingClerkID
	}
	return s.repo.Get(ctx, clerkID)
}
