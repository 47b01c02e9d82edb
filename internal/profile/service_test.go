package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/focusnest/webhook-service/internal/clerk"
	"github.com/focusnest/webhook-service/pkg/logging"
)

type fakeRepo struct {
	upsertFn func(context.Context, Profile) error
	getFn    func(context.Context, string) (*Profile, error)
	deleteFn func(context.Context, string) error

	upserts []Profile
	deletes []string
}

func (f *fakeRepo) Upsert(ctx context.Context, p Profile) error {
	f.upserts = append(f.upserts, p)
	if f.upsertFn != nil {
		return f.upsertFn(ctx, p)
	}
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, clerkID string) (*Profile, error) {
	if f.getFn != nil {
		return f.getFn(ctx, clerkID)
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) Delete(ctx context.Context, clerkID string) error {
	f.deletes = append(f.deletes, clerkID)
	if f.deleteFn != nil {
		return f.deleteFn(ctx, clerkID)
	}
	return nil
}

func strPtr(s string) *string { return &s }

func TestSyncUpsertMapsFields(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, logging.Discard())

	res, err := svc.Sync(context.Background(), clerk.UserUpserted{
		Kind: clerk.TypeUserCreated,
		User: clerk.User{ID: "u_1", FirstName: strPtr("Ada"), LastName: strPtr("Lovelace"), Username: strPtr("ada")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != ActionUpserted || res.ClerkID != "u_1" || res.EventType != clerk.TypeUserCreated {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(repo.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(repo.upserts))
	}
	got := repo.upserts[0]
	if got.ClerkID != "u_1" || *got.FirstName != "Ada" || *got.LastName != "Lovelace" {
		t.Fatalf("unexpected profile: %+v", got)
	}
}

func TestSyncUpsertRejectsBlankID(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, logging.Discard())

	_, err := svc.Sync(context.Background(), clerk.UserUpserted{Kind: clerk.TypeUserUpdated, User: clerk.User{ID: "  "}})
	if !errors.Is(err, ErrMissingClerkID) {
		t.Fatalf("expected ErrMissingClerkID, got %v", err)
	}
	if len(repo.upserts) != 0 {
		t.Fatal("store must not be touched")
	}
}

func TestSyncUpsertWrapsStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	repo := &fakeRepo{upsertFn: func(context.Context, Profile) error { return storeErr }}
	svc := NewService(repo, logging.Discard())

	_, err := svc.Sync(context.Background(), clerk.UserUpserted{Kind: clerk.TypeUserUpdated, User: clerk.User{ID: "u_1"}})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestSyncIgnoresUnhandledTypes(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, logging.Discard())

	res, err := svc.Sync(context.Background(), clerk.Unhandled{Kind: "session.created"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != ActionIgnored || res.EventType != "session.created" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(repo.upserts)+len(repo.deletes) != 0 {
		t.Fatal("store must not be touched")
	}
}

func TestSyncDeletedIgnoredByDefault(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, logging.Discard())

	res, err := svc.Sync(context.Background(), clerk.UserDeleted{ID: "u_1", Deleted: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != ActionIgnored {
		t.Fatalf("expected ignored, got %s", res.Action)
	}
	if len(repo.deletes) != 0 {
		t.Fatal("delete must not run when deletions are disabled")
	}
}

func TestSyncDeletedWhenEnabled(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, logging.Discard(), WithDeletions(true))

	res, err := svc.Sync(context.Background(), clerk.UserDeleted{ID: "u_1", Deleted: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != ActionDeleted || len(repo.deletes) != 1 || repo.deletes[0] != "u_1" {
		t.Fatalf("unexpected result %+v deletes=%v", res, repo.deletes)
	}

	storeErr := errors.New("boom")
	repo.deleteFn = func(context.Context, string) error { return storeErr }
	if _, err := svc.Sync(context.Background(), clerk.UserDeleted{ID: "u_1"}); !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestSyncNilEvent(t *testing.T) {
	svc := NewService(&fakeRepo{}, logging.Discard())
	if _, err := svc.Sync(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil event")
	}
}

func TestGetDelegatesToRepository(t *testing.T) {
	repo := &fakeRepo{getFn: func(_ context.Context, id string) (*Profile, error) {
		return &Profile{ClerkID: id, FirstName: strPtr("Ada")}, nil
	}}
	svc := NewService(repo, logging.Discard())

	p, err := svc.Get(context.Background(), " u_1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ClerkID != "u_1" {
		t.Fatalf("expected trimmed id, got %q", p.ClerkID)
	}

	if _, err := svc.Get(context.Background(), ""); !errors.Is(err, ErrMissingClerkID) {
		t.Fatalf("expected ErrMissingClerkID, got %v", err)
	}
}
