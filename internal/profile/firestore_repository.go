package profile

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const profilesCollection = "profiles"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Firestore-backed repository. Documents are keyed by Clerk id,
// which gives the same one-record-per-user guarantee as the SQL unique key.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Upsert(ctx context.Context, p Profile) error {
	if p.ClerkID == "" {
		return ErrMissingClerkID
	}
	docRef := r.client.Collection(profilesCollection).Doc(p.ClerkID)
	now := time.Now().UTC()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		data := map[string]interface{}{
			"clerk_id":   p.ClerkID,
			"first_name": p.FirstName,
			"last_name":  p.LastName,
			"updated_at": now,
		}

		if _, err := tx.Get(docRef); status.Code(err) == codes.NotFound {
			data["created_at"] = now
		} else if err != nil {
			return err
		}

		return tx.Set(docRef, data, firestore.MergeAll)
	})
	if err != nil {
		return fmt.Errorf("firestore upsert: %w", err)
	}
	return nil
}

func (r *firestoreRepository) Get(ctx context.Context, clerkID string) (*Profile, error) {
	doc, err := r.client.Collection(profilesCollection).Doc(clerkID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore get: %w", err)
	}

	var p Profile
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	p.ClerkID = clerkID
	return &p, nil
}

func (r *firestoreRepository) Delete(ctx context.Context, clerkID string) error {
	if _, err := r.client.Collection(profilesCollection).Doc(clerkID).Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete: %w", err)
	}
	return nil
}
