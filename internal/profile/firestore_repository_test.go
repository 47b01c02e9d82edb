package profile

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/require"
)

// Runs only against the Firestore emulator (FIRESTORE_EMULATOR_HOST).
func TestFirestoreRepositoryContract(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	runRepositoryContract(t, func(t *testing.T) Repository {
		client, err := firestore.NewClient(context.Background(), "webhook-service-test")
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		repo := NewFirestoreRepository(client)
		for _, id := range []string{"u_1", "u_race", "nobody"} {
			require.NoError(t, repo.Delete(context.Background(), id))
		}
		return repo
	})
}
