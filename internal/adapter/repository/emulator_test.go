package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
)

// newEmulatorClient connects to the Firestore emulator named by
// FIRESTORE_EMULATOR_HOST. The client library routes there on its own.
func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "gigmarket-test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func seedUser(t *testing.T, repo repository.UserRepository) *entity.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.New().String()
	u := &entity.User{
		ID:        id,
		Name:      "User " + id[:8],
		Email:     id + "@example.com",
		Role:      entity.RoleClient,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}
