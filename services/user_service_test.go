package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Dosada05/tournament-finder/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_ApplyEvent(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewUserService(store.Users(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	name := "Ann"
	org := "Ann's Club"
	created := UserEvent{
		Type: EventUserCreated,
		Data: UserEventData{
			ID: "user_1",
			EmailAddresses: []EmailAddress{
				{ID: "e1", EmailAddress: "old@example.com"},
				{ID: "e2", EmailAddress: "ann@example.com"},
			},
			PrimaryEmailAddressID: "e2",
			FirstName:             &name,
			UnsafeMetadata:        UserMetadata{OrganizerName: &org, IsVerified: true},
		},
	}
	require.NoError(t, svc.ApplyEvent(ctx, created))

	users, err := store.Users().GetByIDs(ctx, []string{"user_1"})
	require.NoError(t, err)
	require.Contains(t, users, "user_1")
	assert.Equal(t, "ann@example.com", users["user_1"].Email)
	assert.Equal(t, &org, users["user_1"].OrganizerName)
	assert.True(t, users["user_1"].IsVerified)

	require.NoError(t, svc.ApplyEvent(ctx, UserEvent{Type: EventUserDeleted, Data: UserEventData{ID: "user_1"}}))
	users, err = store.Users().GetByIDs(ctx, []string{"user_1"})
	require.NoError(t, err)
	assert.Empty(t, users)

	// Deleting an unknown user and unknown event types are no-ops.
	assert.NoError(t, svc.ApplyEvent(ctx, UserEvent{Type: EventUserDeleted, Data: UserEventData{ID: "user_1"}}))
	assert.NoError(t, svc.ApplyEvent(ctx, UserEvent{Type: "session.created", Data: UserEventData{ID: "user_1"}}))

	assert.ErrorIs(t, svc.ApplyEvent(ctx, UserEvent{Type: EventUserCreated}), ErrValidationFailed)
}
