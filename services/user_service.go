package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-finder/models"
	"github.com/Dosada05/tournament-finder/repositories"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// UserEvent is a verified identity-provider webhook.
type UserEvent struct {
	Type string        `json:"type"`
	Data UserEventData `json:"data"`
}

type UserEventData struct {
	ID                    string         `json:"id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	ImageURL              *string        `json:"image_url"`
	UnsafeMetadata        UserMetadata   `json:"unsafe_metadata"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type UserMetadata struct {
	OrganizerName    *string `json:"organizerName"`
	OrganizerContact *string `json:"organizerContact"`
	IsVerified       bool    `json:"isVerified"`
}

func (d UserEventData) primaryEmail() string {
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}

type UserService interface {
	ApplyEvent(ctx context.Context, evt UserEvent) error
}

type userService struct {
	users  repositories.UserRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewUserService(users repositories.UserRepository, logger *slog.Logger) UserService {
	return &userService{
		users:  users,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ApplyEvent mirrors one identity change into the users table. Event types
// other than user.created, user.updated and user.deleted are ignored.
func (s *userService) ApplyEvent(ctx context.Context, evt UserEvent) error {
	if strings.TrimSpace(evt.Data.ID) == "" {
		return newValidationError("data.id", "is required")
	}

	switch evt.Type {
	case EventUserCreated, EventUserUpdated:
		now := s.now()
		u := &models.User{
			ID:               evt.Data.ID,
			Email:            evt.Data.primaryEmail(),
			FirstName:        evt.Data.FirstName,
			LastName:         evt.Data.LastName,
			ImageURL:         evt.Data.ImageURL,
			OrganizerName:    evt.Data.UnsafeMetadata.OrganizerName,
			OrganizerContact: evt.Data.UnsafeMetadata.OrganizerContact,
			IsVerified:       evt.Data.UnsafeMetadata.IsVerified,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.users.Upsert(ctx, u); err != nil {
			return internalError("upsert user", err)
		}
		s.logger.InfoContext(ctx, "user synced", slog.String("user_id", u.ID), slog.String("event", evt.Type))

	case EventUserDeleted:
		err := s.users.Delete(ctx, evt.Data.ID)
		if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
			return internalError("delete user", err)
		}
		s.logger.InfoContext(ctx, "user removed", slog.String("user_id", evt.Data.ID))

	default:
		s.logger.DebugContext(ctx, "ignoring webhook event", slog.String("event", evt.Type))
	}
	return nil
}
