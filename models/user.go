package models

import "time"

// User mirrors the identity provider's user record.
type User struct {
	ID               string    `json:"id" db:"id"`
	Email            string    `json:"email" db:"email"`
	FirstName        *string   `json:"firstName" db:"first_name"`
	LastName         *string   `json:"lastName" db:"last_name"`
	ImageURL         *string   `json:"imageUrl" db:"image_url"`
	OrganizerName    *string   `json:"organizerName" db:"organizer_name"`
	OrganizerContact *string   `json:"organizerContact" db:"organizer_contact"`
	IsVerified       bool      `json:"isVerified" db:"is_verified"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}
