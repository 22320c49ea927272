package models

import "time"

// Participation exists iff UserID is registered for TournamentID.
type Participation struct {
	TournamentID string    `json:"tournamentId" db:"tournament_id"`
	UserID       string    `json:"userId" db:"user_id"`
	JoinedAt     time.Time `json:"joinedAt" db:"joined_at"`
}
