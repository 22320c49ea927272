package services

import (
	"time"

	"github.com/Dosada05/tournament-finder/lifecycle"
	"github.com/Dosada05/tournament-finder/models"
)

// TournamentSummary is the list projection of a tournament.
type TournamentSummary struct {
	ID                string                   `json:"id"`
	CreatedBy         string                   `json:"createdBy"`
	Title             string                   `json:"title"`
	Description       string                   `json:"description"`
	Rules             *string                  `json:"rules"`
	SportType         models.SportType         `json:"sportType"`
	SkillLevel        *models.SkillLevel       `json:"skillLevel"`
	Format            *models.TournamentFormat `json:"format"`
	DateStart         time.Time                `json:"dateStart"`
	DateEnd           time.Time                `json:"dateEnd"`
	EntryFee          float64                  `json:"entryFee"`
	PrizePool         float64                  `json:"prizePool"`
	MaxParticipants   int                      `json:"maxParticipants"`
	ParticipantsCount int                      `json:"participantsCount"`
	Location          string                   `json:"location"`
	City              string                   `json:"city"`
	GeoCoordinates    models.GeoCoordinates    `json:"geoCoordinates"`
	AgeRestrictions   models.AgeRestrictions   `json:"ageRestrictions"`
	Images            []models.Image           `json:"images"`
	IsActive          bool                     `json:"isActive"`
	IsApproved        bool                     `json:"isApproved"`
	Status            lifecycle.Status         `json:"status"`
	Role              lifecycle.Role           `json:"role"`
	RelevantDate      time.Time                `json:"relevantDate"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
}

type OrganizerSnippet struct {
	ID               string  `json:"id"`
	FirstName        *string `json:"firstName"`
	LastName         *string `json:"lastName"`
	ImageURL         *string `json:"imageUrl"`
	OrganizerName    *string `json:"organizerName"`
	OrganizerContact *string `json:"organizerContact"`
	IsVerified       bool    `json:"isVerified"`
}

type ParticipantSnippet struct {
	ID        string    `json:"id"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	ImageURL  *string   `json:"imageUrl"`
	Email     *string   `json:"email,omitempty"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// TournamentDetail is the single-item projection.
type TournamentDetail struct {
	TournamentSummary
	Organizer    OrganizerSnippet     `json:"organizer"`
	Participants []ParticipantSnippet `json:"participants"`
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func newPage[T any](items []T, page, limit, total int) Page[T] {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Page[T]{Items: items, Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// toSummary projects a loaded aggregate. t.Images and t.Participants must be
// populated by the caller.
func toSummary(t *models.Tournament, viewerID string, now, relevantDate time.Time) TournamentSummary {
	images := t.Images
	if images == nil {
		images = []models.Image{}
	}
	return TournamentSummary{
		ID:                t.ID,
		CreatedBy:         t.CreatedBy,
		Title:             t.Title,
		Description:       t.Description,
		Rules:             t.Rules,
		SportType:         t.SportType,
		SkillLevel:        t.SkillLevel,
		Format:            t.Format,
		DateStart:         t.DateStart,
		DateEnd:           t.DateEnd,
		EntryFee:          t.EntryFee,
		PrizePool:         t.PrizePool,
		MaxParticipants:   t.MaxParticipants,
		ParticipantsCount: len(t.Participants),
		Location:          t.Location,
		City:              t.City,
		GeoCoordinates:    t.GeoCoordinates(),
		AgeRestrictions:   models.AgeRestrictions{MinAge: t.MinAge, MaxAge: t.MaxAge},
		Images:            images,
		IsActive:          t.IsActive,
		IsApproved:        t.IsApproved,
		Status:            lifecycle.DeriveStatus(now, t.DateStart, t.DateEnd),
		Role:              lifecycle.DeriveRole(t.CreatedBy, t.ParticipantIDs(), viewerID),
		RelevantDate:      relevantDate,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// toDetail adds the organizer and participant snippets. users holds whatever
// identity records were found; missing ones reduce to the bare id.
func toDetail(t *models.Tournament, users map[string]models.User, viewerID string, now time.Time) TournamentDetail {
	summary := toSummary(t, viewerID, now, t.CreatedAt)

	organizer := OrganizerSnippet{ID: t.CreatedBy}
	if u, ok := users[t.CreatedBy]; ok {
		organizer.FirstName = u.FirstName
		organizer.LastName = u.LastName
		organizer.ImageURL = u.ImageURL
		organizer.OrganizerName = u.OrganizerName
		organizer.OrganizerContact = u.OrganizerContact
		organizer.IsVerified = u.IsVerified
	}

	showEmail := summary.Role == lifecycle.RoleOrganizer
	participants := make([]ParticipantSnippet, 0, len(t.Participants))
	for _, p := range t.Participants {
		snippet := ParticipantSnippet{ID: p.UserID, JoinedAt: p.JoinedAt}
		if u, ok := users[p.UserID]; ok {
			snippet.FirstName = u.FirstName
			snippet.LastName = u.LastName
			snippet.ImageURL = u.ImageURL
			if showEmail {
				email := u.Email
				snippet.Email = &email
			}
		}
		participants = append(participants, snippet)
	}

	return TournamentDetail{
		TournamentSummary: summary,
		Organizer:         organizer,
		Participants:      participants,
	}
}
