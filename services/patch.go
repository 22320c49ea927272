package services

import (
	"strings"
	"time"

	"github.com/Dosada05/tournament-finder/geo"
	"github.com/Dosada05/tournament-finder/models"
)

// CreateTournamentInput is the full scalar set of a new tournament plus the
// upload handles of its images.
type CreateTournamentInput struct {
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	Rules           *string                  `json:"rules"`
	SportType       models.SportType         `json:"sportType"`
	SkillLevel      *models.SkillLevel       `json:"skillLevel"`
	Format          *models.TournamentFormat `json:"format"`
	DateStart       time.Time                `json:"dateStart"`
	DateEnd         time.Time                `json:"dateEnd"`
	EntryFee        float64                  `json:"entryFee"`
	PrizePool       float64                  `json:"prizePool"`
	MaxParticipants int                      `json:"maxParticipants"`
	Location        string                   `json:"location"`
	City            string                   `json:"city"`
	GeoCoordinates  models.GeoCoordinates    `json:"geoCoordinates"`
	AgeRestrictions models.AgeRestrictions   `json:"ageRestrictions"`
	Images          []ImageHandle            `json:"images"`
}

// ImageHandle references an uploaded file by the id returned from the upload
// endpoint.
type ImageHandle struct {
	PublicID string `json:"publicId"`
}

// TournamentPatch lists every organizer-mutable field. A nil pointer keeps
// the stored value. Images is never partial: the set it carries replaces the
// stored one, and a nil slice clears it.
type TournamentPatch struct {
	Title           *string                  `json:"title"`
	Description     *string                  `json:"description"`
	Rules           *string                  `json:"rules"`
	SportType       *models.SportType        `json:"sportType"`
	SkillLevel      *models.SkillLevel       `json:"skillLevel"`
	Format          *models.TournamentFormat `json:"format"`
	DateStart       *time.Time               `json:"dateStart"`
	DateEnd         *time.Time               `json:"dateEnd"`
	EntryFee        *float64                 `json:"entryFee"`
	PrizePool       *float64                 `json:"prizePool"`
	MaxParticipants *int                     `json:"maxParticipants"`
	Location        *string                  `json:"location"`
	City            *string                  `json:"city"`
	GeoCoordinates  *models.GeoCoordinates   `json:"geoCoordinates"`
	MinAge          *int                     `json:"minAge"`
	MaxAge          *int                     `json:"maxAge"`
	Images          []ImageHandle            `json:"images"`
}

func (in CreateTournamentInput) toModel() models.Tournament {
	return models.Tournament{
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Rules:           in.Rules,
		SportType:       in.SportType,
		SkillLevel:      in.SkillLevel,
		Format:          in.Format,
		DateStart:       in.DateStart,
		DateEnd:         in.DateEnd,
		EntryFee:        in.EntryFee,
		PrizePool:       in.PrizePool,
		MaxParticipants: in.MaxParticipants,
		Location:        strings.TrimSpace(in.Location),
		City:            strings.TrimSpace(in.City),
		Latitude:        in.GeoCoordinates.Latitude,
		Longitude:       in.GeoCoordinates.Longitude,
		MinAge:          in.AgeRestrictions.MinAge,
		MaxAge:          in.AgeRestrictions.MaxAge,
	}
}

// applyPatch merges p into a copy of t field by field.
func applyPatch(t models.Tournament, p TournamentPatch) models.Tournament {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Rules != nil {
		t.Rules = p.Rules
	}
	if p.SportType != nil {
		t.SportType = *p.SportType
	}
	if p.SkillLevel != nil {
		t.SkillLevel = p.SkillLevel
	}
	if p.Format != nil {
		t.Format = p.Format
	}
	if p.DateStart != nil {
		t.DateStart = *p.DateStart
	}
	if p.DateEnd != nil {
		t.DateEnd = *p.DateEnd
	}
	if p.EntryFee != nil {
		t.EntryFee = *p.EntryFee
	}
	if p.PrizePool != nil {
		t.PrizePool = *p.PrizePool
	}
	if p.MaxParticipants != nil {
		t.MaxParticipants = *p.MaxParticipants
	}
	if p.Location != nil {
		t.Location = strings.TrimSpace(*p.Location)
	}
	if p.City != nil {
		t.City = strings.TrimSpace(*p.City)
	}
	if p.GeoCoordinates != nil {
		t.Latitude = p.GeoCoordinates.Latitude
		t.Longitude = p.GeoCoordinates.Longitude
	}
	if p.MinAge != nil {
		t.MinAge = p.MinAge
	}
	if p.MaxAge != nil {
		t.MaxAge = p.MaxAge
	}
	return t
}

func validateTournament(t *models.Tournament) error {
	v := validationErrors{}
	if t.Title == "" {
		v.add("title", "is required")
	} else if len(t.Title) > 200 {
		v.add("title", "must be at most 200 characters")
	}
	if t.Description == "" {
		v.add("description", "is required")
	}
	if !t.SportType.Valid() {
		v.add("sportType", "is not a known sport type")
	}
	if t.SkillLevel != nil && !t.SkillLevel.Valid() {
		v.add("skillLevel", "is not a known skill level")
	}
	if t.Format != nil && !t.Format.Valid() {
		v.add("format", "is not a known format")
	}
	if t.DateStart.IsZero() {
		v.add("dateStart", "is required")
	}
	if t.DateEnd.IsZero() {
		v.add("dateEnd", "is required")
	}
	if !t.DateStart.IsZero() && !t.DateEnd.IsZero() && !t.DateStart.Before(t.DateEnd) {
		v.add("dateEnd", "must be after dateStart")
	}
	if t.EntryFee < 0 {
		v.add("entryFee", "must not be negative")
	}
	if t.PrizePool < 0 {
		v.add("prizePool", "must not be negative")
	}
	if t.MaxParticipants < 1 {
		v.add("maxParticipants", "must be at least 1")
	}
	if t.Location == "" {
		v.add("location", "is required")
	}
	if t.City == "" {
		v.add("city", "is required")
	}
	if err := (geo.Point{Lat: t.Latitude, Lng: t.Longitude}).Validate(); err != nil {
		v.add("geoCoordinates", "latitude must be within [-90, 90] and longitude within [-180, 180]")
	}
	if t.MinAge != nil && *t.MinAge < 0 {
		v.add("ageRestrictions.minAge", "must not be negative")
	}
	if t.MaxAge != nil && *t.MaxAge < 0 {
		v.add("ageRestrictions.maxAge", "must not be negative")
	}
	if t.MinAge != nil && t.MaxAge != nil && *t.MinAge > *t.MaxAge {
		v.add("ageRestrictions", "minAge must not exceed maxAge")
	}
	return v.err()
}

func normalizeHandles(handles []ImageHandle) []string {
	seen := make(map[string]struct{}, len(handles))
	out := make([]string, 0, len(handles))
	for _, handle := range handles {
		h := strings.TrimSpace(handle.PublicID)
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
