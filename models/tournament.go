package models

import "time"

// SportType mirrors the sport_type enum in the database.
type SportType string

const (
	SportFootball    SportType = "FOOTBALL"
	SportBasketball  SportType = "BASKETBALL"
	SportVolleyball  SportType = "VOLLEYBALL"
	SportTennis      SportType = "TENNIS"
	SportTableTennis SportType = "TABLE_TENNIS"
	SportBadminton   SportType = "BADMINTON"
	SportChess       SportType = "CHESS"
	SportEsports     SportType = "ESPORTS"
	SportRunning     SportType = "RUNNING"
	SportCycling     SportType = "CYCLING"
	SportSwimming    SportType = "SWIMMING"
	SportOther       SportType = "OTHER"
)

var sportTypes = map[SportType]struct{}{
	SportFootball: {}, SportBasketball: {}, SportVolleyball: {}, SportTennis: {},
	SportTableTennis: {}, SportBadminton: {}, SportChess: {}, SportEsports: {},
	SportRunning: {}, SportCycling: {}, SportSwimming: {}, SportOther: {},
}

func (s SportType) Valid() bool {
	_, ok := sportTypes[s]
	return ok
}

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "BEGINNER"
	SkillIntermediate SkillLevel = "INTERMEDIATE"
	SkillAdvanced     SkillLevel = "ADVANCED"
	SkillProfessional SkillLevel = "PROFESSIONAL"
)

func (s SkillLevel) Valid() bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillProfessional:
		return true
	}
	return false
}

type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "SINGLE_ELIMINATION"
	FormatDoubleElimination TournamentFormat = "DOUBLE_ELIMINATION"
	FormatRoundRobin        TournamentFormat = "ROUND_ROBIN"
	FormatSwiss             TournamentFormat = "SWISS"
	FormatLeague            TournamentFormat = "LEAGUE"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatSingleElimination, FormatDoubleElimination, FormatRoundRobin, FormatSwiss, FormatLeague:
		return true
	}
	return false
}

// GeoCoordinates is the precise venue position used for display and for the
// spatial index.
type GeoCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type AgeRestrictions struct {
	MinAge *int `json:"minAge"`
	MaxAge *int `json:"maxAge"`
}

// Tournament is the persisted row of the tournaments table. Images and
// Participants are filled by the caller when the aggregate is loaded.
type Tournament struct {
	ID              string            `json:"id" db:"id"`
	CreatedBy       string            `json:"createdBy" db:"created_by"`
	Title           string            `json:"title" db:"title"`
	Description     string            `json:"description" db:"description"`
	Rules           *string           `json:"rules" db:"rules"`
	SportType       SportType         `json:"sportType" db:"sport_type"`
	SkillLevel      *SkillLevel       `json:"skillLevel" db:"skill_level"`
	Format          *TournamentFormat `json:"format" db:"format"`
	DateStart       time.Time         `json:"dateStart" db:"date_start"`
	DateEnd         time.Time         `json:"dateEnd" db:"date_end"`
	EntryFee        float64           `json:"entryFee" db:"entry_fee"`
	PrizePool       float64           `json:"prizePool" db:"prize_pool"`
	MaxParticipants int               `json:"maxParticipants" db:"max_participants"`
	Location        string            `json:"location" db:"location"`
	City            string            `json:"city" db:"city"`
	Latitude        float64           `json:"-" db:"latitude"`
	Longitude       float64           `json:"-" db:"longitude"`
	MinAge          *int              `json:"-" db:"min_age"`
	MaxAge          *int              `json:"-" db:"max_age"`
	IsActive        bool              `json:"isActive" db:"is_active"`
	IsApproved      bool              `json:"isApproved" db:"is_approved"`
	CreatedAt       time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time         `json:"updatedAt" db:"updated_at"`

	Images       []Image         `json:"images,omitempty" db:"-"`
	Participants []Participation `json:"-" db:"-"`
}

func (t *Tournament) GeoCoordinates() GeoCoordinates {
	return GeoCoordinates{Latitude: t.Latitude, Longitude: t.Longitude}
}

// ParticipantIDs returns the user ids of the loaded participation rows.
func (t *Tournament) ParticipantIDs() []string {
	ids := make([]string, 0, len(t.Participants))
	for _, p := range t.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// Image is a resolved media record attached to a tournament.
type Image struct {
	TournamentID string    `json:"-" db:"tournament_id"`
	PublicID     string    `json:"publicId" db:"public_id"`
	URL          string    `json:"url" db:"url"`
	SecureURL    string    `json:"secureUrl" db:"secure_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
