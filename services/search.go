package services

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Dosada05/tournament-finder/geo"
	"github.com/Dosada05/tournament-finder/models"
	"github.com/Dosada05/tournament-finder/repositories"
)

// SearchInput is a discovery request as received from the transport layer.
// Numbers are already parsed; enum and sort values are still raw.
type SearchInput struct {
	SportTypes   []string
	SkillLevels  []string
	PrizePoolMin *float64
	PrizePoolMax *float64
	EntryFeeMin  *float64
	EntryFeeMax  *float64
	Search       string
	Date         string
	SortBy       string
	SortOrder    string
	Page         int
	Limit        int
	Lat          *float64
	Lng          *float64
	RadiusKm     *float64

	// ClientIP is used for the location fallback when Lat/Lng are absent.
	ClientIP string
	ViewerID string
}

const (
	sortAsc  = "asc"
	sortDesc = "desc"
)

// composed is the validated form of a SearchInput.
type composed struct {
	query    repositories.SearchQuery
	page     int
	limit    int
	center   *geo.Point
	radiusKm float64
}

func (s *tournamentService) Search(ctx context.Context, in SearchInput) (Page[TournamentSummary], error) {
	return withTelemetry(s, ctx, "Search", in.ViewerID, func(ctx context.Context) (Page[TournamentSummary], error) {
		now := s.now()
		c, err := s.compose(in, now)
		if err != nil {
			return Page[TournamentSummary]{}, err
		}

		if c.center == nil && in.ClientIP != "" && s.locator != nil {
			c.center = s.locateBestEffort(ctx, in.ClientIP)
		}

		if c.center != nil {
			ids, err := s.store.Geo().FindWithinRadius(ctx, *c.center, c.radiusKm)
			if err != nil {
				return Page[TournamentSummary]{}, mapRepoError("spatial lookup", err)
			}
			if len(ids) == 0 {
				return newPage([]TournamentSummary{}, c.page, c.limit, 0), nil
			}
			c.query.CandidateIDs = ids
		}

		rows, total, err := s.store.Tournaments().Search(ctx, c.query)
		if err != nil {
			return Page[TournamentSummary]{}, mapRepoError("search tournaments", err)
		}
		if err := loadRelations(ctx, s.store, rows); err != nil {
			return Page[TournamentSummary]{}, internalError("load search results", err)
		}

		items := make([]TournamentSummary, len(rows))
		for i := range rows {
			items[i] = toSummary(&rows[i], in.ViewerID, now, rows[i].CreatedAt)
		}
		return newPage(items, c.page, c.limit, total), nil
	})
}

// locateBestEffort resolves the caller's IP. Failures only cost the spatial
// restriction.
func (s *tournamentService) locateBestEffort(ctx context.Context, ip string) *geo.Point {
	p, err := s.locator.Locate(ctx, ip)
	if err != nil {
		s.logger.WarnContext(ctx, "ip geolocation failed, searching without location",
			slog.String("ip", ip),
			slog.Any("error", err),
		)
		return nil
	}
	if p != nil && p.Validate() != nil {
		return nil
	}
	return p
}

// compose validates in and builds the store query. Nothing here touches the
// store or a collaborator.
func (s *tournamentService) compose(in SearchInput, now time.Time) (composed, error) {
	v := validationErrors{}
	q := repositories.SearchQuery{OnlyPublic: true}

	for _, raw := range in.SportTypes {
		st := models.SportType(strings.ToUpper(strings.TrimSpace(raw)))
		if !st.Valid() {
			v.add("sportType", "unknown value "+raw)
			continue
		}
		q.SportTypes = append(q.SportTypes, st)
	}
	for _, raw := range in.SkillLevels {
		sl := models.SkillLevel(strings.ToUpper(strings.TrimSpace(raw)))
		if !sl.Valid() {
			v.add("skillLevel", "unknown value "+raw)
			continue
		}
		q.SkillLevels = append(q.SkillLevels, sl)
	}

	q.PrizePool = validateRange(v, "prizePool", in.PrizePoolMin, in.PrizePoolMax)
	q.EntryFee = validateRange(v, "entryFee", in.EntryFeeMin, in.EntryFeeMax)
	q.Title = strings.TrimSpace(in.Search)

	if strings.TrimSpace(in.Date) != "" {
		start, end, err := dayWindow(strings.TrimSpace(in.Date), s.cfg.Location)
		if err != nil {
			v.add("date", "must be YYYY-MM-DD or RFC3339")
		} else {
			q.WindowStart, q.WindowEnd = &start, &end
		}
	} else {
		q.StartsAfter = &now
	}

	q.SortBy = repositories.SortByCreatedAt
	if in.SortBy != "" {
		q.SortBy = repositories.SortField(in.SortBy)
		if !q.SortBy.Valid() {
			v.add("sortBy", "must be one of dateStart, prizePool, createdAt")
		}
	}
	switch strings.ToLower(in.SortOrder) {
	case "", sortDesc:
		q.SortDesc = true
	case sortAsc:
		q.SortDesc = false
	default:
		v.add("sortOrder", "must be asc or desc")
	}

	page := in.Page
	if page == 0 {
		page = 1
	} else if page < 0 {
		v.add("page", "must be at least 1")
	}
	limit := in.Limit
	if limit == 0 {
		limit = s.cfg.DefaultPageSize
	} else if limit < 0 {
		v.add("limit", "must be at least 1")
	}
	limit = min(limit, s.cfg.MaxPageSize)
	if limit > 0 && page > math.MaxInt/limit {
		v.add("page", "is too large")
	}

	c := composed{page: page, limit: limit, radiusKm: s.cfg.DefaultRadiusKm}
	switch {
	case in.Lat != nil && in.Lng != nil:
		p := geo.Point{Lat: *in.Lat, Lng: *in.Lng}
		if err := p.Validate(); err != nil {
			v.add("lat", "latitude must be within [-90, 90] and longitude within [-180, 180]")
		} else {
			c.center = &p
		}
	case in.Lat != nil || in.Lng != nil:
		v.add("lat", "lat and lng must be given together")
	}
	if in.RadiusKm != nil {
		if !finite(*in.RadiusKm) || *in.RadiusKm <= 0 {
			v.add("radius", "must be positive")
		} else {
			c.radiusKm = *in.RadiusKm
		}
	}

	if err := v.err(); err != nil {
		return composed{}, err
	}
	q.Limit = limit
	q.Offset = (page - 1) * limit
	c.query = q
	return c, nil
}

func validateRange(v validationErrors, field string, lo, hi *float64) repositories.Range {
	if (lo != nil && !finite(*lo)) || (hi != nil && !finite(*hi)) {
		v.add(field, "must be a finite number")
		return repositories.Range{}
	}
	if lo != nil && *lo < 0 {
		v.add(field, "min must not be negative")
	}
	if hi != nil && *hi < 0 {
		v.add(field, "max must not be negative")
	}
	if lo != nil && hi != nil && *lo > *hi {
		v.add(field, "min must not exceed max")
	}
	return repositories.Range{Min: lo, Max: hi}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// dayWindow returns the first and last millisecond of the calendar day named
// by raw in loc.
func dayWindow(raw string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		ts, rfcErr := time.Parse(time.RFC3339, raw)
		if rfcErr != nil {
			return time.Time{}, time.Time{}, err
		}
		day = ts.In(loc)
	}
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end, nil
}
