package services

import (
	"testing"
	"time"

	"github.com/Dosada05/tournament-finder/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestApplyPatch(t *testing.T) {
	skill := models.SkillAdvanced
	base := models.Tournament{
		ID:              "t1",
		CreatedBy:       "org",
		Title:           "Old",
		Description:     "desc",
		SportType:       models.SportTennis,
		DateStart:       testNow,
		DateEnd:         testNow.Add(time.Hour),
		MaxParticipants: 8,
		Location:        "Court",
		City:            "Rome",
		IsActive:        true,
	}

	title := "  New  "
	fee := 25.0
	maxP := 16
	coords := models.GeoCoordinates{Latitude: 41.9, Longitude: 12.5}
	got := applyPatch(base, TournamentPatch{
		Title:           &title,
		SkillLevel:      &skill,
		EntryFee:        &fee,
		MaxParticipants: &maxP,
		GeoCoordinates:  &coords,
	})

	want := base
	want.Title = "New"
	want.SkillLevel = &skill
	want.EntryFee = 25
	want.MaxParticipants = 16
	want.Latitude, want.Longitude = 41.9, 12.5

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("applyPatch mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Old", base.Title, "input must not be modified")
}

func TestNormalizeHandles(t *testing.T) {
	got := normalizeHandles([]ImageHandle{{PublicID: " a "}, {PublicID: ""}, {PublicID: "b"}, {PublicID: "a"}})
	assert.Equal(t, []string{"a", "b"}, got)
}
