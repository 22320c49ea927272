package handlers

import (
	"net/http"
	"strings"

	"github.com/Dosada05/tournament-finder/middleware"
	"github.com/Dosada05/tournament-finder/services"
)

type ParticipantHandler struct {
	tournamentService services.TournamentService
}

func NewParticipantHandler(ts services.TournamentService) *ParticipantHandler {
	return &ParticipantHandler{
		tournamentService: ts,
	}
}

// Register godoc
// @Summary Join a tournament
// @Tags participants
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {object} services.TournamentDetail
// @Failure 401 {object} errorBody
// @Failure 404 {object} errorBody "Tournament missing or closed for registration"
// @Failure 409 {object} errorBody "Already registered or full"
// @Security BearerAuth
// @Router /tournaments/{id}/register [post]
func (h *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrNoTokenProvided)
		return
	}

	tournament, err := h.tournamentService.Register(r.Context(), tournamentID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, tournament)
}

// Leave godoc
// @Summary Leave a tournament
// @Tags participants
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {object} services.TournamentDetail
// @Failure 404 {object} errorBody
// @Failure 409 {object} errorBody "Not registered"
// @Security BearerAuth
// @Router /tournaments/{id}/leave [delete]
func (h *ParticipantHandler) Leave(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrNoTokenProvided)
		return
	}

	tournament, err := h.tournamentService.Leave(r.Context(), tournamentID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, tournament)
}

// RemoveParticipant godoc
// @Summary Remove a participant (organizer only)
// @Tags participants
// @Produce json
// @Param id path string true "Tournament ID"
// @Param participantId query string true "User ID of the participant"
// @Success 200 {object} services.TournamentDetail
// @Failure 400 {object} errorBody
// @Failure 403 {object} errorBody
// @Failure 409 {object} errorBody "Not registered"
// @Security BearerAuth
// @Router /tournaments/{id}/user [patch]
func (h *ParticipantHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrNoTokenProvided)
		return
	}

	participantID := strings.TrimSpace(r.URL.Query().Get("participantId"))
	tournament, err := h.tournamentService.RemoveParticipant(r.Context(), tournamentID, currentUserID, participantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, tournament)
}
