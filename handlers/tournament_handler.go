package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-finder/middleware"
	"github.com/Dosada05/tournament-finder/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
	}
}

// ListHandler godoc
// @Summary Discover tournaments
// @Tags tournaments
// @Description Public, active tournaments filtered, sorted and paged. Without lat/lng the caller IP is used as the search center when it can be placed.
// @Produce json
// @Param sportType query []string false "Sport types" collectionFormat(multi)
// @Param skillLevel query []string false "Skill levels" collectionFormat(multi)
// @Param prizePool[min] query number false "Minimum prize pool"
// @Param prizePool[max] query number false "Maximum prize pool"
// @Param entryFee[min] query number false "Minimum entry fee"
// @Param entryFee[max] query number false "Maximum entry fee"
// @Param search query string false "Case-insensitive title search"
// @Param date query string false "Calendar day (YYYY-MM-DD or RFC3339)"
// @Param sortBy query string false "dateStart | prizePool | createdAt"
// @Param sortOrder query string false "asc | desc"
// @Param page query int false "Page, 1-based"
// @Param limit query int false "Page size, max 100"
// @Param lat query number false "Center latitude"
// @Param lng query number false "Center longitude"
// @Param radius query number false "Radius in km"
// @Success 200 {object} services.Page[services.TournamentSummary]
// @Failure 400 {object} errorBody
// @Router /tournaments [get]
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var p queryParser

	input := services.SearchInput{
		SportTypes:   p.listParam(query, "sportType", "sportType[]"),
		SkillLevels:  p.listParam(query, "skillLevel", "skillLevel[]"),
		PrizePoolMin: p.floatParam(query, "prizePool[min]"),
		PrizePoolMax: p.floatParam(query, "prizePool[max]"),
		EntryFeeMin:  p.floatParam(query, "entryFee[min]"),
		EntryFeeMax:  p.floatParam(query, "entryFee[max]"),
		Search:       query.Get("search"),
		Date:         query.Get("date"),
		SortBy:       query.Get("sortBy"),
		SortOrder:    query.Get("sortOrder"),
		Page:         p.intParam(query, "page"),
		Limit:        p.intParam(query, "limit"),
		Lat:          p.floatParam(query, "lat"),
		Lng:          p.floatParam(query, "lng"),
		RadiusKm:     p.floatParam(query, "radius"),
		ClientIP:     middleware.ClientIP(r),
		ViewerID:     middleware.ViewerID(r.Context()),
	}
	if p.fields != nil {
		failedValidationResponse(w, r, p.fields)
		return
	}

	page, err := h.tournamentService.Search(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, page)
}

// MyHandler godoc
// @Summary Tournaments the caller organizes or joined
// @Tags tournaments
// @Produce json
// @Param finished query bool false "Return finished tournaments instead of active ones"
// @Success 200 {array} services.TournamentSummary
// @Failure 401 {object} errorBody
// @Security BearerAuth
// @Router /tournaments/my [get]
func (h *TournamentHandler) MyHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrNoTokenProvided)
		return
	}

	var p queryParser
	finished := p.boolParam(r.URL.Query(), "finished", false)
	if p.fields != nil {
		failedValidationResponse(w, r, p.fields)
		return
	}

	tournaments, err := h.tournamentService.MyTournaments(r.Context(), currentUserID, finished)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, tournaments)
}

// GetByIDHandler godoc
// @Summary Tournament detail
// @Tags tournaments
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {object} services.TournamentDetail
// @Failure 404 {object} errorBody
// @Router /tournaments/{id} [get]
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetByID(r.Context(), id, middleware.ViewerID(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, tournament)
}

// CreateHandler godoc
// @Summary Create a tournament
// @Tags tournaments
// @Accept json
// @Produce json
// @Param body body services.CreateTournamentInput true "Tournament"
// @Success 201 {object} services.TournamentDetail
// @Failure 400 {object} errorBody
// @Failure 401 {object} errorBody
// @Failure 502 {object} errorBody
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrNoTokenProvided)
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, tournament)
}

// UpdateHandler godoc
// @Summary Update a tournament
// @Tags tournaments
// @Description Omitted fields keep their value; images always replace the stored set.
// @Accept json
// @Produce json
// @Param id path string true "Tournament ID"
// @Param body body services.TournamentPatch true "Changes"
// @Success 200 {object} services.TournamentDetail
// @Failure 400 {object} errorBody
// @Failure 403 {object} errorBody
// @Failure 404 {object} errorBody
// @Security BearerAuth
// @Router /tournaments/{id} [put]
func (h *TournamentHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrNoTokenProvided)
		return
	}

	var patch services.TournamentPatch
	if err := readJSON(w, r, &patch); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Update(r.Context(), id, currentUserID, patch)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, tournament)
}

// UpdateStatusHandler godoc
// @Summary Activate or deactivate a tournament
// @Tags tournaments
// @Produce json
// @Param id path string true "Tournament ID"
// @Param isActive query bool true "New active flag"
// @Success 200 {object} services.TournamentDetail
// @Failure 400 {object} errorBody
// @Failure 403 {object} errorBody
// @Failure 404 {object} errorBody
// @Security BearerAuth
// @Router /tournaments/{id}/status [patch]
func (h *TournamentHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrNoTokenProvided)
		return
	}

	var p queryParser
	isActive := p.boolParam(r.URL.Query(), "isActive", true)
	if p.fields != nil {
		failedValidationResponse(w, r, p.fields)
		return
	}

	tournament, err := h.tournamentService.UpdateStatus(r.Context(), id, currentUserID, isActive)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, tournament)
}

// DeleteHandler godoc
// @Summary Delete a tournament
// @Tags tournaments
// @Param id path string true "Tournament ID"
// @Success 204
// @Failure 403 {object} errorBody
// @Failure 404 {object} errorBody
// @Security BearerAuth
// @Router /tournaments/{id} [delete]
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrNoTokenProvided)
		return
	}

	if err := h.tournamentService.Delete(r.Context(), id, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
