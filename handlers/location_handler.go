package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-finder/middleware"
	"github.com/Dosada05/tournament-finder/services"
)

type LocationHandler struct {
	locationService services.LocationService
}

func NewLocationHandler(ls services.LocationService) *LocationHandler {
	return &LocationHandler{locationService: ls}
}

// Locate godoc
// @Summary Caller position derived from the request IP
// @Tags location
// @Produce json
// @Success 200 {object} geo.Point
// @Failure 404 {object} errorBody "LOCATION_NOT_FOUND"
// @Failure 502 {object} errorBody
// @Router /location [get]
func (h *LocationHandler) Locate(w http.ResponseWriter, r *http.Request) {
	point, err := h.locationService.Locate(r.Context(), middleware.ClientIP(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, point)
}
