package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-finder/services"
	svix "github.com/svix/svix-webhooks/go"
)

const maxWebhookBytes = 1 << 20

type WebhookHandler struct {
	userService services.UserService
	verifier    *svix.Webhook
	logger      *slog.Logger
}

// NewWebhookHandler verifies deliveries with the identity provider's signing
// secret (whsec_...).
func NewWebhookHandler(us services.UserService, signingSecret string, logger *slog.Logger) (*WebhookHandler, error) {
	verifier, err := svix.NewWebhook(signingSecret)
	if err != nil {
		return nil, err
	}
	return &WebhookHandler{userService: us, verifier: verifier, logger: logger}, nil
}

// Users godoc
// @Summary Identity provider user events
// @Tags webhooks
// @Description Signed user.created, user.updated and user.deleted deliveries mirrored into the users table.
// @Accept json
// @Produce json
// @Param svix-id header string true "Message id"
// @Param svix-timestamp header string true "Unix timestamp"
// @Param svix-signature header string true "Signatures"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} errorBody
// @Router /webhooks/users [post]
func (h *WebhookHandler) Users(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.verifier.Verify(payload, r.Header); err != nil {
		h.logger.WarnContext(r.Context(), "webhook signature rejected",
			slog.String("svix_id", r.Header.Get("svix-id")),
			slog.Any("error", err),
		)
		mapServiceErrorToHTTP(w, r, services.ErrInvalidWebhook)
		return
	}

	var evt services.UserEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		mapServiceErrorToHTTP(w, r, &services.Error{
			Kind:    services.KindValidation,
			Code:    services.CodeInvalidWebhookPayload,
			Message: "payload is not a user event",
			Err:     err,
		})
		return
	}

	if err := h.userService.ApplyEvent(r.Context(), evt); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]bool{"success": true})
}
