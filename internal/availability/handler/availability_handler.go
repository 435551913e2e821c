package handler

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"parkease/internal/availability/service"
	"parkease/internal/timepolicy"
	apperrors "parkease/pkg/errors"
	httpresponse "parkease/pkg/http"
	"parkease/pkg/logger"
	"parkease/pkg/middleware"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	policy  timepolicy.Policy
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, policy timepolicy.Policy, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		policy:  policy,
		log:     log,
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/api/v1/areas/:id/slots", h.Slots)
}

// Slots renders the slot map for a window. Without explicit start/end
// query parameters the view covers the default window from now.
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	params := httprouter.ParamsFromContext(r.Context())

	view, err := h.service.Resolve(r.Context(), params.ByName("id"), h.parseWindow(r), actor.UserID)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteSuccess(w, view)
}

// parseWindow reads the start/end query parameters. Missing or
// unparsable values fall back to the default window from now, so a bad
// query still renders a useful slot map instead of an error.
func (h *AvailabilityHandler) parseWindow(r *http.Request) service.Window {
	query := r.URL.Query()

	start, startErr := time.Parse(time.RFC3339, query.Get("start"))
	end, endErr := time.Parse(time.RFC3339, query.Get("end"))
	if startErr != nil || endErr != nil {
		defaultStart, defaultEnd := h.policy.DefaultWindow(time.Now().UTC())
		return service.Window{Start: defaultStart, End: defaultEnd}
	}
	return service.Window{Start: start.UTC(), End: end.UTC()}
}
