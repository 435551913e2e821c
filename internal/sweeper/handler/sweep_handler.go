package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"parkease/internal/sweeper"
	apperrors "parkease/pkg/errors"
	httpresponse "parkease/pkg/http"
	"parkease/pkg/logger"
	"parkease/pkg/middleware"
	"parkease/pkg/model"
)

type SweepHandler struct {
	sweeper *sweeper.Sweeper
	log     *logger.Logger
}

func NewSweepHandler(sweeper *sweeper.Sweeper, log *logger.Logger) *SweepHandler {
	return &SweepHandler{
		sweeper: sweeper,
		log:     log,
	}
}

func (h *SweepHandler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodPost, "/api/v1/sweep", h.Sweep)
}

// Sweep triggers a reconciliation pass on demand, without waiting for
// the next scheduled run. Admins sweep everywhere or a chosen area;
// managers are scoped to the area they manage.
func (h *SweepHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	if !actor.Staff() {
		httpresponse.WriteError(w, apperrors.Forbidden("only staff can trigger a sweep"))
		return
	}

	areaID := r.URL.Query().Get("area_id")
	if actor.Role == model.RoleManager {
		if areaID == "" {
			areaID = actor.ManagedAreaID
		}
		if !actor.ManagesArea(areaID) {
			httpresponse.WriteError(w, apperrors.Forbidden("you do not manage this parking area"))
			return
		}
	}

	h.log.Info("on-demand sweep requested", "user_id", actor.UserID, "area_id", areaID)
	httpresponse.WriteSuccess(w, h.sweeper.Sweep(r.Context(), areaID))
}
