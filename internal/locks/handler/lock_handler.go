package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"parkease/internal/locks/service"
	apperrors "parkease/pkg/errors"
	httpresponse "parkease/pkg/http"
	"parkease/pkg/logger"
	"parkease/pkg/middleware"
)

type LockHandler struct {
	service service.LockService
	log     *logger.Logger
}

func NewLockHandler(service service.LockService, log *logger.Logger) *LockHandler {
	return &LockHandler{
		service: service,
		log:     log,
	}
}

func (h *LockHandler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodPost, "/api/v1/areas/:id/slots/:slot/lock", h.Acquire)
	router.HandlerFunc(http.MethodDelete, "/api/v1/areas/:id/slots/:slot/lock", h.Release)
	router.HandlerFunc(http.MethodDelete, "/api/v1/areas/:id/locks", h.ReleaseAll)
}

func (h *LockHandler) Acquire(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	params := httprouter.ParamsFromContext(r.Context())
	areaID := params.ByName("id")
	slotNumber := params.ByName("slot")

	lock, err := h.service.Acquire(r.Context(), areaID, slotNumber, actor.UserID)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteSuccess(w, map[string]any{
		"slot_number": lock.SlotNumber,
		"expires_at":  lock.ExpiresAt,
	})
}

func (h *LockHandler) Release(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	params := httprouter.ParamsFromContext(r.Context())
	if err := h.service.Release(r.Context(), params.ByName("id"), params.ByName("slot"), actor.UserID); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteNoContent(w)
}

func (h *LockHandler) ReleaseAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	params := httprouter.ParamsFromContext(r.Context())
	if err := h.service.ReleaseAllFor(r.Context(), params.ByName("id"), actor.UserID); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteNoContent(w)
}
