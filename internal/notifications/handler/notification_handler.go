package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"parkease/internal/notifications/service"
	apperrors "parkease/pkg/errors"
	httpresponse "parkease/pkg/http"
	"parkease/pkg/logger"
	"parkease/pkg/middleware"
)

type NotificationHandler struct {
	service service.NotificationService
	log     *logger.Logger
}

func NewNotificationHandler(service service.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		log:     log,
	}
}

func (h *NotificationHandler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/api/v1/notifications", h.List)
	router.HandlerFunc(http.MethodPost, "/api/v1/notifications/read", h.MarkAllRead)
	router.HandlerFunc(http.MethodPost, "/api/v1/preferences", h.Subscribe)
	router.HandlerFunc(http.MethodDelete, "/api/v1/preferences", h.Unsubscribe)
}

type preferenceRequest struct {
	AreaID string `json:"area_id"`
	Level  int    `json:"level"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	notifications, err := h.service.List(r.Context(), actor.UserID)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteSuccess(w, notifications)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	if err := h.service.MarkAllRead(r.Context(), actor.UserID); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteNoContent(w)
}

func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.preference(w, r, h.service.Subscribe)
}

func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	h.preference(w, r, h.service.Unsubscribe)
}

func (h *NotificationHandler) preference(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, areaID string, level int) error) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	var req preferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.WriteError(w, apperrors.InvalidInput("invalid request body"))
		return
	}
	if req.AreaID == "" {
		httpresponse.WriteError(w, apperrors.InvalidInput("area_id is required"))
		return
	}

	if err := op(r.Context(), actor.UserID, req.AreaID, req.Level); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteNoContent(w)
}
