package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"parkease/internal/areas/service"
	apperrors "parkease/pkg/errors"
	httpresponse "parkease/pkg/http"
	"parkease/pkg/logger"
	"parkease/pkg/middleware"
	"parkease/pkg/model"
)

type AreaHandler struct {
	service service.AreaService
	log     *logger.Logger
}

func NewAreaHandler(service service.AreaService, log *logger.Logger) *AreaHandler {
	return &AreaHandler{
		service: service,
		log:     log,
	}
}

func (h *AreaHandler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodPost, "/api/v1/areas", h.Create)
	router.HandlerFunc(http.MethodGet, "/api/v1/areas", h.List)
	router.HandlerFunc(http.MethodGet, "/api/v1/areas/:id", h.Get)
}

func (h *AreaHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	if actor.Role != model.RoleAdmin {
		httpresponse.WriteError(w, apperrors.Forbidden("only admins can create parking areas"))
		return
	}

	var area model.ParkingArea
	if err := json.NewDecoder(r.Body).Decode(&area); err != nil {
		httpresponse.WriteError(w, apperrors.InvalidInput("invalid request body"))
		return
	}

	created, err := h.service.Create(r.Context(), &area)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteCreated(w, created)
}

func (h *AreaHandler) List(w http.ResponseWriter, r *http.Request) {
	areas, err := h.service.List(r.Context())
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteSuccess(w, areas)
}

func (h *AreaHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	area, err := h.service.Get(r.Context(), params.ByName("id"))
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteSuccess(w, area)
}
