package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"parkease/internal/bookings/service"
	"parkease/internal/bookings/validator"
	"parkease/pkg/config"
	apperrors "parkease/pkg/errors"
	httpresponse "parkease/pkg/http"
	"parkease/pkg/logger"
	"parkease/pkg/middleware"
	"parkease/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodPost, "/api/v1/bookings", h.Create)
	router.HandlerFunc(http.MethodGet, "/api/v1/bookings", h.List)
	router.HandlerFunc(http.MethodGet, "/api/v1/bookings/:id", h.Get)
	router.HandlerFunc(http.MethodPost, "/api/v1/bookings/:id/confirm", h.ConfirmPayment)
	router.HandlerFunc(http.MethodPost, "/api/v1/bookings/:id/cancel", h.Cancel)
	router.HandlerFunc(http.MethodPost, "/api/v1/bookings/:id/extend", h.Extend)
	router.HandlerFunc(http.MethodPost, "/api/v1/gate/check-in", h.CheckIn)
	router.HandlerFunc(http.MethodPost, "/api/v1/gate/check-out", h.CheckOut)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	var req validator.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.WriteError(w, apperrors.InvalidInput("invalid request body"))
		return
	}

	booking, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteCreated(w, booking)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	rawLimit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rawOffset, _ := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	limit := config.NormalizePaginationLimit(rawLimit)
	offset := config.NormalizeOffset(rawOffset)

	bookings, total, err := h.service.ListForUser(r.Context(), actor, limit, offset)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WritePaginated(w, bookings, total, limit, offset)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withActorAndID(w, r, func(actor model.Actor, id string) (*model.Booking, error) {
		return h.service.Get(r.Context(), actor, id)
	})
}

func (h *BookingHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	h.withActorAndID(w, r, func(actor model.Actor, id string) (*model.Booking, error) {
		return h.service.ConfirmPayment(r.Context(), actor, id)
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.withActorAndID(w, r, func(actor model.Actor, id string) (*model.Booking, error) {
		return h.service.Cancel(r.Context(), actor, id)
	})
}

func (h *BookingHandler) Extend(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	var req validator.ExtendBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.WriteError(w, apperrors.InvalidInput("invalid request body"))
		return
	}
	params := httprouter.ParamsFromContext(r.Context())

	booking, err := h.service.Extend(r.Context(), actor, params.ByName("id"), &req)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteSuccess(w, booking)
}

func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.gate(w, r, h.service.CheckIn)
}

func (h *BookingHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.gate(w, r, h.service.CheckOut)
}

func (h *BookingHandler) gate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor model.Actor, req *validator.GateRequest) (*model.Booking, error)) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	var req validator.GateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.WriteError(w, apperrors.InvalidInput("invalid request body"))
		return
	}

	booking, err := op(r.Context(), actor, &req)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteSuccess(w, booking)
}

func (h *BookingHandler) withActorAndID(w http.ResponseWriter, r *http.Request, op func(actor model.Actor, id string) (*model.Booking, error)) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	params := httprouter.ParamsFromContext(r.Context())

	booking, err := op(actor, params.ByName("id"))
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteSuccess(w, booking)
}
