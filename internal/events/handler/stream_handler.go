package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"parkease/internal/events"
	apperrors "parkease/pkg/errors"
	httpresponse "parkease/pkg/http"
	"parkease/pkg/logger"
	"parkease/pkg/middleware"
)

const heartbeatInterval = 30 * time.Second

// StreamHandler serves the live event feed over server-sent events. Every
// connection follows the caller's own notification topic; passing area_id
// adds that area's availability topic.
type StreamHandler struct {
	hub *events.Hub
	log *logger.Logger
}

func NewStreamHandler(hub *events.Hub, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		hub: hub,
		log: log,
	}
}

func (h *StreamHandler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/api/v1/stream", h.Stream)
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httpresponse.WriteError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpresponse.WriteError(w, apperrors.Internal("streaming is not supported", nil))
		return
	}

	userEvents, cancelUser := h.hub.Subscribe(events.UserTopic(actor.UserID))
	defer cancelUser()

	areaEvents := make(<-chan events.Event)
	if areaID := r.URL.Query().Get("area_id"); areaID != "" {
		var cancelArea func()
		areaEvents, cancelArea = h.hub.Subscribe(events.AreaTopic(areaID))
		defer cancelArea()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-userEvents:
			writeEvent(w, event)
			flusher.Flush()
		case event := <-areaEvents:
			writeEvent(w, event)
			flusher.Flush()
		case <-heartbeat.C:
			// Comment line keeps intermediaries from closing idle streams.
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event events.Event) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Payload)
}
