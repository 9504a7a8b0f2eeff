package httprouter

import (
	"fmt"
	"log/slog"
	"net/http"

	"tokvault/internal/consts"
	"tokvault/internal/infrastructure/delivery/http/response"
)

// Progress streams a session's events as Server-Sent Events. The connection
// closes when the bus closes the subscription: terminal sentinel, idle
// timeout, or client disconnect. No events are replayed; a late subscriber
// starts from whatever is published after it attached.
func (ro *Router) Progress(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "Progress")
	ctx := r.Context()

	id := r.PathValue("id")
	if id == "" {
		log.ErrorContext(ctx, consts.RespQueryParamMissing)
		response.BadRequest(w, consts.RespQueryParamMissing, nil)

		return
	}

	if _, ok := ro.store.GetJobByID(ctx, id); !ok {
		log.DebugContext(ctx, consts.RespJobNotFound, slog.String("session", id))
		response.NotFound(w, consts.RespJobNotFound)

		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.ErrorContext(ctx, consts.RespStreamUnsupported)
		response.InternalServerError(w, consts.RespStreamUnsupported, nil, nil)

		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range ro.bus.Subscribe(ctx, id) {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", ev.Message); err != nil {
			log.DebugContext(ctx, "write event failed", slog.Any("error", err))

			return
		}

		flusher.Flush()
	}

	log.DebugContext(ctx, "progress stream closed", slog.String("session", id))
}
