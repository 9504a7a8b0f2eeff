// Package httprouter wires the HTTP API: job start, job records, the SSE
// progress stream, health and metrics.
package httprouter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"tokvault/internal/config"
	"tokvault/internal/consts"
	"tokvault/internal/errs"
	"tokvault/internal/infrastructure/delivery/http/middleware"
	"tokvault/internal/infrastructure/delivery/http/request"
	"tokvault/internal/infrastructure/delivery/http/response"
	"tokvault/internal/observability"
	"tokvault/internal/progress"
	"tokvault/internal/service"
	"tokvault/internal/storage"
)

type Router struct {
	*http.ServeMux
	log         *slog.Logger
	cfg         *config.Config
	globalChain []func(http.Handler) http.Handler
	routeChain  []func(http.Handler) http.Handler
	isSubRouter bool
	svc         service.Pipeline
	store       storage.Storer
	bus         *progress.Bus
	metrics     *observability.Metrics
}

func New(
	log *slog.Logger,
	cfg *config.Config,
	svc service.Pipeline,
	store storage.Storer,
	bus *progress.Bus,
	metrics *observability.Metrics,
) *Router {
	r := &Router{
		ServeMux: http.NewServeMux(),
		log:      log,
		cfg:      cfg,
		svc:      svc,
		store:    store,
		bus:      bus,
		metrics:  metrics,
	}

	r.SetGlobalMiddlewares()
	r.SetRoutes()

	return r
}

func (r *Router) Use(mw ...func(http.Handler) http.Handler) {
	if r.isSubRouter {
		r.routeChain = append(r.routeChain, mw...)
	} else {
		r.globalChain = append(r.globalChain, mw...)
	}
}

func (r *Router) HandleFunc(pattern string, h http.HandlerFunc) {
	r.Handle(pattern, h)
}

func (r *Router) Handle(pattern string, h http.Handler) {
	for _, mw := range slices.Backward(r.routeChain) {
		h = mw(h)
	}
	r.ServeMux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var h http.Handler = r.ServeMux

	for _, mw := range slices.Backward(r.globalChain) {
		h = mw(h)
	}

	h.ServeHTTP(w, req)
}

func (r *Router) SetGlobalMiddlewares() {
	r.Use(
		middleware.Recoverer,
		middleware.RequestID,
		middleware.Logger,
		middleware.Metrics(r.metrics),
	)
}

func (r *Router) SetRoutes() {
	r.SetRoutesHealthcheck()
	r.SetRoutesJob()
	r.SetRoutesProgress()
	r.SetRoutesMetrics()
}

func (r *Router) SetRoutesHealthcheck() {
	healthcheckRouter := &Router{
		ServeMux: http.NewServeMux(),
	}
	healthcheckRouter.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Handle("/v1/", http.StripPrefix("/v1", healthcheckRouter))
}

func (ro *Router) SetRoutesJob() {
	jobRouter := &Router{
		ServeMux: http.NewServeMux(),
	}
	jobRouter.HandleFunc("POST /", ro.Start)
	jobRouter.HandleFunc("GET /", ro.GetJobs)
	jobRouter.HandleFunc("GET /{id}", ro.GetJob)

	ro.Handle("/v1/jobs/", http.StripPrefix("/v1/jobs", jobRouter))
}

func (ro *Router) SetRoutesProgress() {
	progressRouter := &Router{
		ServeMux: http.NewServeMux(),
	}
	progressRouter.HandleFunc("GET /{id}", ro.Progress)

	ro.Handle("/v1/progress/", http.StripPrefix("/v1/progress", progressRouter))
}

func (ro *Router) SetRoutesMetrics() {
	ro.Handle("GET /metrics", observability.Handler())
}

// Start validates the request, launches a job and returns its session id
// immediately; progress flows over the session's stream.
func (ro *Router) Start(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "Start")
	ctx := r.Context()

	var in request.Start
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.ErrorContext(ctx, consts.RespInvalidRequestBody, slog.Any("error", err))
		response.BadRequest(w, consts.RespInvalidRequestBody, errs.ErrInvalidRequestBody)

		return
	}

	if err := in.Validate(); err != nil {
		log.ErrorContext(ctx, consts.RespUnprocessableEntity, slog.Any("error", err))
		response.UnprocessableEntity(w, consts.RespUnprocessableEntity, err)

		return
	}

	session, err := ro.svc.Launch(ctx, service.LaunchRequest{
		Username: in.Username,
		URLs:     in.URLs,
		Count:    in.Count,
	})
	if err != nil {
		log.ErrorContext(ctx, consts.RespJobStartFail, slog.Any("error", err))
		response.InternalServerError(w, consts.RespJobStartFail, nil, err)

		return
	}

	log.InfoContext(ctx, consts.RespJobStarted, slog.String("session", session))

	response.OK(w, consts.RespJobStarted, map[string]string{"sessionId": session}, nil)
}

func (ro *Router) GetJob(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "GetJob")

	ctx, cancel := context.WithTimeout(r.Context(), ro.cfg.HTTP.HandlerTimeout)
	defer cancel()

	id := r.PathValue("id")
	if id == "" {
		log.ErrorContext(ctx, consts.RespQueryParamMissing)
		response.BadRequest(w, consts.RespQueryParamMissing, nil)

		return
	}

	job, ok := ro.store.GetJobByID(ctx, id)
	if !ok {
		log.DebugContext(ctx, consts.RespJobNotFound, slog.String("session", id), slog.Any("error", errs.ErrJobNotFound))
		response.NotFound(w, consts.RespJobNotFound)

		return
	}

	response.OK(w, consts.RespJobRetrieved, job, nil)
}

func (ro *Router) GetJobs(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "GetJobs")

	ctx, cancel := context.WithTimeout(r.Context(), ro.cfg.HTTP.HandlerTimeout)
	defer cancel()

	jobs, err := ro.store.GetJobs(ctx)
	if errors.Is(err, errs.ErrNoJobs) {
		log.DebugContext(ctx, consts.RespNoJobs)
		response.NoContent(w)

		return
	}

	if err != nil {
		log.ErrorContext(ctx, consts.RespGetJobsFail, slog.Any("error", err))
		response.InternalServerError(w, consts.RespGetJobsFail, nil, err)

		return
	}

	response.OK(w, consts.RespJobsRetrieved, jobs, nil)
}
