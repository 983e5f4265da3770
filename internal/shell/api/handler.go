// Package api provides HTTP handlers for the Launchpad API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/artpar/launchpad/internal/core/domain"
	"github.com/artpar/launchpad/internal/core/monitoring"
	"github.com/artpar/launchpad/internal/shell/api/openapi"
	"github.com/artpar/launchpad/internal/shell/docker"
	"github.com/artpar/launchpad/internal/shell/jobs"
	"github.com/artpar/launchpad/internal/shell/launcher"
	"github.com/artpar/launchpad/internal/shell/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// =============================================================================
// Dependencies
// =============================================================================

// Launcher accepts launch requests and reports runtime status.
type Launcher interface {
	Launch(ctx context.Context, serviceName string, inputs map[string]string) (string, error)
	Status(ctx context.Context) launcher.Status
}

// Deployments performs synchronous operations on live containers.
type Deployments interface {
	List(ctx context.Context) ([]domain.DeploymentView, error)
	Metrics(ctx context.Context, id string) (domain.MetricSample, error)
	Stop(ctx context.Context, id string) (domain.ActionResult, error)
	Start(ctx context.Context, id string) (domain.ActionResult, error)
	Delete(ctx context.Context, id string) (domain.ActionResult, error)
}

// Jobs hands out job results.
type Jobs interface {
	Poll(id string) (domain.JobView, error)
}

// Pinger checks that the container runtime answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the handler dependencies.
type Config struct {
	Launcher    Launcher
	Deployments Deployments
	Jobs        Jobs
	Runtime     Pinger
	CORSOrigins []string
	Version     string
	Logger      *slog.Logger
}

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	launcher    Launcher
	deployments Deployments
	jobs        Jobs
	runtime     Pinger
	corsOrigins []string
	openapi     *openapi.Generator
	logger      *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	h := &Handler{
		launcher:    cfg.Launcher,
		deployments: cfg.Deployments,
		jobs:        cfg.Jobs,
		runtime:     cfg.Runtime,
		corsOrigins: origins,
		openapi:     openapi.NewGenerator(openapi.WithVersion(version)),
		logger:      l.With("component", "api"),
	}
	for _, rt := range h.routes() {
		h.openapi.Register(rt.op)
	}
	return h
}

type route struct {
	handler http.HandlerFunc
	op      openapi.Operation
}

func (h *Handler) routes() []route {
	notFound := []int{http.StatusNotFound, http.StatusInternalServerError}
	return []route{
		{h.handleStatus, openapi.Operation{
			Method: http.MethodGet, Path: "/api/status", ID: "getStatus", Tag: "status",
			Summary:  "Runtime connectivity and available templates",
			Response: launcher.Status{},
		}},
		{h.handleLaunch, openapi.Operation{
			Method: http.MethodPost, Path: "/api/launch", ID: "launch", Tag: "launch",
			Summary:  "Queue a launch of a service template",
			Request:  LaunchRequest{},
			Response: LaunchResponse{},
			Status:   http.StatusAccepted,
			Errors:   []int{http.StatusBadRequest, http.StatusNotFound},
		}},
		{h.handlePollJob, openapi.Operation{
			Method: http.MethodGet, Path: "/api/jobs/{id}", ID: "pollJob", Tag: "launch",
			Summary:  "Poll a launch job; terminal results are delivered once",
			Response: domain.JobView{},
			Errors:   []int{http.StatusNotFound},
		}},
		{h.handleListDeployments, openapi.Operation{
			Method: http.MethodGet, Path: "/api/deployments", ID: "listDeployments", Tag: "deployments",
			Summary:  "List containers known to the runtime",
			Response: []domain.DeploymentView{},
			Errors:   []int{http.StatusInternalServerError},
		}},
		{h.handleMetrics, openapi.Operation{
			Method: http.MethodGet, Path: "/api/deployments/{id}/metrics", ID: "getMetrics", Tag: "deployments",
			Summary:  "Sample CPU and memory utilization",
			Response: MetricsResponse{},
			Errors:   []int{http.StatusNotFound, http.StatusConflict, http.StatusInternalServerError},
		}},
		{h.handleStop, openapi.Operation{
			Method: http.MethodPost, Path: "/api/deployments/{id}/stop", ID: "stopDeployment", Tag: "deployments",
			Summary:  "Stop a container",
			Response: domain.ActionResult{},
			Errors:   notFound,
		}},
		{h.handleStart, openapi.Operation{
			Method: http.MethodPost, Path: "/api/deployments/{id}/start", ID: "startDeployment", Tag: "deployments",
			Summary:  "Start a container",
			Response: domain.ActionResult{},
			Errors:   notFound,
		}},
		{h.handleDelete, openapi.Operation{
			Method: http.MethodDelete, Path: "/api/deployments/{id}", ID: "deleteDeployment", Tag: "deployments",
			Summary:  "Stop and remove a container",
			Response: domain.ActionResult{},
			Errors:   notFound,
		}},
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	for _, rt := range h.routes() {
		r.Method(rt.op.Method, rt.op.Path, rt.handler)
	}
	r.Get("/api/openapi.json", h.openapi.Handler())

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if err := h.runtime.Ping(r.Context()); err != nil {
		checks["docker"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["docker"] = "ok"

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Launch Handlers
// =============================================================================

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.launcher.Status(r.Context()))
}

func (h *Handler) handleLaunch(w http.ResponseWriter, r *http.Request) {
	var req LaunchRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", codeValidation)
		return
	}
	if req.ServiceName == "" {
		h.writeError(w, http.StatusBadRequest, "service_name is required", codeValidation)
		return
	}
	inputs, err := stringInputs(req.UserInputs)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), codeValidation)
		return
	}

	jobID, err := h.launcher.Launch(r.Context(), req.ServiceName, inputs)
	switch {
	case err == nil:
	case errors.Is(err, templates.ErrTemplateNotFound):
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("Service %s not found.", req.ServiceName), codeTemplateNotFound)
		return
	case errors.Is(err, launcher.ErrRuntimeUnavailable):
		h.writeError(w, http.StatusBadRequest, "Docker is not connected.", codeRuntimeUnavailable)
		return
	default:
		h.logger.Error("failed to submit launch", "service_name", req.ServiceName, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to submit launch", codeInternal)
		return
	}

	h.writeJSON(w, http.StatusAccepted, LaunchResponse{
		Status:  "pending",
		JobID:   jobID,
		Message: fmt.Sprintf("Launch of %s queued.", req.ServiceName),
	})
}

func (h *Handler) handlePollJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.jobs.Poll(id)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			h.writeError(w, http.StatusNotFound, "Job not found.", codeJobNotFound)
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error(), codeInternal)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// =============================================================================
// Deployment Handlers
// =============================================================================

func (h *Handler) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	views, err := h.deployments.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list deployments", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error(), codeInternal)
		return
	}
	if views == nil {
		views = []domain.DeploymentView{}
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sample, err := h.deployments.Metrics(r.Context(), id)
	if err != nil {
		var samplingErr *monitoring.SamplingError
		switch {
		case errors.As(err, &samplingErr) && samplingErr.Kind == monitoring.NotRunning:
			h.writeError(w, http.StatusConflict, err.Error(), codeNotRunning)
		case errors.As(err, &samplingErr):
			h.writeError(w, http.StatusNotFound, err.Error(), codeContainerNotFound)
		default:
			h.logger.Error("failed to sample metrics", "container_id", id, "error", err)
			h.writeError(w, http.StatusInternalServerError, err.Error(), codeInternal)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, MetricsResponse{Status: domain.ActionSuccess, Metrics: sample})
}

func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.deployments.Stop)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.deployments.Start)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.deployments.Delete)
}

// action runs a synchronous container operation and maps its outcome.
func (h *Handler) action(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (domain.ActionResult, error)) {
	id := chi.URLParam(r, "id")

	result, err := fn(r.Context(), id)
	if err != nil && result.Message == "" {
		result.Message = err.Error()
	}
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, result)
	case errors.Is(err, docker.ErrContainerNotFound):
		h.writeError(w, http.StatusNotFound, result.Message, codeContainerNotFound)
	default:
		h.writeError(w, http.StatusInternalServerError, result.Message, codeInternal)
	}
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Status:  domain.ActionError,
		Message: message,
		Code:    code,
	})
}

// stringInputs flattens JSON input values to the strings the resolver expects.
// Null values are treated as absent.
func stringInputs(in map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for label, v := range in {
		switch val := v.(type) {
		case nil:
		case string:
			out[label] = val
		case json.Number:
			out[label] = val.String()
		case bool:
			out[label] = strconv.FormatBool(val)
		default:
			return nil, fmt.Errorf("user input %q must be a string or number", label)
		}
	}
	return out, nil
}
