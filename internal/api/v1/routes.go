// Package v1 provides the job submission and target status endpoints.
package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stacklok/issue-auditor/internal/api/common"
	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/service"
)

// Routes handles HTTP requests for the v1 endpoints
type Routes struct {
	service service.Service
}

// NewRoutes creates a new Routes instance with the given service
func NewRoutes(svc service.Service) *Routes {
	return &Routes{service: svc}
}

// Router creates and configures the HTTP router for the v1 endpoints
func Router(svc service.Service) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Post("/jobs", routes.submitJob)
	r.Get("/jobs", routes.listJobs)
	r.Get("/jobs/{id}", routes.getJob)

	r.Post("/targets", routes.registerTarget)
	r.Get("/targets", routes.listTargets)
	r.Get("/targets/{id}/status", routes.getTargetStatus)

	return r
}

// submitJob handles POST /v1/jobs. 202 means a job was created, 200 that an
// equivalent job is already pending or processing.
func (routes *Routes) submitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	queued, err := routes.service.SubmitJob(r.Context(),
		service.WithTarget[service.SubmitJobOptions](req.TargetID),
		service.WithKind(req.Type, req.Args),
		service.WithPriority(req.Priority),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	code := http.StatusAccepted
	if !queued {
		code = http.StatusOK
	}
	common.WriteJSONResponse(w, SubmitJobResponse{Queued: queued}, code)
}

// listJobs handles GET /v1/jobs?status=&targetId=&limit=
func (routes *Routes) listJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var opts []service.Option[service.ListJobsOptions]
	if s := query.Get("status"); s != "" {
		opts = append(opts, service.WithStatus(jobs.Status(s)))
	}
	if target := query.Get("targetId"); target != "" {
		id, err := parseUUID(target, "targetId")
		if err != nil {
			common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithTarget[service.ListJobsOptions](id))
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			common.WriteErrorResponse(w, "Invalid limit parameter: must be an integer", http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithLimit(limit))
	}

	list, err := routes.service.ListJobs(r.Context(), opts...)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []*jobs.Job{}
	}
	common.WriteJSONResponse(w, ListJobsResponse{Jobs: list, Count: len(list)}, http.StatusOK)
}

// getJob handles GET /v1/jobs/{id}
func (routes *Routes) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetUUIDURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := routes.service.GetJob(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, job, http.StatusOK)
}

// registerTarget handles POST /v1/targets
func (routes *Routes) registerTarget(w http.ResponseWriter, r *http.Request) {
	var req RegisterTargetRequest
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	target, err := routes.service.RegisterTarget(r.Context(),
		service.WithOwner(req.Login, req.AccessToken),
		service.WithFullName(req.FullName),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, target, http.StatusCreated)
}

// listTargets handles GET /v1/targets
func (routes *Routes) listTargets(w http.ResponseWriter, r *http.Request) {
	list, err := routes.service.ListTargets(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, ListTargetsResponse{Targets: list, Count: len(list)}, http.StatusOK)
}

// getTargetStatus handles GET /v1/targets/{id}/status
func (routes *Routes) getTargetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetUUIDURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := routes.service.GetTargetStatus(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, st, http.StatusOK)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrJobNotFound), errors.Is(err, service.ErrTargetNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("Request failed", "error", err)
		common.WriteErrorResponse(w, "internal server error", http.StatusInternalServerError)
	}
}

func parseUUID(value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.New(name + " must be a UUID")
	}
	return id, nil
}
