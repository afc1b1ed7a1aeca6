package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"routelab/internal/metrics"
	"routelab/internal/model"
	"routelab/internal/store"
)

// VRPJobsHandler handles POST/GET /vrp/jobs
func (s *Server) VRPJobsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req model.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateProblem(&req.VehicleRoutingProblem); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid problem", err.Error(), r.URL.Path)
			return
		}
		id, err := s.Manager.Create(r.Context(), &req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create job failed", err.Error(), r.URL.Path)
			return
		}
		metrics.JobsSubmitted.Inc()
		// jobs begin solving on submit; /start on a started job answers false
		if _, err := s.startJob(r.Context(), id); err != nil {
			s.jobError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, model.SubmitResponse{JobID: id})
	case http.MethodGet:
		page, perPage := 1, 50
		if v := r.URL.Query().Get("page"); v != "" {
			fmt.Sscanf(v, "%d", &page)
		}
		if v := r.URL.Query().Get("per_page"); v != "" {
			fmt.Sscanf(v, "%d", &perPage)
		}
		items, total, err := s.Manager.List(r.Context(), page, perPage)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List jobs failed", err.Error(), r.URL.Path)
			return
		}
		totalPages := 0
		if perPage > 0 {
			totalPages = (total + perPage - 1) / perPage
		}
		writeJSON(w, http.StatusOK, PaginatedResponse{
			Data:       items,
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: totalPages,
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// VRPJobByIDHandler handles /vrp/jobs/{id} and its subresources: poll,
// start, stop, ws.
func (s *Server) VRPJobByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/vrp/jobs/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		writeProblem(w, http.StatusNotFound, "Not found", "missing job id", r.URL.Path)
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.jobDetail(w, r, id)
		case http.MethodDelete:
			if err := s.Manager.Delete(r.Context(), id); err != nil {
				s.jobError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, true)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "poll":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		resp, err := s.Manager.Poll(r.Context(), id)
		if err != nil {
			s.jobError(w, r, err)
			return
		}
		if r.URL.Query().Get("geojson") != "false" {
			s.attachPolylines(r.Context(), id, &resp)
		}
		writeJSON(w, http.StatusOK, resp)
	case "start":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		ok, err := s.startJob(r.Context(), id)
		if err != nil {
			s.jobError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ok)
	case "stop":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		ok, err := s.Manager.Stop(id)
		if err != nil {
			s.jobError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ok)
	case "ws":
		s.JobWSHandler(w, r, id)
	case "solution/geojson":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.jobSolutionGeoJSON(w, r, id)
	default:
		writeProblem(w, http.StatusNotFound, "Not found", "unknown job action "+action, r.URL.Path)
	}
}

// startJob starts the solver and fires the side effects shared by submit
// and the /start action.
func (s *Server) startJob(ctx context.Context, id string) (bool, error) {
	ok, err := s.Manager.Start(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		metrics.JobsRunning.Inc()
		s.Broker.Publish(id, JobEvent{Type: EventJobStarted, Data: map[string]any{"job_id": id}})
	}
	return ok, nil
}

func (s *Server) jobDetail(w http.ResponseWriter, r *http.Request, id string) {
	job, err := s.Store.GetJob(r.Context(), id)
	if err != nil {
		s.jobError(w, r, err)
		return
	}
	if status, err := s.Manager.Status(r.Context(), id); err == nil {
		job.Status = status
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) jobError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Job not found", err.Error(), r.URL.Path)
		return
	}
	writeProblem(w, http.StatusInternalServerError, "Job lookup failed", err.Error(), r.URL.Path)
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports readiness: the store must answer a probe.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if _, _, err := s.Store.ListJobs(r.Context(), 1, 1); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store not ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
