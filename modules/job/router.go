package job

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stackdek/stackdek/pkg/httpserver"
	"github.com/stackdek/stackdek/pkg/logger"
	"github.com/stackdek/stackdek/pkg/tenant"
)

// Router returns the job CRUD endpoints, mounted under /jobs.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handleList)
	r.Post("/", s.handleCreate)
	r.Route("/{jobID}", func(r chi.Router) {
		r.Get("/", s.handleGet)
		r.Patch("/", s.handleUpdate)
		r.Delete("/", s.handleDelete)
	})
	return r
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	filter := ListFilter{Status: Status(r.URL.Query().Get("status"))}
	if v := r.URL.Query().Get("client_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid client id")
			return
		}
		filter.ClientID = id
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	jobs, err := s.List(r.Context(), companyID, filter)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		s.log.ErrorContext(r.Context(), "failed to list jobs",
			logger.CompanyID(companyID.String()), logger.Error(err))
		httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []Job{}
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var params CreateParams
	if err := httpserver.DecodeJSON(r, &params); err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	j, err := s.Create(r.Context(), companyID, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			httpserver.ErrorJSON(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUnknownClient):
			httpserver.ErrorJSON(w, http.StatusBadRequest, "client does not exist")
		case errors.Is(err, ErrLimitReached):
			httpserver.ErrorJSON(w, http.StatusForbidden, "plan job limit reached")
		default:
			s.log.ErrorContext(r.Context(), "failed to create job",
				logger.CompanyID(companyID.String()), logger.Error(err))
			httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to create job")
		}
		return
	}
	httpserver.JSON(w, http.StatusCreated, j)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid job id")
		return
	}

	j, err := s.Get(r.Context(), companyID, id)
	if err != nil {
		s.respondErr(w, r, companyID, err, "failed to load job")
		return
	}
	httpserver.JSON(w, http.StatusOK, j)
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid job id")
		return
	}

	var params UpdateParams
	if err := httpserver.DecodeJSON(r, &params); err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	j, err := s.Update(r.Context(), companyID, id, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			httpserver.ErrorJSON(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrInvalidStatus):
			httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid status")
		default:
			s.respondErr(w, r, companyID, err, "failed to update job")
		}
		return
	}
	httpserver.JSON(w, http.StatusOK, j)
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid job id")
		return
	}

	if err := s.Delete(r.Context(), companyID, id); err != nil {
		s.respondErr(w, r, companyID, err, "failed to delete job")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) respondErr(w http.ResponseWriter, r *http.Request, companyID uuid.UUID, err error, msg string) {
	if errors.Is(err, ErrNotFound) {
		httpserver.ErrorJSON(w, http.StatusNotFound, "job not found")
		return
	}
	s.log.ErrorContext(r.Context(), msg,
		logger.CompanyID(companyID.String()), logger.Error(err))
	httpserver.ErrorJSON(w, http.StatusInternalServerError, msg)
}

func requireTenant(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	companyID := tenant.IDFromContext(r.Context())
	if companyID == uuid.Nil {
		httpserver.ErrorJSON(w, http.StatusUnauthorized, "tenant not resolved")
		return uuid.Nil, false
	}
	return companyID, true
}
