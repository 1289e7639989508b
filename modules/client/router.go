package client

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

// Router returns the client CRUD endpoints, mounted under /clients.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handleList)
	r.Post("/", s.handleCreate)
	r.Route("/{clientID}", func(r chi.Router) {
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

	filter := ListFilter{Search: r.URL.Query().Get("q")}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	clients, err := s.List(r.Context(), companyID, filter)
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to list clients",
			logger.CompanyID(companyID.String()), logger.Error(err))
		httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to list clients")
		return
	}
	if clients == nil {
		clients = []Client{}
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"clients": clients})
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

	c, err := s.Create(r.Context(), companyID, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			httpserver.ErrorJSON(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrLimitReached):
			httpserver.ErrorJSON(w, http.StatusForbidden, "plan client limit reached")
		default:
			s.log.ErrorContext(r.Context(), "failed to create client",
				logger.CompanyID(companyID.String()), logger.Error(err))
			httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to create client")
		}
		return
	}
	httpserver.JSON(w, http.StatusCreated, c)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "clientID"))
	if err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid client id")
		return
	}

	c, err := s.Get(r.Context(), companyID, id)
	if err != nil {
		respondClientErr(w, r, s, companyID, err, "failed to load client")
		return
	}
	httpserver.JSON(w, http.StatusOK, c)
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "clientID"))
	if err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid client id")
		return
	}

	var params UpdateParams
	if err := httpserver.DecodeJSON(r, &params); err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := s.Update(r.Context(), companyID, id, params)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			httpserver.ErrorJSON(w, http.StatusBadRequest, err.Error())
			return
		}
		respondClientErr(w, r, s, companyID, err, "failed to update client")
		return
	}
	httpserver.JSON(w, http.StatusOK, c)
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "clientID"))
	if err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid client id")
		return
	}

	if err := s.Delete(r.Context(), companyID, id); err != nil {
		respondClientErr(w, r, s, companyID, err, "failed to delete client")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondClientErr(w http.ResponseWriter, r *http.Request, s *Service, companyID uuid.UUID, err error, msg string) {
	if errors.Is(err, ErrNotFound) {
		httpserver.ErrorJSON(w, http.StatusNotFound, "client not found")
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
