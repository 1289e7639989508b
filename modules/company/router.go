package company

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stackdek/stackdek/pkg/httpserver"
	"github.com/stackdek/stackdek/pkg/logger"
	"github.com/stackdek/stackdek/pkg/tenant"
)

// Router returns the company profile endpoints, scoped to the tenant
// resolved from the request context.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handleGet)
	r.Patch("/", s.handleUpdate)
	return r
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	companyID := tenant.IDFromContext(r.Context())
	if companyID == uuid.Nil {
		httpserver.ErrorJSON(w, http.StatusUnauthorized, "tenant not resolved")
		return
	}

	c, err := s.Get(r.Context(), companyID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpserver.ErrorJSON(w, http.StatusNotFound, "company not found")
			return
		}
		s.log.ErrorContext(r.Context(), "failed to load company",
			logger.CompanyID(companyID.String()), logger.Error(err))
		httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to load company")
		return
	}
	httpserver.JSON(w, http.StatusOK, c)
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	companyID := tenant.IDFromContext(r.Context())
	if companyID == uuid.Nil {
		httpserver.ErrorJSON(w, http.StatusUnauthorized, "tenant not resolved")
		return
	}

	var params UpdateParams
	if err := httpserver.DecodeJSON(r, &params); err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := s.Update(r.Context(), companyID, params)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpserver.ErrorJSON(w, http.StatusNotFound, "company not found")
			return
		}
		s.log.ErrorContext(r.Context(), "failed to update company",
			logger.CompanyID(companyID.String()), logger.Error(err))
		httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to update company")
		return
	}
	httpserver.JSON(w, http.StatusOK, c)
}
