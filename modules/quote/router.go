package quote

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stackdek/stackdek/pkg/httpserver"
	"github.com/stackdek/stackdek/pkg/logger"
	"github.com/stackdek/stackdek/pkg/tenant"
)

// Router returns the quote endpoints, mounted under /quotes.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handleList)
	r.Post("/", s.handleCreate)
	r.Route("/{quoteID}", func(r chi.Router) {
		r.Get("/", s.handleGet)
		r.Post("/send", s.statusHandler(s.Send))
		r.Post("/accept", s.statusHandler(s.Accept))
		r.Post("/decline", s.statusHandler(s.Decline))
		r.Post("/convert", s.handleConvert)
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

	quotes, err := s.List(r.Context(), companyID, filter)
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to list quotes",
			logger.CompanyID(companyID.String()), logger.Error(err))
		httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to list quotes")
		return
	}
	if quotes == nil {
		quotes = []Quote{}
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"quotes": quotes})
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

	q, err := s.Create(r.Context(), companyID, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			httpserver.ErrorJSON(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUnknownClient):
			httpserver.ErrorJSON(w, http.StatusBadRequest, "client does not exist")
		default:
			s.log.ErrorContext(r.Context(), "failed to create quote",
				logger.CompanyID(companyID.String()), logger.Error(err))
			httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to create quote")
		}
		return
	}
	httpserver.JSON(w, http.StatusCreated, q)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "quoteID"))
	if err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid quote id")
		return
	}

	q, err := s.Get(r.Context(), companyID, id)
	if err != nil {
		s.respondErr(w, r, companyID, err, "failed to load quote")
		return
	}
	httpserver.JSON(w, http.StatusOK, q)
}

func (s *Service) statusHandler(op func(ctx context.Context, companyID, id uuid.UUID) (*Quote, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := requireTenant(w, r)
		if !ok {
			return
		}
		id, err := uuid.Parse(chi.URLParam(r, "quoteID"))
		if err != nil {
			httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid quote id")
			return
		}

		q, err := op(r.Context(), companyID, id)
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				httpserver.ErrorJSON(w, http.StatusConflict, "invalid status transition")
				return
			}
			s.respondErr(w, r, companyID, err, "failed to update quote status")
			return
		}
		httpserver.JSON(w, http.StatusOK, q)
	}
}

func (s *Service) handleConvert(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "quoteID"))
	if err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid quote id")
		return
	}

	q, invoiceID, err := s.Convert(r.Context(), companyID, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAccepted):
			httpserver.ErrorJSON(w, http.StatusConflict, "only accepted quotes convert to invoices")
		case errors.Is(err, ErrAlreadyConverted):
			httpserver.ErrorJSON(w, http.StatusConflict, "quote already converted")
		default:
			s.respondErr(w, r, companyID, err, "failed to convert quote")
		}
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"quote":      q,
		"invoice_id": invoiceID,
	})
}

func (s *Service) respondErr(w http.ResponseWriter, r *http.Request, companyID uuid.UUID, err error, msg string) {
	if errors.Is(err, ErrNotFound) {
		httpserver.ErrorJSON(w, http.StatusNotFound, "quote not found")
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
