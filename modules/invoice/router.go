package invoice

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

// Router returns the invoice endpoints, mounted under /invoices.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handleList)
	r.Post("/", s.handleCreate)
	r.Route("/{invoiceID}", func(r chi.Router) {
		r.Get("/", s.handleGet)
		r.Post("/send", s.statusHandler(s.Send))
		r.Post("/pay", s.statusHandler(s.MarkPaid))
		r.Post("/void", s.statusHandler(s.Void))
		r.Post("/payment-link", s.handlePaymentLink)
		r.Get("/qr", s.handleQR)
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

	invoices, err := s.List(r.Context(), companyID, filter)
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to list invoices",
			logger.CompanyID(companyID.String()), logger.Error(err))
		httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	if invoices == nil {
		invoices = []Invoice{}
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"invoices": invoices})
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

	inv, err := s.Create(r.Context(), companyID, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			httpserver.ErrorJSON(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUnknownClient):
			httpserver.ErrorJSON(w, http.StatusBadRequest, "client does not exist")
		default:
			s.log.ErrorContext(r.Context(), "failed to create invoice",
				logger.CompanyID(companyID.String()), logger.Error(err))
			httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to create invoice")
		}
		return
	}
	httpserver.JSON(w, http.StatusCreated, inv)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	inv, err := s.Get(r.Context(), companyID, id)
	if err != nil {
		s.respondErr(w, r, companyID, err, "failed to load invoice")
		return
	}
	httpserver.JSON(w, http.StatusOK, inv)
}

func (s *Service) statusHandler(op func(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := requireTenant(w, r)
		if !ok {
			return
		}
		id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
		if err != nil {
			httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid invoice id")
			return
		}

		inv, err := op(r.Context(), companyID, id)
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				httpserver.ErrorJSON(w, http.StatusConflict, "invalid status transition")
				return
			}
			s.respondErr(w, r, companyID, err, "failed to update invoice status")
			return
		}
		httpserver.JSON(w, http.StatusOK, inv)
	}
}

func (s *Service) handlePaymentLink(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	inv, err := s.CreatePaymentLink(r.Context(), companyID, id)
	if err != nil {
		if errors.Is(err, ErrNoConnectedAccount) {
			httpserver.ErrorJSON(w, http.StatusConflict, "connect a payment account first")
			return
		}
		s.respondErr(w, r, companyID, err, "failed to create payment link")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]string{"url": inv.PaymentLinkURL})
}

func (s *Service) handleQR(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	size := 0
	if v := r.URL.Query().Get("size"); v != "" {
		size, _ = strconv.Atoi(v)
	}

	png, err := s.PaymentQR(r.Context(), companyID, id, size)
	if err != nil {
		if errors.Is(err, ErrNoConnectedAccount) {
			httpserver.ErrorJSON(w, http.StatusConflict, "connect a payment account first")
			return
		}
		s.respondErr(w, r, companyID, err, "failed to render payment qr")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Service) respondErr(w http.ResponseWriter, r *http.Request, companyID uuid.UUID, err error, msg string) {
	if errors.Is(err, ErrNotFound) {
		httpserver.ErrorJSON(w, http.StatusNotFound, "invoice not found")
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
