package connect

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stackdek/stackdek/pkg/httpserver"
	"github.com/stackdek/stackdek/pkg/logger"
	"github.com/stackdek/stackdek/pkg/tenant"
)

const maxWebhookBody = 1 << 20

// Router returns the tenant-facing Connect endpoints, mounted under
// /connect behind authentication.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/authorize", s.handleAuthorize)
	return r
}

func (s *Service) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	companyID := tenant.IDFromContext(r.Context())
	if companyID == uuid.Nil {
		httpserver.ErrorJSON(w, http.StatusUnauthorized, "tenant not resolved")
		return
	}

	url, err := s.AuthorizeURL(companyID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to build authorize url",
			logger.CompanyID(companyID.String()), logger.Error(err))
		httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to start connect flow")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// CallbackHandler returns the OAuth redirect endpoint. It must be mounted
// outside authentication: the browser arrives here from Stripe, and the
// signed state parameter identifies the tenant.
func (s *Service) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if errCode := query.Get("error"); errCode != "" {
			s.log.WarnContext(r.Context(), "connect authorization denied",
				logger.Error(errors.New(errCode)))
			http.Redirect(w, r, s.cfg.FailureURL, http.StatusSeeOther)
			return
		}

		_, _, err := s.Callback(r.Context(), query.Get("state"), query.Get("code"))
		if err != nil {
			if errors.Is(err, ErrInvalidState) {
				httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid state parameter")
				return
			}
			s.log.ErrorContext(r.Context(), "connect callback failed", logger.Error(err))
			http.Redirect(w, r, s.cfg.FailureURL, http.StatusSeeOther)
			return
		}

		http.Redirect(w, r, s.cfg.SuccessURL, http.StatusSeeOther)
	}
}

// WebhookHandler returns the payment webhook endpoint. Deliveries
// authenticate with the signature header, nothing else.
func (s *Service) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			httpserver.ErrorJSON(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		signature := r.Header.Get(s.parser.SignatureHeader())
		event, err := s.HandleWebhook(r.Context(), payload, signature)
		if err != nil {
			switch {
			case errors.Is(err, ErrSignatureInvalid):
				s.log.WarnContext(r.Context(), "rejected payment webhook with invalid signature", logger.Error(err))
				httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid signature")
			case errors.Is(err, ErrMissingMetadata):
				s.log.WarnContext(r.Context(), "rejected payment webhook with missing metadata", logger.Error(err))
				httpserver.ErrorJSON(w, http.StatusBadRequest, "missing event metadata")
			default:
				// Server error so the provider redelivers; marking an invoice
				// paid is idempotent, so the replay is safe.
				s.log.ErrorContext(r.Context(), "failed to process payment webhook", logger.Error(err))
				httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to process event")
			}
			return
		}

		httpserver.JSON(w, http.StatusOK, map[string]any{
			"received":   true,
			"event_type": event.ProviderType,
		})
	}
}
