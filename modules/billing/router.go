package billing

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

// maxWebhookBody caps webhook payload reads at 1 MiB.
const maxWebhookBody = 1 << 20

// Router returns the tenant-facing billing endpoints, mounted under
// /billing by the caller.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/plans", s.handleListPlans)
	r.Get("/subscription", s.handleGetSubscription)
	r.Post("/checkout", s.handleCreateCheckout)
	r.Post("/portal", s.handleCreatePortal)
	r.Post("/downgrade", s.handleDowngrade)

	return r
}

// WebhookHandler returns the provider webhook endpoint. It must be mounted
// outside any authentication or tenant middleware: deliveries authenticate
// with the signature header, nothing else.
func (s *Service) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The raw body bytes feed signature verification; nothing may parse
		// or re-serialize them first.
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			httpserver.ErrorJSON(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		signature := r.Header.Get(s.provider.SignatureHeader())
		outcome, err := s.HandleWebhook(r.Context(), payload, signature)
		if err != nil {
			switch {
			case errors.Is(err, ErrSignatureInvalid):
				s.log.WarnContext(r.Context(), "rejected webhook with invalid signature", logger.Error(err))
				httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid signature")
			case errors.Is(err, ErrMissingMetadata):
				s.log.WarnContext(r.Context(), "rejected webhook with missing metadata",
					logger.EventType(outcome.EventType), logger.Error(err))
				httpserver.ErrorJSON(w, http.StatusBadRequest, "missing event metadata")
			default:
				// Server error so the provider redelivers; reconciliation is
				// idempotent, so the replay is safe.
				s.log.ErrorContext(r.Context(), "failed to process webhook",
					logger.EventType(outcome.EventType), logger.Error(err))
				httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to process event")
			}
			return
		}

		httpserver.JSON(w, http.StatusOK, map[string]any{
			"received":   true,
			"event_type": outcome.EventType,
		})
	}
}

func (s *Service) handleListPlans(w http.ResponseWriter, r *http.Request) {
	type planResponse struct {
		ID         PlanID `json:"id"`
		Name       string `json:"name"`
		PriceCents int64  `json:"price_cents"`
		Currency   string `json:"currency"`
		TrialDays  int    `json:"trial_days"`
		MaxClients int64  `json:"max_clients"`
		MaxJobs    int64  `json:"max_jobs"`
	}

	plans := s.catalog.Plans()
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse{
			ID:         p.ID,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Currency:   p.Currency,
			TrialDays:  p.TrialDays,
			MaxClients: p.MaxClients,
			MaxJobs:    p.MaxJobs,
		})
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"plans": out})
}

func (s *Service) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	companyID, ok := s.companyFromRequest(w, r)
	if !ok {
		return
	}

	sub, err := s.GetSubscription(r.Context(), companyID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			httpserver.ErrorJSON(w, http.StatusNotFound, "subscription not found")
			return
		}
		httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to load subscription")
		return
	}

	httpserver.JSON(w, http.StatusOK, map[string]any{
		"company_id":           sub.CompanyID,
		"plan":                 sub.Plan,
		"status":               sub.Status,
		"current_period_end":   sub.CurrentPeriodEnd,
		"trial_ends_at":        sub.TrialEndsAt,
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
		"connected_account":    sub.ConnectedAccountID != "",
	})
}

func (s *Service) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	companyID, ok := s.companyFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Plan  string `json:"plan"`
		Email string `json:"email"`
	}
	if err := httpserver.DecodeJSON(r, &req); err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.CreateCheckout(r.Context(), companyID, PlanID(req.Plan), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrPlanNotFound):
			httpserver.ErrorJSON(w, http.StatusBadRequest, "unknown plan")
		case errors.Is(err, ErrPlanNotPurchasable):
			httpserver.ErrorJSON(w, http.StatusBadRequest, "plan does not require checkout")
		case errors.Is(err, ErrSubscriptionNotFound):
			httpserver.ErrorJSON(w, http.StatusNotFound, "subscription not found")
		default:
			s.log.ErrorContext(r.Context(), "failed to create checkout session",
				logger.CompanyID(companyID.String()), logger.Error(err))
			httpserver.ErrorJSON(w, http.StatusBadGateway, "failed to create checkout session")
		}
		return
	}

	httpserver.JSON(w, http.StatusOK, sess)
}

func (s *Service) handleCreatePortal(w http.ResponseWriter, r *http.Request) {
	companyID, ok := s.companyFromRequest(w, r)
	if !ok {
		return
	}

	sess, err := s.CreatePortal(r.Context(), companyID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoBillingAccount):
			httpserver.ErrorJSON(w, http.StatusConflict, "no billing account yet")
		case errors.Is(err, ErrSubscriptionNotFound):
			httpserver.ErrorJSON(w, http.StatusNotFound, "subscription not found")
		default:
			s.log.ErrorContext(r.Context(), "failed to create portal session",
				logger.CompanyID(companyID.String()), logger.Error(err))
			httpserver.ErrorJSON(w, http.StatusBadGateway, "failed to create portal session")
		}
		return
	}

	httpserver.JSON(w, http.StatusOK, sess)
}

func (s *Service) handleDowngrade(w http.ResponseWriter, r *http.Request) {
	companyID, ok := s.companyFromRequest(w, r)
	if !ok {
		return
	}

	sub, err := s.Downgrade(r.Context(), companyID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			httpserver.ErrorJSON(w, http.StatusNotFound, "subscription not found")
			return
		}
		s.log.ErrorContext(r.Context(), "failed to downgrade tenant",
			logger.CompanyID(companyID.String()), logger.Error(err))
		httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to downgrade")
		return
	}

	httpserver.JSON(w, http.StatusOK, map[string]any{
		"plan":   sub.Plan,
		"status": sub.Status,
	})
}

func (s *Service) companyFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	companyID := tenant.IDFromContext(r.Context())
	if companyID == uuid.Nil {
		httpserver.ErrorJSON(w, http.StatusUnauthorized, "tenant not resolved")
		return uuid.Nil, false
	}
	return companyID, true
}
