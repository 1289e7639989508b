package billing_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdek/stackdek/modules/billing"
	"github.com/stackdek/stackdek/pkg/tenant"
)

func newWebhookFixture(t *testing.T, store billing.Store) (*billing.Service, *billing.DevProvider) {
	t.Helper()
	provider, err := billing.NewDevProvider("whsec_test", "http://localhost:8080")
	require.NoError(t, err)
	svc := billing.NewService(store, provider, testCatalog(t), billing.Config{}, slog.New(slog.DiscardHandler))
	return svc, provider
}

func deliverWebhook(t *testing.T, handler http.HandlerFunc, provider *billing.DevProvider, body []byte, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewReader(body))
	if sign {
		sig, err := provider.SignPayload(body)
		require.NoError(t, err)
		req.Header.Set(billing.DevSignatureHeader, sig)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookHandler(t *testing.T) {
	t.Parallel()

	t.Run("valid delivery reconciles and acknowledges", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		companyID := seedCompany(store, billing.StatusActive)
		svc, provider := newWebhookFixture(t, store)

		body, err := json.Marshal(map[string]any{
			"type":            "payment_failed",
			"company_id":      companyID.String(),
			"subscription_id": "sub_wh",
		})
		require.NoError(t, err)

		rec := deliverWebhook(t, svc.WebhookHandler(), provider, body, true)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Received  bool   `json:"received"`
			EventType string `json:"event_type"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Received)
		assert.Equal(t, "payment_failed", resp.EventType)

		sub, err := store.Get(context.Background(), companyID)
		require.NoError(t, err)
		assert.Equal(t, billing.StatusPastDue, sub.Status)
	})

	t.Run("invalid signature rejected without mutation", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		companyID := seedCompany(store, billing.StatusActive)
		svc, provider := newWebhookFixture(t, store)

		before, err := store.Get(context.Background(), companyID)
		require.NoError(t, err)

		body, err := json.Marshal(map[string]any{
			"type":            "payment_failed",
			"company_id":      companyID.String(),
			"subscription_id": "sub_wh",
		})
		require.NoError(t, err)

		rec := deliverWebhook(t, svc.WebhookHandler(), provider, body, false)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		after, err := store.Get(context.Background(), companyID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("tampered body fails verification", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		companyID := seedCompany(store, billing.StatusActive)
		svc, provider := newWebhookFixture(t, store)

		body, err := json.Marshal(map[string]any{
			"type":            "payment_failed",
			"company_id":      companyID.String(),
			"subscription_id": "sub_wh",
		})
		require.NoError(t, err)
		sig, err := provider.SignPayload(body)
		require.NoError(t, err)

		tampered := bytes.Replace(body, []byte("payment_failed"), []byte("invoice_paid\"\" "), 1)
		req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewReader(tampered))
		req.Header.Set(billing.DevSignatureHeader, sig)
		rec := httptest.NewRecorder()
		svc.WebhookHandler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing tenant metadata is a client error", func(t *testing.T) {
		t.Parallel()
		svc, provider := newWebhookFixture(t, billing.NewMemoryStore())

		body, err := json.Marshal(map[string]any{
			"type": "checkout_completed",
			"plan": "pro",
		})
		require.NoError(t, err)

		rec := deliverWebhook(t, svc.WebhookHandler(), provider, body, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown event type acknowledged as no-op", func(t *testing.T) {
		t.Parallel()
		svc, provider := newWebhookFixture(t, billing.NewMemoryStore())

		body, err := json.Marshal(map[string]any{"type": "charge.refunded"})
		require.NoError(t, err)

		rec := deliverWebhook(t, svc.WebhookHandler(), provider, body, true)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("storage failure is a server error so the provider redelivers", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		companyID := seedCompany(store, billing.StatusActive)
		failing := &failingStore{Store: store}
		svc, provider := newWebhookFixture(t, failing)

		body, err := json.Marshal(map[string]any{
			"type":            "payment_failed",
			"company_id":      companyID.String(),
			"subscription_id": "sub_wh",
		})
		require.NoError(t, err)

		rec := deliverWebhook(t, svc.WebhookHandler(), provider, body, true)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

type failingStore struct {
	billing.Store
}

func (s *failingStore) Save(context.Context, *billing.Subscription) error {
	return errors.Join(billing.ErrStorageWrite, errors.New("connection reset"))
}

func TestBillingRouter(t *testing.T) {
	t.Parallel()

	withTenant := func(req *http.Request, companyID uuid.UUID) *http.Request {
		return req.WithContext(tenant.WithTenant(req.Context(), tenant.Tenant{ID: companyID, Active: true}))
	}

	t.Run("get subscription", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		companyID := seedCompany(store, billing.StatusTrial)
		svc, _ := newWebhookFixture(t, store)

		req := withTenant(httptest.NewRequest(http.MethodGet, "/subscription", nil), companyID)
		rec := httptest.NewRecorder()
		svc.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "trial", resp["status"])
		assert.Equal(t, "basic", resp["plan"])
	})

	t.Run("checkout for paid plan returns session", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		companyID := seedCompany(store, billing.StatusTrial)
		svc, _ := newWebhookFixture(t, store)

		body := bytes.NewReader([]byte(`{"plan":"pro","email":"owner@example.com"}`))
		req := withTenant(httptest.NewRequest(http.MethodPost, "/checkout", body), companyID)
		rec := httptest.NewRecorder()
		svc.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var sess billing.CheckoutSession
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
		assert.NotEmpty(t, sess.SessionID)
		assert.NotEmpty(t, sess.URL)
	})

	t.Run("checkout for free plan rejected", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		companyID := seedCompany(store, billing.StatusTrial)
		svc, _ := newWebhookFixture(t, store)

		req := withTenant(httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader([]byte(`{"plan":"basic"}`))), companyID)
		rec := httptest.NewRecorder()
		svc.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("portal without billing account conflicts", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		companyID := seedCompany(store, billing.StatusTrial)
		svc, _ := newWebhookFixture(t, store)

		req := withTenant(httptest.NewRequest(http.MethodPost, "/portal", nil), companyID)
		rec := httptest.NewRecorder()
		svc.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("downgrade cancels provider subscription and lands on basic", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		companyID := uuid.New()
		periodEnd := time.Now().Add(20 * 24 * time.Hour).UTC()
		store.Seed(billing.Subscription{
			CompanyID:            companyID,
			Plan:                 billing.PlanPro,
			Status:               billing.StatusActive,
			StripeCustomerID:     "cus_dg",
			StripeSubscriptionID: "sub_dg",
			CurrentPeriodEnd:     &periodEnd,
		})
		svc, _ := newWebhookFixture(t, store)

		req := withTenant(httptest.NewRequest(http.MethodPost, "/downgrade", nil), companyID)
		rec := httptest.NewRecorder()
		svc.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		sub, err := store.Get(context.Background(), companyID)
		require.NoError(t, err)
		assert.Equal(t, billing.PlanBasic, sub.Plan)
		assert.Equal(t, billing.StatusActive, sub.Status)
		assert.Empty(t, sub.StripeSubscriptionID)
	})

	t.Run("requests without tenant are unauthorized", func(t *testing.T) {
		t.Parallel()
		svc, _ := newWebhookFixture(t, billing.NewMemoryStore())

		rec := httptest.NewRecorder()
		svc.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/subscription", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
