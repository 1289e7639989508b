package billing_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdek/stackdek/modules/billing"
)

func TestNewCatalog(t *testing.T) {
	t.Parallel()

	t.Run("valid catalog", func(t *testing.T) {
		t.Parallel()
		catalog := testCatalog(t)

		plan, err := catalog.Plan(billing.PlanPro)
		require.NoError(t, err)
		assert.Equal(t, "price_pro", plan.StripePriceID)

		byPrice, ok := catalog.PlanByPriceID("price_premium")
		require.True(t, ok)
		assert.Equal(t, billing.PlanPremium, byPrice.ID)

		_, err = catalog.Plan("enterprise")
		assert.ErrorIs(t, err, billing.ErrPlanNotFound)
	})

	t.Run("plans sorted by price", func(t *testing.T) {
		t.Parallel()
		plans := testCatalog(t).Plans()
		require.Len(t, plans, 3)
		assert.Equal(t, billing.PlanBasic, plans[0].ID)
		assert.Equal(t, billing.PlanPro, plans[1].ID)
		assert.Equal(t, billing.PlanPremium, plans[2].ID)
	})

	tests := []struct {
		name  string
		plans []billing.Plan
	}{
		{"empty catalog", nil},
		{"missing basic plan", []billing.Plan{{ID: billing.PlanPro, StripePriceID: "price_pro", PriceCents: 4900}}},
		{"duplicate plan id", []billing.Plan{{ID: billing.PlanBasic}, {ID: billing.PlanBasic}}},
		{"paid plan without price id", []billing.Plan{{ID: billing.PlanBasic}, {ID: billing.PlanPro, PriceCents: 4900}}},
		{"negative trial days", []billing.Plan{{ID: billing.PlanBasic, TrialDays: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := billing.NewCatalog(tt.plans...)
			assert.ErrorIs(t, err, billing.ErrInvalidCatalog)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plans:
  - id: basic
    name: Basic
    trial_days: 14
  - id: pro
    name: Pro
    stripe_price_id: price_pro
    price_cents: 4900
    currency: usd
`), 0o600))

	catalog, err := billing.LoadCatalog(path)
	require.NoError(t, err)
	assert.True(t, catalog.Has(billing.PlanBasic))
	assert.True(t, catalog.Has(billing.PlanPro))

	_, err = billing.LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, billing.ErrInvalidCatalog)
}

func TestPlanTrialEndsAt(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	plan := billing.Plan{ID: billing.PlanBasic, TrialDays: 14}
	assert.Equal(t, start.AddDate(0, 0, 14), plan.TrialEndsAt(start))

	noTrial := billing.Plan{ID: billing.PlanPro}
	assert.Equal(t, start, noTrial.TrialEndsAt(start))
}
