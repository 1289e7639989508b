package company_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdek/stackdek/modules/billing"
	"github.com/stackdek/stackdek/modules/company"
	"github.com/stackdek/stackdek/pkg/tenant"
)

func newTestService(t *testing.T) (*company.Service, *company.MemoryStore) {
	t.Helper()
	catalog, err := billing.NewCatalog(
		billing.Plan{ID: billing.PlanBasic, Name: "Basic", TrialDays: 14},
		billing.Plan{ID: billing.PlanPro, Name: "Pro", StripePriceID: "price_pro", PriceCents: 4900},
	)
	require.NoError(t, err)
	store := company.NewMemoryStore()
	return company.NewService(store, catalog, slog.New(slog.DiscardHandler)), store
}

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates company with trial window from catalog", func(t *testing.T) {
		t.Parallel()
		svc, store := newTestService(t)

		before := time.Now().UTC()
		c, err := svc.Create(ctx, company.CreateParams{
			Name:  "Deck Masters LLC",
			Email: "office@deckmasters.test",
		})
		require.NoError(t, err)
		assert.True(t, c.Active)

		trialEnd, ok := store.TrialEnds[c.ID]
		require.True(t, ok)
		assert.WithinDuration(t, before.AddDate(0, 0, 14), trialEnd, time.Minute)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		_, err := svc.Create(ctx, company.CreateParams{Name: "  ", Email: "a@b.test"})
		assert.ErrorIs(t, err, company.ErrInvalidInput)
	})

	t.Run("rejects blank email", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		_, err := svc.Create(ctx, company.CreateParams{Name: "Deck Masters"})
		assert.ErrorIs(t, err, company.ErrInvalidInput)
	})
}

func TestTenantProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t)

	c, err := svc.Create(ctx, company.CreateParams{Name: "Deck Masters", Email: "a@b.test"})
	require.NoError(t, err)

	provider := svc.TenantProvider()

	resolved, err := provider.GetByIdentifier(ctx, c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, c.ID, resolved.ID)
	assert.Equal(t, "Deck Masters", resolved.Name)
	assert.True(t, resolved.Active)

	_, err = provider.GetByIdentifier(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)

	_, err = provider.GetByIdentifier(ctx, "00000000-0000-0000-0000-000000000001")
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
}
