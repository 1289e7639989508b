package client_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdek/stackdek/modules/billing"
	"github.com/stackdek/stackdek/modules/client"
)

func newClientFixture(t *testing.T, maxClients int64) (*client.Service, uuid.UUID) {
	t.Helper()

	catalog, err := billing.NewCatalog(
		billing.Plan{ID: billing.PlanBasic, Name: "Basic", TrialDays: 14, MaxClients: maxClients},
	)
	require.NoError(t, err)

	subs := billing.NewMemoryStore()
	companyID := uuid.New()
	trialEnd := time.Now().Add(14 * 24 * time.Hour).UTC()
	subs.Seed(billing.Subscription{
		CompanyID:   companyID,
		Plan:        billing.PlanBasic,
		Status:      billing.StatusTrial,
		TrialEndsAt: &trialEnd,
	})

	svc := client.NewService(client.NewMemoryStore(), subs, catalog, slog.New(slog.DiscardHandler))
	return svc, companyID
}

func TestClientCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, companyID := newClientFixture(t, 0)

	created, err := svc.Create(ctx, companyID, client.CreateParams{
		Name:  "Hollis Deck Project",
		Email: "hollis@example.test",
		Phone: "555-0101",
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, companyID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hollis Deck Project", got.Name)

	newPhone := "555-0202"
	updated, err := svc.Update(ctx, companyID, created.ID, client.UpdateParams{Phone: &newPhone})
	require.NoError(t, err)
	assert.Equal(t, newPhone, updated.Phone)
	assert.Equal(t, "Hollis Deck Project", updated.Name)

	list, err := svc.List(ctx, companyID, client.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, companyID, created.ID))
	_, err = svc.Get(ctx, companyID, created.ID)
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestClientTenantIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, companyID := newClientFixture(t, 0)

	created, err := svc.Create(ctx, companyID, client.CreateParams{Name: "Isolated"})
	require.NoError(t, err)

	otherCompany := uuid.New()
	_, err = svc.Get(ctx, otherCompany, created.ID)
	assert.ErrorIs(t, err, client.ErrNotFound)

	err = svc.Delete(ctx, otherCompany, created.ID)
	assert.ErrorIs(t, err, client.ErrNotFound)

	list, err := svc.List(ctx, otherCompany, client.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClientPlanLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, companyID := newClientFixture(t, 2)

	for i := 0; i < 2; i++ {
		_, err := svc.Create(ctx, companyID, client.CreateParams{Name: "Client"})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, companyID, client.CreateParams{Name: "One Too Many"})
	assert.ErrorIs(t, err, client.ErrLimitReached)
}

func TestClientListSearch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, companyID := newClientFixture(t, 0)

	for _, name := range []string{"Alice Decks", "Bob Patios", "Carol Decks"} {
		_, err := svc.Create(ctx, companyID, client.CreateParams{Name: name})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, companyID, client.ListFilter{Search: "decks"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice Decks", list[0].Name)
	assert.Equal(t, "Carol Decks", list[1].Name)
}
