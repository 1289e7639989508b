package billing

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stackdek/stackdek/pkg/logger"
	"github.com/stackdek/stackdek/pkg/tenant"
)

// BillingRoutePrefix is always reachable so a tenant with broken billing can
// still reach the one place that can fix it.
const BillingRoutePrefix = "/billing"

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Allow          bool
	RedirectTarget string // set when Allow is false
}

var allow = Decision{Allow: true}

func deny() Decision {
	return Decision{Allow: false, RedirectTarget: BillingRoutePrefix}
}

// Evaluate decides whether a request may proceed given the tenant's
// subscription. It is a pure function of its arguments:
//
//  1. Routes under the billing prefix are always allowed, even unauthenticated.
//  2. Unauthenticated requests are denied.
//  3. An active subscription is allowed.
//  4. A trial is allowed until its trial end, then denied.
//  5. past_due is denied with no grace period.
//  6. Everything else (canceled, inactive, none) is denied.
//
// Denials carry the billing route as the redirect target. This gate is a UX
// convenience, not a security boundary: data access is independently scoped
// by tenant in the storage layer.
func Evaluate(route string, sub *Subscription, authenticated bool, now time.Time) Decision {
	if strings.HasPrefix(route, BillingRoutePrefix) {
		return allow
	}
	if !authenticated || sub == nil {
		return deny()
	}

	switch sub.Status {
	case StatusActive:
		return allow
	case StatusTrial:
		if sub.InTrial(now) {
			return allow
		}
		return deny()
	default:
		return deny()
	}
}

// Guard is the HTTP middleware form of Evaluate. It resolves the tenant from
// the request context (set by the tenant middleware) and redirects denied
// requests to the billing page.
type Guard struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewGuard creates subscription-gating middleware backed by the store.
func NewGuard(store Store, log *slog.Logger) *Guard {
	return &Guard{store: store, log: log, now: time.Now}
}

// Middleware wraps next with the subscription gate. Authentication state is
// inferred from tenant resolution: requests without a resolved tenant are
// treated as unauthenticated.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if strings.HasPrefix(route, BillingRoutePrefix) {
			next.ServeHTTP(w, r)
			return
		}

		companyID := tenant.IDFromContext(r.Context())
		if companyID == uuid.Nil {
			redirectToBilling(w, r)
			return
		}

		sub, err := g.store.Get(r.Context(), companyID)
		if err != nil {
			g.log.ErrorContext(r.Context(), "failed to load subscription for access check",
				logger.CompanyID(companyID.String()), logger.Error(err))
			redirectToBilling(w, r)
			return
		}

		decision := Evaluate(route, sub, true, g.now())
		if !decision.Allow {
			redirectToBilling(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func redirectToBilling(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"subscription required","redirect":"` + BillingRoutePrefix + `"}`))
		return
	}
	http.Redirect(w, r, BillingRoutePrefix, http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") || strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
