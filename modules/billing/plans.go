package billing

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Plan describes one service tier. StripePriceID is empty for the free basic
// tier, which never goes through checkout.
type Plan struct {
	ID            PlanID `yaml:"id"`
	Name          string `yaml:"name"`
	StripePriceID string `yaml:"stripe_price_id"`
	PriceCents    int64  `yaml:"price_cents"`
	Currency      string `yaml:"currency"`
	TrialDays     int    `yaml:"trial_days"`
	MaxClients    int64  `yaml:"max_clients"` // 0 means unlimited
	MaxJobs       int64  `yaml:"max_jobs"`    // 0 means unlimited
}

// TrialEndsAt calculates when a trial started at startedAt lapses.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	if p.TrialDays <= 0 {
		return startedAt
	}
	return startedAt.AddDate(0, 0, p.TrialDays).UTC()
}

// Catalog holds the configured plans keyed by id.
type Catalog struct {
	plans   map[PlanID]Plan
	byPrice map[string]Plan
}

type catalogFile struct {
	Plans []Plan `yaml:"plans"`
}

// LoadCatalog reads a YAML plan catalog from path and validates it.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	return NewCatalog(file.Plans...)
}

// NewCatalog builds a validated catalog from the given plans.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, errors.Join(ErrInvalidCatalog, errors.New("no plans configured"))
	}

	c := &Catalog{
		plans:   make(map[PlanID]Plan, len(plans)),
		byPrice: make(map[string]Plan, len(plans)),
	}
	for _, p := range plans {
		if p.ID == "" {
			return nil, errors.Join(ErrInvalidCatalog, errors.New("plan with empty id"))
		}
		if _, exists := c.plans[p.ID]; exists {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("duplicate plan id %q", p.ID))
		}
		if p.TrialDays < 0 {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("plan %q has negative trial days", p.ID))
		}
		if p.PriceCents > 0 && p.StripePriceID == "" {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("paid plan %q has no stripe price id", p.ID))
		}
		c.plans[p.ID] = p
		if p.StripePriceID != "" {
			c.byPrice[p.StripePriceID] = p
		}
	}

	if _, ok := c.plans[PlanBasic]; !ok {
		return nil, errors.Join(ErrInvalidCatalog, errors.New("catalog must include the basic plan"))
	}

	return c, nil
}

// Plan returns the plan with the given id.
func (c *Catalog) Plan(id PlanID) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// PlanByPriceID resolves a plan from a Stripe price id.
func (c *Catalog) PlanByPriceID(priceID string) (Plan, bool) {
	p, ok := c.byPrice[priceID]
	return p, ok
}

// Plans returns all plans sorted by price, cheapest first.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PriceCents != out[j].PriceCents {
			return out[i].PriceCents < out[j].PriceCents
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Has reports whether the catalog knows the given plan id.
func (c *Catalog) Has(id PlanID) bool {
	_, ok := c.plans[id]
	return ok
}
