// services/calculator.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ledgerworks/partner_ledger/config"
	"github.com/ledgerworks/partner_ledger/models"
	"github.com/ledgerworks/partner_ledger/utils"
)

// CommissionCalculator turns a payment event into the commission entries
// it should post. Pure computation: entries come back unpersisted and the
// caller commits them atomically with the event.
type CommissionCalculator struct {
	graph       *PartnerGraph
	rates       *RateTable
	eligibility *EligibilityEvaluator
	partners    PartnerStore
	metrics     MetricsStore
	cfg         config.EngineConfig
	now         func() time.Time
}

// NewCommissionCalculator wires a calculator over the partner graph, rate
// table and eligibility evaluator
func NewCommissionCalculator(partners PartnerStore, metrics MetricsStore, cfg config.EngineConfig) *CommissionCalculator {
	return &CommissionCalculator{
		graph:       NewPartnerGraph(partners, cfg.UplineMaxHops),
		rates:       NewRateTable(cfg),
		eligibility: NewEligibilityEvaluator(cfg),
		partners:    partners,
		metrics:     metrics,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Entries computes the commission entries for one event. company may be
// nil for partner_activation events. An empty result with a nil error is
// a normal outcome (no referrer, or a bounty not yet due), not a fault.
func (c *CommissionCalculator) Entries(ctx context.Context, event *models.PaymentEvent, company *models.Company) ([]models.CommissionEntry, error) {
	switch event.Kind {
	case models.EventRecurringPayment:
		return c.recurringEntries(ctx, event, company)
	case models.EventCompanySignup:
		return c.signupBounty(ctx, event, company)
	case models.EventPartnerActivation:
		return c.activationBounty(ctx, event)
	}
	return nil, fmt.Errorf("calculator cannot handle event kind %q", event.Kind)
}

// recurringEntries posts up to three entries for a subscription payment:
// the direct partner's share, an additive upline share when multi-level
// is enabled, and the sales rep's cut when the chain has one. Each share
// is a fraction of the subscription amount, rounded half-even to the
// currency minor unit exactly once.
func (c *CommissionCalculator) recurringEntries(ctx context.Context, event *models.PaymentEvent, company *models.Company) ([]models.CommissionEntry, error) {
	if company.ReferringPartnerID == nil {
		log.Printf("Event %s: company %s has no referring partner, no commission due", event.EventID, company.ID.Hex())
		return nil, nil
	}

	chain, err := c.graph.UplineChain(ctx, *company.ReferringPartnerID)
	if err != nil {
		return nil, err
	}

	direct := chain[0]
	rates, err := c.rates.RatesFor(direct.Tier, c.cfg.MultiLevelEnabled)
	if err != nil {
		return nil, err
	}

	amount := event.Amount.Decimal
	entries := []models.CommissionEntry{
		c.newEntry(event, direct.ID, models.RoleDirect, amount.Mul(rates.Direct)),
	}

	if c.cfg.MultiLevelEnabled && len(chain) > 1 {
		entries = append(entries,
			c.newEntry(event, chain[1].ID, models.RoleUpline, amount.Mul(rates.Upline)))
	}

	if direct.SalesRepID != nil {
		entries = append(entries,
			c.newEntry(event, *direct.SalesRepID, models.RoleSalesRep, amount.Mul(rates.SalesRep)))
	}

	return entries, nil
}

// signupBounty posts the flat company bounty to the referring partner.
// The only gate is that a referrer exists.
func (c *CommissionCalculator) signupBounty(ctx context.Context, event *models.PaymentEvent, company *models.Company) ([]models.CommissionEntry, error) {
	if company.ReferringPartnerID == nil {
		return nil, nil
	}

	partner, err := c.partners.PartnerByID(ctx, *company.ReferringPartnerID)
	if err != nil {
		return nil, err
	}

	entry := c.newEntry(event, partner.ID, models.RoleDirect, c.rates.CompanyBounty())
	return []models.CommissionEntry{entry}, nil
}

// activationBounty posts the flat partner bounty when the partner meets
// the eligibility bar. Not yet eligible is not an error: the empty result
// simply means the bounty is not yet due.
func (c *CommissionCalculator) activationBounty(ctx context.Context, event *models.PaymentEvent) ([]models.CommissionEntry, error) {
	if event.PartnerID == nil {
		return nil, fmt.Errorf("%w: partner_activation event %s carries no partner id", models.ErrUnknownPartner, event.EventID)
	}

	partner, err := c.partners.PartnerByID(ctx, *event.PartnerID)
	if err != nil {
		return nil, err
	}

	snapshot, err := c.metrics.SnapshotByPartner(ctx, partner.ID)
	if err != nil {
		return nil, err
	}

	if !c.eligibility.BountyEligible(*partner, *snapshot, c.now()) {
		log.Printf("Event %s: partner %s not yet eligible for activation bounty", event.EventID, partner.ID.Hex())
		return nil, nil
	}

	entry := c.newEntry(event, partner.ID, models.RoleDirect, c.rates.PartnerBounty())
	return []models.CommissionEntry{entry}, nil
}

// newEntry rounds the computed share and shapes it into a pending entry.
// Rounding happens here and nowhere else on the calculation path.
func (c *CommissionCalculator) newEntry(event *models.PaymentEvent, beneficiary primitive.ObjectID, role models.EntryRole, amount decimal.Decimal) models.CommissionEntry {
	currency := event.Currency
	if currency == "" {
		currency = "EUR"
	}
	return models.CommissionEntry{
		SourceEventID:        event.EventID,
		BeneficiaryPartnerID: beneficiary,
		Role:                 role,
		Amount:               models.NewMoney(utils.RoundMinor(amount, currency)),
		Currency:             currency,
		MonthRef:             event.MonthRef,
		Status:               models.EntryPending,
		CreatedAt:            c.now(),
	}
}
