// services/partner_graph.go
package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ledgerworks/partner_ledger/models"
)

// PartnerGraph is a read-only view of the referral tree. Partners hold
// their upline as an id, never a pointer, and the graph walks those ids
// defensively: data entry should prevent cycles, but a corrupted chain
// must fail loudly instead of looping.
type PartnerGraph struct {
	partners PartnerStore
	maxHops  int
}

// NewPartnerGraph builds a graph over the partner store. maxHops caps how
// many chain members can earn from one event (direct + one upline by
// default); values below 1 fall back to 1.
func NewPartnerGraph(partners PartnerStore, maxHops int) *PartnerGraph {
	if maxHops < 1 {
		maxHops = 1
	}
	return &PartnerGraph{partners: partners, maxHops: maxHops}
}

// UplineChain walks upline links from the given partner to the root and
// returns at most maxHops partners, direct partner first. The walk always
// continues to the root so a cycle anywhere in the chain is reported as
// models.ErrCycleDetected even when it sits beyond the earning cap.
func (g *PartnerGraph) UplineChain(ctx context.Context, partnerID primitive.ObjectID) ([]models.Partner, error) {
	visited := make(map[primitive.ObjectID]bool)
	chain := make([]models.Partner, 0, g.maxHops)

	current := partnerID
	for {
		if visited[current] {
			return nil, fmt.Errorf("%w: partner %s", models.ErrCycleDetected, current.Hex())
		}
		visited[current] = true

		partner, err := g.partners.PartnerByID(ctx, current)
		if err != nil {
			return nil, err
		}

		if len(chain) < g.maxHops {
			chain = append(chain, *partner)
		}

		if partner.UplinePartnerID == nil {
			return chain, nil
		}
		current = *partner.UplinePartnerID
	}
}
