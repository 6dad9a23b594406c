// repositories/partner_repository.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ledgerworks/partner_ledger/config"
	"github.com/ledgerworks/partner_ledger/models"
	"github.com/ledgerworks/partner_ledger/utils"
)

// PartnerRepository reads and writes partners and companies
type PartnerRepository struct {
	partners  *mongo.Collection
	companies *mongo.Collection
}

// NewPartnerRepository creates a partner repository over the client
func NewPartnerRepository(client *mongo.Client) *PartnerRepository {
	db := client.Database(config.DatabaseName())
	return &PartnerRepository{
		partners:  db.Collection("partners"),
		companies: db.Collection("companies"),
	}
}

// PartnerByID loads one partner
func (r *PartnerRepository) PartnerByID(ctx context.Context, id primitive.ObjectID) (*models.Partner, error) {
	var partner models.Partner
	err := r.partners.FindOne(ctx, bson.M{"_id": id}).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownPartner, id.Hex())
		}
		return nil, err
	}
	return &partner, nil
}

// CompanyByID loads one company
func (r *PartnerRepository) CompanyByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error) {
	var company models.Company
	err := r.companies.FindOne(ctx, bson.M{"_id": id}).Decode(&company)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownCompany, id.Hex())
		}
		return nil, err
	}
	return &company, nil
}

// PartnerByReferralCode resolves a partner from a referral code
func (r *PartnerRepository) PartnerByReferralCode(ctx context.Context, code string) (*models.Partner, error) {
	var partner models.Partner
	err := r.partners.FindOne(ctx, bson.M{"referralCode": code}).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: referral code %q", models.ErrUnknownPartner, code)
		}
		return nil, err
	}
	return &partner, nil
}

// CreatePartner inserts a new partner with a fresh referral code. The
// sparse unique index on referralCode can reject a collision, so the
// generate-and-insert is retried a few times.
func (r *PartnerRepository) CreatePartner(ctx context.Context, partner *models.Partner) error {
	if partner.ID.IsZero() {
		partner.ID = primitive.NewObjectID()
	}
	if partner.Tier == "" {
		partner.Tier = models.TierStandard
	}
	now := time.Now()
	partner.CreatedAt = now
	partner.UpdatedAt = now

	for attempt := 0; attempt < 3; attempt++ {
		if partner.ReferralCode == "" {
			code, err := utils.GeneratePartnerReferralCode()
			if err != nil {
				return fmt.Errorf("failed to generate referral code: %w", err)
			}
			partner.ReferralCode = code
		}

		_, err := r.partners.InsertOne(ctx, partner)
		if err == nil {
			return nil
		}
		if mongo.IsDuplicateKeyError(err) {
			partner.ReferralCode = ""
			continue
		}
		return fmt.Errorf("failed to create partner: %w", err)
	}
	return fmt.Errorf("failed to create partner: referral code collisions")
}

// UpdatePartnerTier persists the tier decided by the eligibility
// evaluator. The evaluator itself never writes; this is the caller-side
// half of that contract.
func (r *PartnerRepository) UpdatePartnerTier(ctx context.Context, partnerID primitive.ObjectID, tier models.PartnerTier) error {
	update := bson.M{"$set": bson.M{"tier": tier, "updatedAt": time.Now()}}
	res, err := r.partners.UpdateOne(ctx, bson.M{"_id": partnerID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", models.ErrUnknownPartner, partnerID.Hex())
	}
	return nil
}

// CreateCompany inserts a company, resolving the referring partner from
// a referral code when one is supplied
func (r *PartnerRepository) CreateCompany(ctx context.Context, company *models.Company, referralCode string) error {
	if referralCode != "" {
		partner, err := r.PartnerByReferralCode(ctx, referralCode)
		if err != nil {
			return err
		}
		company.ReferringPartnerID = &partner.ID
	}

	if company.ID.IsZero() {
		company.ID = primitive.NewObjectID()
	}
	now := time.Now()
	company.CreatedAt = now
	company.UpdatedAt = now

	if _, err := r.companies.InsertOne(ctx, company); err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}
