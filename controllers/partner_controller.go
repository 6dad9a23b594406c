// controllers/partner_controller.go
package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ledgerworks/partner_ledger/models"
	"github.com/ledgerworks/partner_ledger/repositories"
	"github.com/ledgerworks/partner_ledger/services"
)

// PartnerController handles partner management, reporting reads and the
// metrics snapshot feed
type PartnerController struct {
	Partners  *repositories.PartnerRepository
	Metrics   *repositories.MetricsRepository
	Ledger    *repositories.LedgerRepository
	Evaluator *services.EligibilityEvaluator
}

// NewPartnerController creates a new partner controller
func NewPartnerController(partners *repositories.PartnerRepository, metrics *repositories.MetricsRepository, ledger *repositories.LedgerRepository, evaluator *services.EligibilityEvaluator) *PartnerController {
	return &PartnerController{
		Partners:  partners,
		Metrics:   metrics,
		Ledger:    ledger,
		Evaluator: evaluator,
	}
}

// CreatePartnerRequest is the payload for registering a partner
type CreatePartnerRequest struct {
	FullName        string `json:"fullName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	UplinePartnerID string `json:"uplinePartnerId,omitempty"`
	SalesRepID      string `json:"salesRepId,omitempty"`
	KYCVerified     bool   `json:"kycVerified"`
}

// CreatePartner registers a new partner with a generated referral code
func (pc *PartnerController) CreatePartner(c echo.Context) error {
	var req CreatePartnerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Missing required fields: " + err.Error(),
		})
	}

	partner := models.Partner{
		FullName:    req.FullName,
		Email:       req.Email,
		Tier:        models.TierStandard,
		KYCVerified: req.KYCVerified,
	}

	if req.UplinePartnerID != "" {
		uplineID, err := primitive.ObjectIDFromHex(req.UplinePartnerID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid upline partner ID",
			})
		}
		partner.UplinePartnerID = &uplineID
	}
	if req.SalesRepID != "" {
		repID, err := primitive.ObjectIDFromHex(req.SalesRepID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid sales rep ID",
			})
		}
		partner.SalesRepID = &repID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Reject an upline that does not exist before inserting, so the
	// referral tree never gains a dangling edge.
	if partner.UplinePartnerID != nil {
		if _, err := pc.Partners.PartnerByID(ctx, *partner.UplinePartnerID); err != nil {
			return c.JSON(http.StatusUnprocessableEntity, models.Response{
				Status:  http.StatusUnprocessableEntity,
				Message: "Upline partner not found",
			})
		}
	}

	if err := pc.Partners.CreatePartner(ctx, &partner); err != nil {
		log.Printf("Error creating partner: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create partner",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Partner created",
		Data:    partner,
	})
}

// GetPartner returns one partner
func (pc *PartnerController) GetPartner(c echo.Context) error {
	partnerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid partner ID",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	partner, err := pc.Partners.PartnerByID(ctx, partnerID)
	if err != nil {
		if errors.Is(err, models.ErrUnknownPartner) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Partner not found",
			})
		}
		log.Printf("Error retrieving partner %s: %v", partnerID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve partner",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Partner retrieved",
		Data:    partner,
	})
}

// GetPartnerEntries returns a partner's commission entries for reporting
func (pc *PartnerController) GetPartnerEntries(c echo.Context) error {
	partnerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid partner ID",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := pc.Ledger.EntriesByPartner(ctx, partnerID)
	if err != nil {
		log.Printf("Error retrieving entries for partner %s: %v", partnerID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve commission entries",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission entries retrieved",
		Data:    entries,
	})
}

// GetPartnerBalance returns a partner's per-status totals
func (pc *PartnerController) GetPartnerBalance(c echo.Context) error {
	partnerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid partner ID",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	balance, err := pc.Ledger.PartnerBalance(ctx, partnerID)
	if err != nil {
		log.Printf("Error computing balance for partner %s: %v", partnerID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to compute balance",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Balance retrieved",
		Data:    balance,
	})
}

// RefreshTier re-evaluates a partner's tier from the latest metrics
// snapshot and persists the result. The evaluator stays pure; this
// handler is the caller that performs the write.
func (pc *PartnerController) RefreshTier(c echo.Context) error {
	partnerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid partner ID",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snapshot, err := pc.Metrics.SnapshotByPartner(ctx, partnerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "No metrics snapshot for partner",
			})
		}
		log.Printf("Error loading snapshot for partner %s: %v", partnerID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load metrics snapshot",
		})
	}

	tier := pc.Evaluator.TierFor(*snapshot)
	if err := pc.Partners.UpdatePartnerTier(ctx, partnerID, tier); err != nil {
		log.Printf("Error updating tier for partner %s: %v", partnerID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update partner tier",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Partner tier refreshed",
		Data:    map[string]interface{}{"partnerId": partnerID, "tier": tier},
	})
}

// MetricsRequest is the snapshot payload from the metrics collaborator
type MetricsRequest struct {
	ActiveCompanyCount int    `json:"activeCompanyCount" validate:"min=0"`
	TrailingMRR        string `json:"trailingMrr" validate:"required"`
	MonthsSinceSignup  int    `json:"monthsSinceSignup" validate:"min=0"`
}

// UpsertMetrics stores a refreshed metrics snapshot for a partner
func (pc *PartnerController) UpsertMetrics(c echo.Context) error {
	partnerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid partner ID",
		})
	}

	var req MetricsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid metrics payload: " + err.Error(),
		})
	}

	mrr, err := models.MoneyFromString(req.TrailingMRR)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid trailing MRR amount",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snapshot := models.PartnerMetricsSnapshot{
		PartnerID:          partnerID,
		ActiveCompanyCount: req.ActiveCompanyCount,
		TrailingMRR:        mrr,
		MonthsSinceSignup:  req.MonthsSinceSignup,
		ComputedAt:         time.Now(),
	}
	if err := pc.Metrics.UpsertSnapshot(ctx, &snapshot); err != nil {
		log.Printf("Error upserting metrics for partner %s: %v", partnerID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to store metrics snapshot",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Metrics snapshot stored",
		Data:    snapshot,
	})
}

// CreateCompanyRequest is the payload for registering a referred company
type CreateCompanyRequest struct {
	BusinessName     string `json:"businessName" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	SubscriptionTier string `json:"subscriptionTier"`
	ReferralCode     string `json:"referralCode,omitempty"`
}

// CreateCompany registers a company, attributing it to the partner whose
// referral code was supplied
func (pc *PartnerController) CreateCompany(c echo.Context) error {
	var req CreateCompanyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Missing required fields: " + err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	company := models.Company{
		BusinessName:     req.BusinessName,
		Email:            req.Email,
		SubscriptionTier: req.SubscriptionTier,
	}
	if err := pc.Partners.CreateCompany(ctx, &company, req.ReferralCode); err != nil {
		if errors.Is(err, models.ErrUnknownPartner) {
			return c.JSON(http.StatusUnprocessableEntity, models.Response{
				Status:  http.StatusUnprocessableEntity,
				Message: "Referral code does not match any partner",
			})
		}
		log.Printf("Error creating company: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create company",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Company created",
		Data:    company,
	})
}
