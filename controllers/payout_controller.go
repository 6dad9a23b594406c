// controllers/payout_controller.go
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
	"github.com/ledgerworks/partner_ledger/utils"
)

// PayoutController exposes batch runs to operators and batch status
// updates to the payout-execution collaborator
type PayoutController struct {
	Batcher *services.PayoutBatcher
	Ledger  *repositories.LedgerRepository
}

// NewPayoutController creates a new payout controller
func NewPayoutController(batcher *services.PayoutBatcher, ledger *repositories.LedgerRepository) *PayoutController {
	return &PayoutController{Batcher: batcher, Ledger: ledger}
}

// RunBatcher triggers one batching tick. Same code path as the schedule;
// the (partner, period) uniqueness makes a manual run alongside the
// scheduled one harmless.
func (poc *PayoutController) RunBatcher(c echo.Context) error {
	period := c.QueryParam("period")
	if period == "" {
		period = utils.PeriodOf(time.Now())
	}
	if !utils.ValidMonthRef(period) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "period must be formatted YYYY-MM",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := poc.Batcher.Run(ctx, period)
	if err != nil {
		log.Printf("Error running payout batcher for %s: %v", period, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Payout batch run failed",
			Data:    result,
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout batch run complete",
		Data:    result,
	})
}

// ListBatches lists payout batches, filterable by status
func (poc *PayoutController) ListBatches(c echo.Context) error {
	status := models.BatchStatus(c.QueryParam("status"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batches, err := poc.Ledger.ListBatches(ctx, status)
	if err != nil {
		log.Printf("Error listing payout batches: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve payout batches",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout batches retrieved",
		Data:    batches,
	})
}

// GetBatch returns one payout batch
func (poc *PayoutController) GetBatch(c echo.Context) error {
	batchID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid batch ID",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch, err := poc.Ledger.BatchByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Payout batch not found",
			})
		}
		log.Printf("Error retrieving batch %s: %v", batchID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve payout batch",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout batch retrieved",
		Data:    batch,
	})
}

// BatchStatusRequest is the payout-execution collaborator's callback
type BatchStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateBatchStatus drives the batch state machine: processing while the
// transfer runs, then completed or failed; cancelled aborts. completed
// settles every member entry, failed releases them for the next tick.
func (poc *PayoutController) UpdateBatchStatus(c echo.Context) error {
	batchID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid batch ID",
		})
	}

	var req BatchStatusRequest
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

	batch, err := poc.Batcher.Transition(ctx, batchID, models.BatchStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Payout batch not found",
			})
		case errors.Is(err, models.ErrBadTransition):
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: err.Error(),
			})
		}
		log.Printf("Error transitioning batch %s: %v", batchID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update payout batch",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout batch updated",
		Data:    batch,
	})
}
