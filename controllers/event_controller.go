// controllers/event_controller.go
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

// EventController receives payment events from the webhook ingestion
// collaborator and feeds them to the engine
type EventController struct {
	Engine *services.Engine
	Ledger *repositories.LedgerRepository
}

// NewEventController creates a new event controller
func NewEventController(engine *services.Engine, ledger *repositories.LedgerRepository) *EventController {
	return &EventController{Engine: engine, Ledger: ledger}
}

// EventRequest is the wire shape of one payment event. Amounts travel as
// decimal strings; the gateway layer has already authenticated and parsed
// the webhook before it gets here.
type EventRequest struct {
	EventID               string `json:"eventId" validate:"required"`
	CompanyID             string `json:"companyId,omitempty"`
	PartnerID             string `json:"partnerId,omitempty"`
	Amount                string `json:"amount,omitempty"`
	Currency              string `json:"currency,omitempty"`
	MonthRef              string `json:"monthRef,omitempty"`
	TransactionID         string `json:"transactionId,omitempty"`
	Kind                  string `json:"kind" validate:"required"`
	ReversedTransactionID string `json:"reversedTransactionId,omitempty"`
}

// IngestEvent applies one payment event to the ledger. Duplicates come
// back 200 with a note so at-least-once senders never retry forever;
// referential faults come back 422 and land in the review queue.
func (ec *EventController) IngestEvent(c echo.Context) error {
	var req EventRequest
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

	event, err := ec.eventFromRequest(&req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := ec.Engine.Apply(ctx, event)
	if err != nil {
		if isReviewFault(err) {
			return c.JSON(http.StatusUnprocessableEntity, models.Response{
				Status:  http.StatusUnprocessableEntity,
				Message: "Event rejected and queued for review: " + err.Error(),
			})
		}
		log.Printf("Error applying event %s: %v", event.EventID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to apply event",
		})
	}

	message := "Event applied"
	switch {
	case result.Duplicate:
		message = "Event already applied, no changes made"
	case result.PolicySkipped:
		message = "Event recorded, clawback disabled by policy"
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
		Data: map[string]interface{}{
			"duplicate": result.Duplicate,
			"entries":   result.Entries,
			"clawbacks": result.Clawbacks,
		},
	})
}

// GetRejectedEvents lists the manual review queue
func (ec *EventController) GetRejectedEvents(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	events, err := ec.Ledger.RejectedEvents(ctx, 200)
	if err != nil {
		log.Printf("Error listing rejected events: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve rejected events",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Rejected events retrieved",
		Data:    events,
	})
}

func (ec *EventController) eventFromRequest(req *EventRequest) (*models.PaymentEvent, error) {
	kind := models.EventKind(req.Kind)
	if !kind.Valid() {
		return nil, errors.New("unknown event kind: " + req.Kind)
	}

	event := &models.PaymentEvent{
		EventID:               req.EventID,
		Currency:              req.Currency,
		MonthRef:              req.MonthRef,
		TransactionID:         req.TransactionID,
		Kind:                  kind,
		ReversedTransactionID: req.ReversedTransactionID,
		ReceivedAt:            time.Now(),
	}
	if event.Currency == "" {
		event.Currency = "EUR"
	}

	if req.Amount != "" {
		amount, err := models.MoneyFromString(req.Amount)
		if err != nil {
			return nil, err
		}
		event.Amount = amount
	}

	if req.MonthRef != "" && !utils.ValidMonthRef(req.MonthRef) {
		return nil, errors.New("monthRef must be formatted YYYY-MM")
	}

	if req.CompanyID != "" {
		companyID, err := primitive.ObjectIDFromHex(req.CompanyID)
		if err != nil {
			return nil, errors.New("invalid company ID")
		}
		event.CompanyID = companyID
	}

	if req.PartnerID != "" {
		partnerID, err := primitive.ObjectIDFromHex(req.PartnerID)
		if err != nil {
			return nil, errors.New("invalid partner ID")
		}
		event.PartnerID = &partnerID
	}

	switch kind {
	case models.EventRefund, models.EventCancellation:
		if event.ReversedTransactionID == "" {
			return nil, errors.New("reversedTransactionId is required for refunds and cancellations")
		}
	case models.EventPartnerActivation:
		if event.PartnerID == nil {
			return nil, errors.New("partnerId is required for partner_activation events")
		}
	default:
		if event.CompanyID.IsZero() {
			return nil, errors.New("companyId is required")
		}
	}

	return event, nil
}

func isReviewFault(err error) bool {
	return errors.Is(err, models.ErrUnknownPartner) ||
		errors.Is(err, models.ErrUnknownCompany) ||
		errors.Is(err, models.ErrCycleDetected) ||
		errors.Is(err, models.ErrUnknownTier) ||
		errors.Is(err, models.ErrNotFound)
}
