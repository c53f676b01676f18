package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"studio-recon/internal/domain"
	"studio-recon/internal/engine"
	"studio-recon/internal/parser"
	"studio-recon/pkg/logger"
	"studio-recon/pkg/response"
)

type ReconciliationHandler struct {
	engine *engine.Engine
}

func NewReconciliationHandler(engine *engine.Engine) *ReconciliationHandler {
	return &ReconciliationHandler{engine: engine}
}

type ResumeRequest struct {
	Decisions []domain.ReviewDecision `json:"decisions" binding:"required,min=1,dive"`
}

// Reconcile godoc
// @Summary Run a reconciliation
// @Description Upload a booking feed and a settlement feed for one period. When the booking feed contains item descriptions not yet in product memory, the run is suspended for review instead of producing a session.
// @Tags reconciliation
// @Accept multipart/form-data
// @Produce json
// @Param feed_a formData file true "Booking feed CSV"
// @Param feed_b formData file true "Settlement feed CSV"
// @Param period formData string true "Period label, e.g. 2025-03"
// @Param skip_review formData bool false "Finalize even when unknown items are present"
// @Success 200 {object} response.Response
// @Success 202 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconcile [post]
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	period := c.PostForm("period")
	if period == "" {
		response.BadRequest(c, "Missing period", "Provide a period form field, e.g. 2025-03")
		return
	}
	skipReview := c.PostForm("skip_review") == "true"

	var bookings []domain.BookingRow
	ok := parseUpload(c, "feed_a", func(f multipart.File) error {
		var err error
		bookings, err = parser.ParseBookingCSV(f)
		return err
	})
	if !ok {
		return
	}

	var settlements []domain.SettlementRow
	ok = parseUpload(c, "feed_b", func(f multipart.File) error {
		var err error
		settlements, err = parser.ParseSettlementCSV(f)
		return err
	})
	if !ok {
		return
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"period":      period,
		"skip_review": skipReview,
	}).Info("Starting reconciliation")

	outcome, err := h.engine.Reconcile(bookings, settlements, period, skipReview)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyFeed) {
			response.BadRequest(c, "Feed contains no rows", err.Error())
			return
		}
		logger.GetLogger().WithError(err).Error("Reconciliation failed")
		response.InternalError(c, "Reconciliation failed", err.Error())
		return
	}

	if outcome.Pending != nil {
		response.Success(c, http.StatusAccepted, "Reconciliation suspended for review", outcome.Pending)
		return
	}
	response.Success(c, http.StatusOK, "Reconciliation completed successfully", outcome.Session)
}

// parseUpload reads one uploaded feed and hands it to parse. On failure it
// writes the error response itself and returns false so the caller can bail.
func parseUpload(c *gin.Context, field string, parse func(multipart.File) error) bool {
	header, err := c.FormFile(field)
	if err != nil {
		response.BadRequest(c, "Missing feed upload", field+" file is required")
		return false
	}

	file, err := header.Open()
	if err != nil {
		logger.GetLogger().WithError(err).WithField("field", field).Error("Failed to open upload")
		response.InternalError(c, "Failed to read upload", err.Error())
		return false
	}
	defer file.Close()

	if err := parse(file); err != nil {
		var missing *parser.MissingHeaderError
		if errors.As(err, &missing) {
			response.ValidationError(c, missing.Error())
			return false
		}
		response.BadRequest(c, "Failed to parse feed", err.Error())
		return false
	}
	return true
}

// ListPending godoc
// @Summary List suspended reconciliations
// @Description List runs awaiting operator review, newest first. Feed payloads are omitted.
// @Tags pending
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/pending [get]
func (h *ReconciliationHandler) ListPending(c *gin.Context) {
	pending, err := h.engine.ListPending()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to list pending reconciliations")
		response.InternalError(c, "Failed to list pending reconciliations", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Pending reconciliations retrieved successfully", pending)
}

// GetPending godoc
// @Summary Get a suspended reconciliation
// @Description Get one suspended run including its new-item candidates and suggested categories
// @Tags pending
// @Produce json
// @Param id path string true "Pending reconciliation ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/pending/{id} [get]
func (h *ReconciliationHandler) GetPending(c *gin.Context) {
	id := c.Param("id")

	pending, err := h.engine.GetPending(id)
	if err != nil {
		if errors.Is(err, domain.ErrPendingNotFound) {
			response.NotFound(c, "Pending reconciliation not found")
			return
		}
		logger.GetLogger().WithError(err).WithField("pending_id", id).Error("Failed to get pending reconciliation")
		response.InternalError(c, "Failed to get pending reconciliation", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Pending reconciliation retrieved successfully", pending)
}

// Resume godoc
// @Summary Resume a suspended reconciliation
// @Description Apply the operator's category decisions to product memory, finalize the suspended run into a session, and delete the pending record
// @Tags pending
// @Accept json
// @Produce json
// @Param id path string true "Pending reconciliation ID"
// @Param request body ResumeRequest true "Category decisions for the new items"
// @Success 200 {object} response.Response
// @Failure 410 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/pending/{id}/resume [post]
func (h *ReconciliationHandler) Resume(c *gin.Context) {
	id := c.Param("id")

	var req ResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid resume request")
		response.ValidationError(c, err.Error())
		return
	}

	session, err := h.engine.Resume(id, req.Decisions)
	if err != nil {
		if errors.Is(err, domain.ErrPendingNotFound) {
			response.Gone(c, "Pending reconciliation no longer exists")
			return
		}
		logger.GetLogger().WithError(err).WithField("pending_id", id).Error("Failed to resume reconciliation")
		response.InternalError(c, "Failed to resume reconciliation", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Reconciliation resumed successfully", session)
}

// DiscardPending godoc
// @Summary Discard a suspended reconciliation
// @Description Delete a suspended run without finalizing it. Product memory is left untouched.
// @Tags pending
// @Produce json
// @Param id path string true "Pending reconciliation ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/pending/{id} [delete]
func (h *ReconciliationHandler) DiscardPending(c *gin.Context) {
	id := c.Param("id")

	if err := h.engine.Discard(id); err != nil {
		if errors.Is(err, domain.ErrPendingNotFound) {
			response.NotFound(c, "Pending reconciliation not found")
			return
		}
		logger.GetLogger().WithError(err).WithField("pending_id", id).Error("Failed to discard pending reconciliation")
		response.InternalError(c, "Failed to discard pending reconciliation", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Pending reconciliation discarded", nil)
}
