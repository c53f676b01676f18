package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"

	"studio-recon/internal/domain"
	"studio-recon/internal/repository"
	"studio-recon/pkg/logger"
	"studio-recon/pkg/response"
)

type SessionHandler struct {
	store repository.SessionStore
}

func NewSessionHandler(store repository.SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

// ListSessions godoc
// @Summary List reconciliation sessions
// @Description List finalized sessions, newest first
// @Tags sessions
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.store.ListSessions()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to list sessions")
		response.InternalError(c, "Failed to list sessions", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Sessions retrieved successfully", sessions)
}

// GetSession godoc
// @Summary Get a reconciliation session
// @Description Get one session's aggregate totals and match counters
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := c.Param("id")

	session, err := h.store.GetSession(id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			response.NotFound(c, "Session not found")
			return
		}
		logger.GetLogger().WithError(err).WithField("session_id", id).Error("Failed to get session")
		response.InternalError(c, "Failed to get session", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Session retrieved successfully", session)
}

// GetComparisons godoc
// @Summary Get per-identity comparisons
// @Description Get a session's per-identity comparison records, largest absolute difference first
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/sessions/{id}/comparisons [get]
func (h *SessionHandler) GetComparisons(c *gin.Context) {
	id := c.Param("id")
	if !h.sessionExists(c, id) {
		return
	}

	comparisons, err := h.store.GetComparisons(id)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("session_id", id).Error("Failed to get comparisons")
		response.InternalError(c, "Failed to get comparisons", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Comparisons retrieved successfully", comparisons)
}

// ExportComparisons godoc
// @Summary Export comparisons as CSV
// @Description Download a session's per-identity comparison records as a CSV file
// @Tags sessions
// @Produce text/csv
// @Param id path string true "Session ID"
// @Success 200 {string} string "CSV payload"
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/sessions/{id}/export [get]
func (h *SessionHandler) ExportComparisons(c *gin.Context) {
	id := c.Param("id")
	if !h.sessionExists(c, id) {
		return
	}

	comparisons, err := h.store.GetComparisons(id)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("session_id", id).Error("Failed to get comparisons")
		response.InternalError(c, "Failed to get comparisons", err.Error())
		return
	}

	csvData, err := gocsv.MarshalString(&comparisons)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("session_id", id).Error("Failed to marshal comparisons to CSV")
		response.InternalError(c, "Failed to export comparisons", err.Error())
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=comparisons-%s.csv", id))
	c.Data(http.StatusOK, "text/csv", []byte(csvData))
}

// GetCategorySummaries godoc
// @Summary Get category summaries
// @Description Get a session's per-category totals with tax and revenue share, largest first
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/sessions/{id}/categories [get]
func (h *SessionHandler) GetCategorySummaries(c *gin.Context) {
	id := c.Param("id")
	if !h.sessionExists(c, id) {
		return
	}

	summaries, err := h.store.GetCategorySummaries(id)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("session_id", id).Error("Failed to get category summaries")
		response.InternalError(c, "Failed to get category summaries", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Category summaries retrieved successfully", summaries)
}

// GetCategoryItems godoc
// @Summary Get category item breakdown
// @Description Get the per-description drill-down of one category within a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param category path string true "Category name"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/sessions/{id}/categories/{category}/items [get]
func (h *SessionHandler) GetCategoryItems(c *gin.Context) {
	id := c.Param("id")
	category := c.Param("category")
	if !h.sessionExists(c, id) {
		return
	}

	items, err := h.store.GetCategoryItems(id, category)
	if err != nil {
		logger.GetLogger().WithError(err).WithFields(map[string]interface{}{
			"session_id": id,
			"category":   category,
		}).Error("Failed to get category items")
		response.InternalError(c, "Failed to get category items", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Category items retrieved successfully", items)
}

// GetChannelSummaries godoc
// @Summary Get channel summaries
// @Description Get a session's per-channel totals with revenue share, largest first
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/sessions/{id}/channels [get]
func (h *SessionHandler) GetChannelSummaries(c *gin.Context) {
	id := c.Param("id")
	if !h.sessionExists(c, id) {
		return
	}

	summaries, err := h.store.GetChannelSummaries(id)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("session_id", id).Error("Failed to get channel summaries")
		response.InternalError(c, "Failed to get channel summaries", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Channel summaries retrieved successfully", summaries)
}

// sessionExists resolves the session before serving derived records so a
// bad ID yields 404 rather than an empty list.
func (h *SessionHandler) sessionExists(c *gin.Context, id string) bool {
	if _, err := h.store.GetSession(id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			response.NotFound(c, "Session not found")
			return false
		}
		logger.GetLogger().WithError(err).WithField("session_id", id).Error("Failed to get session")
		response.InternalError(c, "Failed to get session", err.Error())
		return false
	}
	return true
}
