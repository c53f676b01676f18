package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studio-recon/internal/classifier"
	"studio-recon/internal/domain"
	"studio-recon/internal/repository"
	"studio-recon/pkg/logger"
	"studio-recon/pkg/response"
)

type RulesHandler struct {
	store repository.RuleStore
}

func NewRulesHandler(store repository.RuleStore) *RulesHandler {
	return &RulesHandler{store: store}
}

type SaveRulesRequest struct {
	Rules []domain.CategoryRule `json:"rules" binding:"required,min=1"`
}

type rulesEnvelope struct {
	Source string                `json:"source"`
	Rules  []domain.CategoryRule `json:"rules"`
}

// GetRules godoc
// @Summary Get the active category ruleset
// @Description Get the keyword rules used to classify unknown items: the operator's saved overrides, or the built-in defaults when none are saved
// @Tags rules
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/rules [get]
func (h *RulesHandler) GetRules(c *gin.Context) {
	rules, err := h.store.GetRuleOverrides()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get rule overrides")
		response.InternalError(c, "Failed to get rules", err.Error())
		return
	}

	envelope := rulesEnvelope{Source: "override", Rules: rules}
	if rules == nil {
		envelope = rulesEnvelope{Source: "default", Rules: classifier.DefaultRules()}
	}
	response.Success(c, http.StatusOK, "Rules retrieved successfully", envelope)
}

// SaveRules godoc
// @Summary Replace the category ruleset
// @Description Save an operator-defined ruleset that replaces the built-in defaults for subsequent runs. The set must contain exactly one catch-all rule (no keywords) and it must carry the highest priority.
// @Tags rules
// @Accept json
// @Produce json
// @Param request body SaveRulesRequest true "Replacement ruleset"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/rules [put]
func (h *RulesHandler) SaveRules(c *gin.Context) {
	var req SaveRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid rules request")
		response.ValidationError(c, err.Error())
		return
	}

	if err := validateRules(req.Rules); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.store.SaveRuleOverrides(req.Rules); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to save rule overrides")
		response.InternalError(c, "Failed to save rules", err.Error())
		return
	}
	logger.GetLogger().WithField("rule_count", len(req.Rules)).Info("Category ruleset replaced")
	response.Success(c, http.StatusOK, "Rules saved successfully", req.Rules)
}

// ResetRules godoc
// @Summary Reset to the built-in ruleset
// @Description Delete the operator's overrides so subsequent runs classify with the built-in defaults
// @Tags rules
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/rules [delete]
func (h *RulesHandler) ResetRules(c *gin.Context) {
	if err := h.store.ResetRuleOverrides(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to reset rule overrides")
		response.InternalError(c, "Failed to reset rules", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Rules reset to defaults", nil)
}

var (
	errRuleName         = errors.New("every rule needs a name")
	errCatchAllCount    = errors.New("ruleset needs exactly one catch-all rule without keywords")
	errCatchAllPriority = errors.New("the catch-all rule must carry the highest priority")
)

func validateRules(rules []domain.CategoryRule) error {
	var catchAll int
	maxPriority := rules[0].Priority
	for _, r := range rules {
		if r.Name == "" {
			return errRuleName
		}
		if r.CatchAll() {
			catchAll++
		}
		if r.Priority > maxPriority {
			maxPriority = r.Priority
		}
	}
	if catchAll != 1 {
		return errCatchAllCount
	}
	for _, r := range rules {
		if r.CatchAll() && r.Priority != maxPriority {
			return errCatchAllPriority
		}
	}
	return nil
}
