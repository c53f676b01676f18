package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studio-recon/internal/domain"
	"studio-recon/internal/engine"
	"studio-recon/internal/repository"
	"studio-recon/pkg/logger"
	"studio-recon/pkg/response"
)

type ProductHandler struct {
	store  repository.ProductStore
	engine *engine.Engine
}

func NewProductHandler(store repository.ProductStore, engine *engine.Engine) *ProductHandler {
	return &ProductHandler{store: store, engine: engine}
}

type ClassifyRequest struct {
	Decisions []domain.ReviewDecision `json:"decisions" binding:"required,min=1,dive"`
}

// ListProducts godoc
// @Summary List product memory
// @Description List every remembered item description with its category, tax rate, ledger code, and usage counters
// @Tags products
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.store.ListProducts()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to list products")
		response.InternalError(c, "Failed to list products", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Products retrieved successfully", products)
}

// ClassifyProducts godoc
// @Summary Classify products directly
// @Description Upsert product-memory records outside the review workflow. Existing records for the same description are overwritten.
// @Tags products
// @Accept json
// @Produce json
// @Param request body ClassifyRequest true "Category decisions"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/products [post]
func (h *ProductHandler) ClassifyProducts(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid classify request")
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.engine.SubmitDecisions(req.Decisions); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to classify products")
		response.InternalError(c, "Failed to classify products", err.Error())
		return
	}
	response.Created(c, "Products classified successfully", gin.H{"count": len(req.Decisions)})
}

// DeleteProduct godoc
// @Summary Delete a product-memory record
// @Description Forget one item description. Its next occurrence in a booking feed triggers review again.
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid product ID", "Product ID must be an integer")
		return
	}

	if err := h.store.DeleteProduct(id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.NotFound(c, "Product not found")
			return
		}
		logger.GetLogger().WithError(err).WithField("product_id", id).Error("Failed to delete product")
		response.InternalError(c, "Failed to delete product", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Product deleted successfully", nil)
}
