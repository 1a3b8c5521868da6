package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prakarsa-dev/hcm-api/internal/dto"
	"github.com/prakarsa-dev/hcm-api/internal/models"
	"github.com/prakarsa-dev/hcm-api/internal/service"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
	"github.com/prakarsa-dev/hcm-api/pkg/response"
)

// ApprovalChainHandler exposes chain rule administration endpoints.
type ApprovalChainHandler struct {
	chains *service.ApprovalChainService
}

// NewApprovalChainHandler constructs ApprovalChainHandler.
func NewApprovalChainHandler(chains *service.ApprovalChainService) *ApprovalChainHandler {
	return &ApprovalChainHandler{chains: chains}
}

// List godoc
// @Summary List approval chain rules
// @Tags ApprovalChains
// @Produce json
// @Param requestType query string false "Filter by request type"
// @Param departmentId query string false "Filter by department scope"
// @Param projectId query string false "Filter by project scope"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /approval-chains [get]
func (h *ApprovalChainHandler) List(c *gin.Context) {
	var filter models.ApprovalChainFilter
	if raw := c.Query("requestType"); raw != "" {
		requestType := models.RequestType(raw)
		filter.RequestType = &requestType
	}
	filter.DepartmentID = optionalQuery(c, "departmentId")
	filter.ProjectID = optionalQuery(c, "projectId")
	filter.Active = parseBoolQuery(c, "active")
	filter.Page, filter.PageSize = parsePagination(c)

	rules, total, err := h.chains.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, pagination(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get chain rule detail
// @Tags ApprovalChains
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} response.Envelope
// @Router /approval-chains/{id} [get]
func (h *ApprovalChainHandler) Get(c *gin.Context) {
	rule, err := h.chains.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Create godoc
// @Summary Create chain rule
// @Description Adds one approval level to a chain after structural validation
// @Tags ApprovalChains
// @Accept json
// @Produce json
// @Param payload body dto.CreateChainRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /approval-chains [post]
func (h *ApprovalChainHandler) Create(c *gin.Context) {
	var req dto.CreateChainRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.chains.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// Update godoc
// @Summary Update chain rule
// @Tags ApprovalChains
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param payload body dto.UpdateChainRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /approval-chains/{id} [put]
func (h *ApprovalChainHandler) Update(c *gin.Context) {
	var req dto.UpdateChainRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.chains.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Delete godoc
// @Summary Deactivate chain rule
// @Tags ApprovalChains
// @Produce json
// @Param id path string true "Rule ID"
// @Success 204
// @Router /approval-chains/{id} [delete]
func (h *ApprovalChainHandler) Delete(c *gin.Context) {
	if err := h.chains.Deactivate(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
