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

// DeductionHandler exposes payroll deduction endpoints. Deductions are
// submitted by HR on behalf of an employee and always route through the
// full chain.
type DeductionHandler struct {
	deductions *service.DeductionService
}

// NewDeductionHandler constructs DeductionHandler.
func NewDeductionHandler(deductions *service.DeductionService) *DeductionHandler {
	return &DeductionHandler{deductions: deductions}
}

// Submit godoc
// @Summary Submit payroll deduction
// @Tags Deductions
// @Accept json
// @Produce json
// @Param payload body dto.CreateDeductionRequest true "Deduction payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /deductions [post]
func (h *DeductionHandler) Submit(c *gin.Context) {
	var req dto.CreateDeductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	deduction, err := h.deductions.Submit(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, deduction)
}

// List godoc
// @Summary List payroll deductions
// @Tags Deductions
// @Produce json
// @Param status query string false "Filter by status"
// @Param inbox query bool false "Show requests awaiting my approval"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /deductions [get]
func (h *DeductionHandler) List(c *gin.Context) {
	var filter models.DeductionFilter
	filter.Status = parseStatusQuery(c)
	filter.EmployeeID = optionalQuery(c, "employeeId")
	filter.Page, filter.PageSize = parsePagination(c)
	inbox := c.Query("inbox") == "true"

	deductions, total, err := h.deductions.List(c.Request.Context(), claimsFromContext(c), filter, inbox)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deductions, pagination(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get payroll deduction detail
// @Tags Deductions
// @Produce json
// @Param id path string true "Deduction ID"
// @Success 200 {object} response.Envelope
// @Router /deductions/{id} [get]
func (h *DeductionHandler) Get(c *gin.Context) {
	deduction, err := h.deductions.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deduction, nil)
}

// Approve godoc
// @Summary Approve payroll deduction
// @Tags Deductions
// @Produce json
// @Param id path string true "Deduction ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /deductions/{id}/approve [post]
func (h *DeductionHandler) Approve(c *gin.Context) {
	deduction, err := h.deductions.Approve(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deduction, nil)
}

// Reject godoc
// @Summary Reject payroll deduction
// @Tags Deductions
// @Accept json
// @Produce json
// @Param id path string true "Deduction ID"
// @Param payload body dto.RejectRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /deductions/{id}/reject [post]
func (h *DeductionHandler) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "rejection reason is required"))
		return
	}
	deduction, err := h.deductions.Reject(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deduction, nil)
}

// Timeline godoc
// @Summary Get deduction approval timeline
// @Tags Deductions
// @Produce json
// @Param id path string true "Deduction ID"
// @Success 200 {object} response.Envelope
// @Router /deductions/{id}/timeline [get]
func (h *DeductionHandler) Timeline(c *gin.Context) {
	steps, err := h.deductions.Timeline(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, steps, nil)
}
