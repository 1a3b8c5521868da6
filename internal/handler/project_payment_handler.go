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

// ProjectPaymentHandler exposes project disbursement endpoints.
type ProjectPaymentHandler struct {
	payments *service.ProjectPaymentService
}

// NewProjectPaymentHandler constructs ProjectPaymentHandler.
func NewProjectPaymentHandler(payments *service.ProjectPaymentService) *ProjectPaymentHandler {
	return &ProjectPaymentHandler{payments: payments}
}

// Submit godoc
// @Summary Submit project payment
// @Tags ProjectPayments
// @Accept json
// @Produce json
// @Param payload body dto.CreateProjectPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /project-payments [post]
func (h *ProjectPaymentHandler) Submit(c *gin.Context) {
	var req dto.CreateProjectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.Submit(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// List godoc
// @Summary List project payments
// @Tags ProjectPayments
// @Produce json
// @Param status query string false "Filter by status"
// @Param projectId query string false "Filter by project"
// @Param inbox query bool false "Show requests awaiting my approval"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /project-payments [get]
func (h *ProjectPaymentHandler) List(c *gin.Context) {
	var filter models.ProjectPaymentFilter
	filter.Status = parseStatusQuery(c)
	filter.ProjectID = optionalQuery(c, "projectId")
	filter.Page, filter.PageSize = parsePagination(c)
	inbox := c.Query("inbox") == "true"

	payments, total, err := h.payments.List(c.Request.Context(), claimsFromContext(c), filter, inbox)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get project payment detail
// @Tags ProjectPayments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /project-payments/{id} [get]
func (h *ProjectPaymentHandler) Get(c *gin.Context) {
	payment, err := h.payments.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Approve godoc
// @Summary Approve project payment
// @Tags ProjectPayments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /project-payments/{id}/approve [post]
func (h *ProjectPaymentHandler) Approve(c *gin.Context) {
	payment, err := h.payments.Approve(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Reject godoc
// @Summary Reject project payment
// @Tags ProjectPayments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body dto.RejectRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /project-payments/{id}/reject [post]
func (h *ProjectPaymentHandler) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "rejection reason is required"))
		return
	}
	payment, err := h.payments.Reject(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Timeline godoc
// @Summary Get project payment approval timeline
// @Tags ProjectPayments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /project-payments/{id}/timeline [get]
func (h *ProjectPaymentHandler) Timeline(c *gin.Context) {
	steps, err := h.payments.Timeline(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, steps, nil)
}
