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

// LoanHandler exposes employee loan endpoints.
type LoanHandler struct {
	loans *service.LoanService
}

// NewLoanHandler constructs LoanHandler.
func NewLoanHandler(loans *service.LoanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

// Submit godoc
// @Summary Submit loan request
// @Tags Loans
// @Accept json
// @Produce json
// @Param payload body dto.CreateLoanRequest true "Loan payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /loans [post]
func (h *LoanHandler) Submit(c *gin.Context) {
	var req dto.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	loan, err := h.loans.Submit(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, loan)
}

// List godoc
// @Summary List loan requests
// @Tags Loans
// @Produce json
// @Param status query string false "Filter by status"
// @Param inbox query bool false "Show requests awaiting my approval"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /loans [get]
func (h *LoanHandler) List(c *gin.Context) {
	var filter models.LoanFilter
	filter.Status = parseStatusQuery(c)
	filter.Page, filter.PageSize = parsePagination(c)
	inbox := c.Query("inbox") == "true"

	loans, total, err := h.loans.List(c.Request.Context(), claimsFromContext(c), filter, inbox)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loans, pagination(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get loan request detail
// @Tags Loans
// @Produce json
// @Param id path string true "Loan request ID"
// @Success 200 {object} response.Envelope
// @Router /loans/{id} [get]
func (h *LoanHandler) Get(c *gin.Context) {
	loan, err := h.loans.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loan, nil)
}

// Approve godoc
// @Summary Approve loan request
// @Tags Loans
// @Produce json
// @Param id path string true "Loan request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /loans/{id}/approve [post]
func (h *LoanHandler) Approve(c *gin.Context) {
	loan, err := h.loans.Approve(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loan, nil)
}

// Reject godoc
// @Summary Reject loan request
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path string true "Loan request ID"
// @Param payload body dto.RejectRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /loans/{id}/reject [post]
func (h *LoanHandler) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "rejection reason is required"))
		return
	}
	loan, err := h.loans.Reject(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loan, nil)
}

// Timeline godoc
// @Summary Get loan approval timeline
// @Tags Loans
// @Produce json
// @Param id path string true "Loan request ID"
// @Success 200 {object} response.Envelope
// @Router /loans/{id}/timeline [get]
func (h *LoanHandler) Timeline(c *gin.Context) {
	steps, err := h.loans.Timeline(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, steps, nil)
}
