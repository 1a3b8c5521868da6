package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prakarsa-dev/hcm-api/internal/dto"
	"github.com/prakarsa-dev/hcm-api/internal/models"
	"github.com/prakarsa-dev/hcm-api/internal/service"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
	"github.com/prakarsa-dev/hcm-api/pkg/export"
	"github.com/prakarsa-dev/hcm-api/pkg/response"
)

// LeaveHandler exposes leave request endpoints.
type LeaveHandler struct {
	leaves   *service.LeaveService
	exporter *export.CSVExporter
}

// NewLeaveHandler constructs LeaveHandler.
func NewLeaveHandler(leaves *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaves: leaves, exporter: export.NewCSVExporter()}
}

// Submit godoc
// @Summary Submit leave request
// @Description Creates a leave request and routes it into its approval chain
// @Tags Leave
// @Accept json
// @Produce json
// @Param payload body dto.CreateLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /leaves [post]
func (h *LeaveHandler) Submit(c *gin.Context) {
	var req dto.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	leave, err := h.leaves.Submit(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// List godoc
// @Summary List leave requests
// @Description Lists own submissions, or the approval inbox with inbox=true
// @Tags Leave
// @Produce json
// @Param status query string false "Filter by status"
// @Param inbox query bool false "Show requests awaiting my approval"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leaves [get]
func (h *LeaveHandler) List(c *gin.Context) {
	var filter models.LeaveFilter
	filter.Status = parseStatusQuery(c)
	filter.Page, filter.PageSize = parsePagination(c)
	inbox := c.Query("inbox") == "true"

	leaves, total, err := h.leaves.List(c.Request.Context(), claimsFromContext(c), filter, inbox)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, pagination(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get leave request detail
// @Tags Leave
// @Produce json
// @Param id path string true "Leave request ID"
// @Success 200 {object} response.Envelope
// @Router /leaves/{id} [get]
func (h *LeaveHandler) Get(c *gin.Context) {
	leave, err := h.leaves.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// Approve godoc
// @Summary Approve leave request
// @Description Records an approval by the current approver and advances the chain
// @Tags Leave
// @Produce json
// @Param id path string true "Leave request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaves/{id}/approve [post]
func (h *LeaveHandler) Approve(c *gin.Context) {
	leave, err := h.leaves.Approve(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// Reject godoc
// @Summary Reject leave request
// @Description Finalizes the request as rejected with a mandatory reason
// @Tags Leave
// @Accept json
// @Produce json
// @Param id path string true "Leave request ID"
// @Param payload body dto.RejectRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaves/{id}/reject [post]
func (h *LeaveHandler) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "rejection reason is required"))
		return
	}
	leave, err := h.leaves.Reject(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// Export godoc
// @Summary Export leave requests as CSV
// @Description Renders the caller-visible leave requests into a downloadable CSV file
// @Tags Leave
// @Produce text/csv
// @Param status query string false "Filter by status"
// @Success 200 {string} string "CSV content"
// @Router /exports/leaves [get]
func (h *LeaveHandler) Export(c *gin.Context) {
	filter := models.LeaveFilter{
		Status:   parseStatusQuery(c),
		Page:     1,
		PageSize: 1000,
	}
	leaves, _, err := h.leaves.List(c.Request.Context(), claimsFromContext(c), filter, false)
	if err != nil {
		response.Error(c, err)
		return
	}

	data := export.Dataset{
		Headers: []string{"id", "employee_id", "leave_type", "start_date", "end_date", "total_days", "status", "decided_at"},
	}
	for _, leave := range leaves {
		row := map[string]string{
			"id":          leave.ID,
			"employee_id": leave.EmployeeID,
			"leave_type":  string(leave.LeaveType),
			"start_date":  leave.StartDate.Format("2006-01-02"),
			"end_date":    leave.EndDate.Format("2006-01-02"),
			"total_days":  strconv.Itoa(leave.TotalDays),
			"status":      string(leave.Status),
		}
		if leave.DecidedAt != nil {
			row["decided_at"] = leave.DecidedAt.Format("2006-01-02 15:04:05")
		}
		data.Rows = append(data.Rows, row)
	}

	body, err := h.exporter.Render(data)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render export"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="leave_requests.csv"`)
	c.Data(http.StatusOK, "text/csv", body)
}

// Timeline godoc
// @Summary Get leave approval timeline
// @Description Reconstructs the approval history against the current chain
// @Tags Leave
// @Produce json
// @Param id path string true "Leave request ID"
// @Success 200 {object} response.Envelope
// @Router /leaves/{id}/timeline [get]
func (h *LeaveHandler) Timeline(c *gin.Context) {
	steps, err := h.leaves.Timeline(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, steps, nil)
}
