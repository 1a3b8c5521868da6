package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prakarsa-dev/hcm-api/internal/dto"
	"github.com/prakarsa-dev/hcm-api/internal/service"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
	"github.com/prakarsa-dev/hcm-api/pkg/response"
)

// SettingHandler exposes fixed organizational role configuration.
type SettingHandler struct {
	roles *service.RoleConfigService
}

// NewSettingHandler constructs SettingHandler.
func NewSettingHandler(roles *service.RoleConfigService) *SettingHandler {
	return &SettingHandler{roles: roles}
}

// ListRoleHolders godoc
// @Summary List organizational role holders
// @Description Returns current HR/Finance/General manager assignments including fallbacks
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/role-holders [get]
func (h *SettingHandler) ListRoleHolders(c *gin.Context) {
	items, err := h.roles.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// SetRoleHolder godoc
// @Summary Assign an organizational role holder
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateRoleHolderRequest true "Role holder payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /settings/role-holders [put]
func (h *SettingHandler) SetRoleHolder(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateRoleHolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	item, err := h.roles.SetHolder(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
