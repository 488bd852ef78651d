package handlers

import (
	"net/http"

	"github.com/ezparkk/site-api/internal/dtos"
	"github.com/ezparkk/site-api/internal/services"
	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	RoleService *services.RoleService
}

func NewRoleHandler(roles *services.RoleService) *RoleHandler {
	return &RoleHandler{RoleService: roles}
}

// ListRoles is the GET /roles endpoint
func (h *RoleHandler) ListRoles(c *gin.Context) {
	c.JSON(http.StatusOK, h.RoleService.Roles())
}

// GetRole is the GET /roles/:roleId endpoint
func (h *RoleHandler) GetRole(c *gin.Context) {
	role, ok := h.RoleService.RoleByID(c.Param("roleId"))
	if !ok {
		c.JSON(http.StatusNotFound, dtos.ErrorResponse{Error: "Role not found", Code: "RoleNotFound"})
		return
	}
	c.JSON(http.StatusOK, role)
}
