package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
)

// AdminHandler serves member management for organization admins.
type AdminHandler struct {
	Admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{Admin: admin}
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=USER ADMIN"`
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	users, err := h.Admin.ListUsers(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]service.UserViewModel, 0, len(users))
	for _, u := range users {
		out = append(out, service.NewUserViewModel(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out, "total": len(out)})
}

func (h *AdminHandler) UpdateRole(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Admin.UpdateRole(c.Request.Context(), actor, targetID, domain.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewUserViewModel(user))
}

// Suspend handles POST /admin/users/:id/suspend.
func (h *AdminHandler) Suspend(c *gin.Context) {
	h.setActive(c, false)
}

// Activate handles POST /admin/users/:id/activate.
func (h *AdminHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *AdminHandler) setActive(c *gin.Context, active bool) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.Admin.SetActive(c.Request.Context(), actor, targetID, active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewUserViewModel(user))
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Admin.DeleteUser(c.Request.Context(), actor, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
