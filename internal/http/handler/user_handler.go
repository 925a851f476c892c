package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
)

// UserHandler serves the caller's own account.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

type updateProfileRequest struct {
	FullName        *string `json:"full_name" binding:"omitempty,min=2,max=100"`
	ProfileImageURL *string `json:"profile_image_url" binding:"omitempty,url,max=500"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,max=128"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128,strongpassword"`
}

func (h *UserHandler) Get(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	user, err := h.Users.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewUserViewModel(user))
}

func (h *UserHandler) Update(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Users.UpdateProfile(c.Request.Context(), actor.UserID, service.ProfileUpdate{
		FullName:        req.FullName,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewUserViewModel(user))
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Users.ChangePassword(c.Request.Context(), actor.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// RequestDeletion handles DELETE /users/me. The account stays usable until the grace period ends.
func (h *UserHandler) RequestDeletion(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	scheduled, err := h.Users.RequestDeletion(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Account scheduled for deletion",
		"requested_at": scheduled.RequestedAt,
		"deletes_at":   scheduled.DeletesAt,
	})
}

func (h *UserHandler) CancelDeletion(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	if err := h.Users.CancelDeletion(c.Request.Context(), actor.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deletion canceled"})
}
