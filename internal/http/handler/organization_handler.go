package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
)

// OrganizationHandler serves the caller's organization and the billing hook.
type OrganizationHandler struct {
	Organizations *service.OrganizationService
}

func NewOrganizationHandler(orgs *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{Organizations: orgs}
}

type renameOrganizationRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

type subscriptionChangeRequest struct {
	Action         string `json:"action" binding:"required,oneof=upgrade downgrade cancel expire reactivate"`
	CustomerID     string `json:"customer_id" binding:"max=255"`
	SubscriptionID string `json:"subscription_id" binding:"max=255"`
}

func (h *OrganizationHandler) Get(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	org, err := h.Organizations.Get(c.Request.Context(), actor.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewOrganizationViewModel(org))
}

func (h *OrganizationHandler) Rename(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	var req renameOrganizationRequest
	if !bindJSON(c, &req) {
		return
	}
	org, err := h.Organizations.Rename(c.Request.Context(), actor.OrganizationID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewOrganizationViewModel(org))
}

// ApplySubscription handles POST /internal/organizations/:id/subscription.
func (h *OrganizationHandler) ApplySubscription(c *gin.Context) {
	orgID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req subscriptionChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	org, err := h.Organizations.ApplySubscriptionChange(c.Request.Context(), orgID, service.SubscriptionChange{
		Action:         service.SubscriptionAction(req.Action),
		CustomerID:     req.CustomerID,
		SubscriptionID: req.SubscriptionID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewOrganizationViewModel(org))
}
