package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
)

type ProgramHandler struct {
	Programs *service.ProgramService
}

func NewProgramHandler(programs *service.ProgramService) *ProgramHandler {
	return &ProgramHandler{Programs: programs}
}

type createProgramRequest struct {
	Name          string `json:"name" binding:"required,min=2,max=200"`
	Description   string `json:"description" binding:"max=5000"`
	SplitType     string `json:"split_type" binding:"required,oneof=UPPER_LOWER PUSH_PULL_LEGS FULL_BODY BRO_SPLIT ANTERIOR_POSTERIOR CUSTOM"`
	DaysPerWeek   int    `json:"days_per_week" binding:"required,min=1,max=7"`
	DurationWeeks *int   `json:"duration_weeks" binding:"omitempty,min=1,max=52"`
}

func (h *ProgramHandler) List(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	items, err := h.Programs.List(c.Request.Context(), actor.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]service.ProgramViewModel, 0, len(items))
	for _, p := range items {
		out = append(out, service.NewProgramViewModel(p))
	}
	c.JSON(http.StatusOK, gin.H{"programs": out, "total": len(out)})
}

func (h *ProgramHandler) Get(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	program, err := h.Programs.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewProgramViewModel(program))
}

// Create handles POST /programs. The router gates it on the custom_programs feature.
func (h *ProgramHandler) Create(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	var req createProgramRequest
	if !bindJSON(c, &req) {
		return
	}
	program, err := h.Programs.Create(c.Request.Context(), actor, service.ProgramInput{
		Name:          req.Name,
		Description:   req.Description,
		SplitType:     req.SplitType,
		DaysPerWeek:   req.DaysPerWeek,
		DurationWeeks: req.DurationWeeks,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.NewProgramViewModel(program))
}

func (h *ProgramHandler) Delete(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Programs.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
