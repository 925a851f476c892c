package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
)

type ExerciseHandler struct {
	Exercises *service.ExerciseService
}

func NewExerciseHandler(exercises *service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{Exercises: exercises}
}

type createExerciseRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	MuscleGroup string `json:"muscle_group" binding:"required,max=50"`
	Equipment   string `json:"equipment" binding:"max=50"`
	Description string `json:"description" binding:"max=2000"`
}

func (h *ExerciseHandler) List(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	items, err := h.Exercises.List(c.Request.Context(), actor.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]service.ExerciseViewModel, 0, len(items))
	for _, e := range items {
		out = append(out, service.NewExerciseViewModel(e))
	}
	c.JSON(http.StatusOK, gin.H{"exercises": out, "total": len(out)})
}

func (h *ExerciseHandler) Create(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	var req createExerciseRequest
	if !bindJSON(c, &req) {
		return
	}
	exercise, err := h.Exercises.Create(c.Request.Context(), actor, service.ExerciseInput{
		Name:        req.Name,
		MuscleGroup: req.MuscleGroup,
		Equipment:   req.Equipment,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.NewExerciseViewModel(exercise))
}

func (h *ExerciseHandler) Delete(c *gin.Context) {
	actor, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Exercises.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
