package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

const msgProRequired = "This feature requires an active PRO subscription"

type ExerciseInput struct {
	Name        string
	MuscleGroup string
	Equipment   string
	Description string
}

// ExerciseService manages organization-owned custom exercises.
type ExerciseService struct {
	instrumentation
	exercises repository.ExerciseRepository
	orgs      repository.OrganizationRepository
	snowflake *snowflake.Node
	now       func() time.Time
}

func NewExerciseService(exercises repository.ExerciseRepository, orgs repository.OrganizationRepository, node *snowflake.Node, logger *zap.Logger) *ExerciseService {
	return &ExerciseService{
		instrumentation: newInstrumentation(logger),
		exercises:       exercises,
		orgs:            orgs,
		snowflake:       node,
		now:             time.Now,
	}
}

func (s *ExerciseService) List(ctx context.Context, orgID int64) ([]domain.Exercise, error) {
	items, err := s.exercises.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, internalError(err)
	}
	return items, nil
}

// Create adds an exercise. Only organizations on an active PRO plan may create them.
func (s *ExerciseService) Create(ctx context.Context, actor Actor, in ExerciseInput) (domain.Exercise, error) {
	ctx, span := s.startSpan(ctx, "ExerciseService.Create")
	defer span.End()

	org, err := s.orgs.GetByID(ctx, actor.OrganizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Exercise{}, newError(KindNotFound, "Organization not found", err)
		}
		span.RecordError(err)
		return domain.Exercise{}, internalError(err)
	}
	if !org.CanCreateCustomExercises() {
		return domain.Exercise{}, newError(KindForbidden, msgProRequired, ErrFeatureLocked)
	}

	name := strings.TrimSpace(in.Name)
	if err := validateName("Exercise name", name); err != nil {
		return domain.Exercise{}, err
	}
	muscle := strings.TrimSpace(in.MuscleGroup)
	if muscle == "" {
		return domain.Exercise{}, newError(KindValidation, "Muscle group is required", nil)
	}

	now := s.now().UTC()
	createdBy := actor.UserID
	exercise := domain.Exercise{
		ID:             s.snowflake.Generate().Int64(),
		OrganizationID: org.ID,
		CreatedBy:      &createdBy,
		Name:           name,
		MuscleGroup:    muscle,
		Equipment:      strings.TrimSpace(in.Equipment),
		Description:    strings.TrimSpace(in.Description),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.exercises.Create(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.Exercise{}, newError(KindValidation, "An exercise with this name already exists", err)
		}
		span.RecordError(err)
		return domain.Exercise{}, internalError(err)
	}
	s.audit("exercise.created", "org_id", org.ID, "exercise_id", exercise.ID, "user_id", actor.UserID)
	return exercise, nil
}

func (s *ExerciseService) Delete(ctx context.Context, actor Actor, id int64) error {
	ctx, span := s.startSpan(ctx, "ExerciseService.Delete")
	defer span.End()

	if err := s.exercises.Delete(ctx, actor.OrganizationID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, "Exercise not found", err)
		}
		span.RecordError(err)
		return internalError(err)
	}
	s.audit("exercise.deleted", "org_id", actor.OrganizationID, "exercise_id", id, "user_id", actor.UserID)
	return nil
}
