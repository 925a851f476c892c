package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

type ProgramInput struct {
	Name          string
	Description   string
	SplitType     string
	DaysPerWeek   int
	DurationWeeks *int
}

// ProgramService manages organization-owned training programs.
type ProgramService struct {
	instrumentation
	programs  repository.ProgramRepository
	orgs      repository.OrganizationRepository
	snowflake *snowflake.Node
	now       func() time.Time
}

func NewProgramService(programs repository.ProgramRepository, orgs repository.OrganizationRepository, node *snowflake.Node, logger *zap.Logger) *ProgramService {
	return &ProgramService{
		instrumentation: newInstrumentation(logger),
		programs:        programs,
		orgs:            orgs,
		snowflake:       node,
		now:             time.Now,
	}
}

func (s *ProgramService) List(ctx context.Context, orgID int64) ([]domain.Program, error) {
	items, err := s.programs.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, internalError(err)
	}
	return items, nil
}

func (s *ProgramService) Get(ctx context.Context, actor Actor, id int64) (domain.Program, error) {
	p, err := s.programs.GetByID(ctx, actor.OrganizationID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Program{}, newError(KindNotFound, "Program not found", err)
		}
		return domain.Program{}, internalError(err)
	}
	return p, nil
}

// Create adds a program. Only organizations on an active PRO plan may create them.
func (s *ProgramService) Create(ctx context.Context, actor Actor, in ProgramInput) (domain.Program, error) {
	ctx, span := s.startSpan(ctx, "ProgramService.Create")
	defer span.End()

	org, err := s.orgs.GetByID(ctx, actor.OrganizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Program{}, newError(KindNotFound, "Organization not found", err)
		}
		span.RecordError(err)
		return domain.Program{}, internalError(err)
	}
	if !org.CanCreatePrograms() {
		return domain.Program{}, newError(KindForbidden, msgProRequired, ErrFeatureLocked)
	}

	name := strings.TrimSpace(in.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 200 {
		return domain.Program{}, newError(KindValidation, "Program name must be between 2 and 200 characters", nil)
	}
	split := domain.SplitType(strings.ToUpper(strings.TrimSpace(in.SplitType)))
	if !split.Valid() {
		return domain.Program{}, newError(KindValidation, "Unknown split type", nil)
	}
	if in.DaysPerWeek < 1 || in.DaysPerWeek > 7 {
		return domain.Program{}, newError(KindValidation, "Days per week must be between 1 and 7", nil)
	}
	if in.DurationWeeks != nil && (*in.DurationWeeks < 1 || *in.DurationWeeks > 52) {
		return domain.Program{}, newError(KindValidation, "Duration must be between 1 and 52 weeks", nil)
	}

	now := s.now().UTC()
	createdBy := actor.UserID
	program := domain.Program{
		ID:             s.snowflake.Generate().Int64(),
		OrganizationID: org.ID,
		CreatedBy:      &createdBy,
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		SplitType:      split,
		DaysPerWeek:    in.DaysPerWeek,
		DurationWeeks:  in.DurationWeeks,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.programs.Create(ctx, program); err != nil {
		span.RecordError(err)
		return domain.Program{}, internalError(err)
	}
	s.audit("program.created", "org_id", org.ID, "program_id", program.ID, "user_id", actor.UserID)
	return program, nil
}

func (s *ProgramService) Delete(ctx context.Context, actor Actor, id int64) error {
	ctx, span := s.startSpan(ctx, "ProgramService.Delete")
	defer span.End()

	if err := s.programs.Delete(ctx, actor.OrganizationID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, "Program not found", err)
		}
		span.RecordError(err)
		return internalError(err)
	}
	s.audit("program.deleted", "org_id", actor.OrganizationID, "program_id", id, "user_id", actor.UserID)
	return nil
}
