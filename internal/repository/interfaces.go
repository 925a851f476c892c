package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

// OrganizationRepository exposes organization persistence.
type OrganizationRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Organization, error)
	Update(ctx context.Context, org domain.Organization) error
}

// UserRepository exposes persistence for platform users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListByOrganization(ctx context.Context, orgID int64) ([]domain.User, error)
	ListDeletionDue(ctx context.Context, requestedBefore time.Time) ([]domain.User, error)
	Update(ctx context.Context, user domain.User) error
}

// AccountRepository handles writes that span a user and its organization.
type AccountRepository interface {
	// CreateAccount inserts org and user in one transaction.
	CreateAccount(ctx context.Context, org domain.Organization, user domain.User) error
	// DeleteAccount removes the user and, when it was the last member, its organization.
	DeleteAccount(ctx context.Context, userID int64) (orgDeleted bool, err error)
}

// ExerciseRepository stores organization-owned exercises.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise domain.Exercise) error
	GetByID(ctx context.Context, orgID, id int64) (domain.Exercise, error)
	ListByOrganization(ctx context.Context, orgID int64) ([]domain.Exercise, error)
	Delete(ctx context.Context, orgID, id int64) error
}

// ProgramRepository stores organization-owned training programs.
type ProgramRepository interface {
	Create(ctx context.Context, program domain.Program) error
	GetByID(ctx context.Context, orgID, id int64) (domain.Program, error)
	ListByOrganization(ctx context.Context, orgID int64) ([]domain.Program, error)
	Delete(ctx context.Context, orgID, id int64) error
}

// TokenStore keeps single-use email tokens in a shared key-value store.
type TokenStore interface {
	Save(ctx context.Context, token domain.EphemeralToken) error
	// Consume atomically fetches and removes the token. It returns nil, nil when absent.
	Consume(ctx context.Context, kind domain.TokenKind, token string) (*domain.EphemeralToken, error)
	// RevokeUser removes every outstanding token of kind issued to userID.
	RevokeUser(ctx context.Context, kind domain.TokenKind, userID int64) (int, error)
}
