package org

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

// ErrOrganizationNotFound is returned when the caller's organization no longer exists.
var ErrOrganizationNotFound = errors.New("organization not found")

// Context stores the resolved organization used throughout the request lifecycle.
type Context struct {
	Organization domain.Organization
	Features     map[domain.Feature]bool
}

// Allows reports whether the organization may use f right now.
func (c *Context) Allows(f domain.Feature) bool {
	if c == nil {
		return false
	}
	return c.Features[f]
}

// Resolver loads organization metadata from repositories.
type Resolver struct {
	repo repository.OrganizationRepository
}

// NewResolver creates an org resolver.
func NewResolver(repo repository.OrganizationRepository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve loads the organization identified by the access token and evaluates its features.
func (r *Resolver) Resolve(ctx context.Context, orgID int64) (*Context, error) {
	if orgID <= 0 {
		zap.L().Warn("org resolver received empty organization id")
		return nil, fmt.Errorf("resolve org: %w", ErrOrganizationNotFound)
	}

	orgRow, err := r.repo.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("resolve org %d: %w", orgID, ErrOrganizationNotFound)
		}
		zap.L().Error("failed to resolve org", zap.Int64("org_id", orgID), zap.Error(err))
		return nil, fmt.Errorf("resolve org: %w", err)
	}

	features := make(map[domain.Feature]bool, len(domain.Features))
	for _, f := range domain.Features {
		features[f] = orgRow.Allows(f)
	}

	zap.L().Debug("org context resolved",
		zap.Int64("org_id", orgRow.ID),
		zap.String("tier", string(orgRow.SubscriptionTier)),
		zap.String("status", string(orgRow.SubscriptionStatus)))

	return &Context{Organization: orgRow, Features: features}, nil
}
