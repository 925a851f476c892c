package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

// SubscriptionAction is a billing event applied to an organization.
type SubscriptionAction string

const (
	ActionUpgrade    SubscriptionAction = "upgrade"
	ActionDowngrade  SubscriptionAction = "downgrade"
	ActionCancel     SubscriptionAction = "cancel"
	ActionExpire     SubscriptionAction = "expire"
	ActionReactivate SubscriptionAction = "reactivate"
)

// SubscriptionChange is the payload sent by the billing integration.
type SubscriptionChange struct {
	Action         SubscriptionAction
	CustomerID     string
	SubscriptionID string
}

type OrganizationService struct {
	instrumentation
	orgs repository.OrganizationRepository
	now  func() time.Time
}

func NewOrganizationService(orgs repository.OrganizationRepository, logger *zap.Logger) *OrganizationService {
	return &OrganizationService{
		instrumentation: newInstrumentation(logger),
		orgs:            orgs,
		now:             time.Now,
	}
}

func (s *OrganizationService) Get(ctx context.Context, orgID int64) (domain.Organization, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Organization{}, newError(KindNotFound, "Organization not found", err)
		}
		return domain.Organization{}, internalError(err)
	}
	return org, nil
}

func (s *OrganizationService) Rename(ctx context.Context, orgID int64, name string) (domain.Organization, error) {
	ctx, span := s.startSpan(ctx, "OrganizationService.Rename")
	defer span.End()

	if err := validateName("Organization name", name); err != nil {
		return domain.Organization{}, err
	}
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return domain.Organization{}, err
	}
	org.Rename(strings.TrimSpace(name))
	if err := s.save(ctx, &org); err != nil {
		span.RecordError(err)
		return domain.Organization{}, err
	}
	return org, nil
}

// ApplySubscriptionChange moves the organization through the subscription state machine.
func (s *OrganizationService) ApplySubscriptionChange(ctx context.Context, orgID int64, change SubscriptionChange) (domain.Organization, error) {
	ctx, span := s.startSpan(ctx, "OrganizationService.ApplySubscriptionChange")
	defer span.End()

	org, err := s.Get(ctx, orgID)
	if err != nil {
		return domain.Organization{}, err
	}

	switch change.Action {
	case ActionUpgrade:
		customerID := strings.TrimSpace(change.CustomerID)
		subscriptionID := strings.TrimSpace(change.SubscriptionID)
		if customerID == "" || subscriptionID == "" {
			return domain.Organization{}, newError(KindValidation, "Upgrade requires customer_id and subscription_id", nil)
		}
		org.UpgradeToPro(customerID, subscriptionID)
	case ActionDowngrade:
		org.DowngradeToFree()
	case ActionCancel:
		org.CancelSubscription()
	case ActionExpire:
		org.ExpireSubscription()
	case ActionReactivate:
		if err := org.ReactivateSubscription(); err != nil {
			return domain.Organization{}, newError(KindValidation, "Only PRO subscriptions can be reactivated", err)
		}
	default:
		return domain.Organization{}, newError(KindValidation, "Unknown subscription action", nil)
	}

	if err := s.save(ctx, &org); err != nil {
		span.RecordError(err)
		return domain.Organization{}, err
	}
	s.audit("subscription.changed", "org_id", org.ID, "action", change.Action,
		"tier", org.SubscriptionTier, "status", org.SubscriptionStatus)
	return org, nil
}

func (s *OrganizationService) save(ctx context.Context, org *domain.Organization) error {
	org.UpdatedAt = s.now().UTC()
	if err := s.orgs.Update(ctx, *org); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, "Organization not found", err)
		}
		return internalError(err)
	}
	return nil
}
