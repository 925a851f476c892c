package domain

import (
	"errors"
	"time"
)

// SubscriptionTier is the plan an organization pays for.
type SubscriptionTier string

const (
	TierFree SubscriptionTier = "FREE"
	TierPro  SubscriptionTier = "PRO"
)

// SubscriptionStatus is the billing state of the current tier.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "ACTIVE"
	StatusCanceled SubscriptionStatus = "CANCELED"
	StatusExpired  SubscriptionStatus = "EXPIRED"
)

// Feature names a premium capability gated by the subscription.
type Feature string

const (
	FeatureCustomExercises    Feature = "custom_exercises"
	FeatureCustomPrograms     Feature = "custom_programs"
	FeatureUnlimitedAIQueries Feature = "unlimited_ai_queries"
)

// Features lists every gated capability.
var Features = []Feature{FeatureCustomExercises, FeatureCustomPrograms, FeatureUnlimitedAIQueries}

// ErrNotPro is returned when a PRO-only transition is attempted on a FREE organization.
var ErrNotPro = errors.New("organization is not on the PRO tier")

// Organization owns users and their content and carries the subscription.
type Organization struct {
	ID                    int64
	Name                  string
	SubscriptionTier      SubscriptionTier
	SubscriptionStatus    SubscriptionStatus
	BillingCustomerID     *string
	BillingSubscriptionID *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewOrganization returns a FREE, ACTIVE organization.
func NewOrganization(id int64, name string, now time.Time) Organization {
	return Organization{
		ID:                 id,
		Name:               name,
		SubscriptionTier:   TierFree,
		SubscriptionStatus: StatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (o Organization) IsPro() bool {
	return o.SubscriptionTier == TierPro
}

func (o Organization) IsFree() bool {
	return o.SubscriptionTier == TierFree
}

func (o Organization) IsSubscriptionActive() bool {
	return o.SubscriptionStatus == StatusActive
}

func (o Organization) CanCreateCustomExercises() bool {
	return o.premium()
}

func (o Organization) CanCreatePrograms() bool {
	return o.premium()
}

func (o Organization) HasUnlimitedAIQueries() bool {
	return o.premium()
}

func (o Organization) premium() bool {
	return o.IsPro() && o.IsSubscriptionActive()
}

// Allows answers a feature check by name.
func (o Organization) Allows(f Feature) bool {
	switch f {
	case FeatureCustomExercises:
		return o.CanCreateCustomExercises()
	case FeatureCustomPrograms:
		return o.CanCreatePrograms()
	case FeatureUnlimitedAIQueries:
		return o.HasUnlimitedAIQueries()
	default:
		return false
	}
}

// Rename changes the display name.
func (o *Organization) Rename(name string) {
	o.Name = name
}

// UpgradeToPro moves the organization to an active PRO subscription and
// records the billing references of that subscription. An empty id is stored as nil.
func (o *Organization) UpgradeToPro(customerID, subscriptionID string) {
	o.SubscriptionTier = TierPro
	o.SubscriptionStatus = StatusActive
	o.BillingCustomerID = optionalString(customerID)
	o.BillingSubscriptionID = optionalString(subscriptionID)
}

// DowngradeToFree returns to an active FREE tier.
// Billing references are kept as history.
func (o *Organization) DowngradeToFree() {
	o.SubscriptionTier = TierFree
	o.SubscriptionStatus = StatusActive
}

// CancelSubscription keeps the tier but marks the subscription canceled.
func (o *Organization) CancelSubscription() {
	o.SubscriptionStatus = StatusCanceled
}

// ExpireSubscription marks the subscription expired and falls back to FREE.
func (o *Organization) ExpireSubscription() {
	o.SubscriptionStatus = StatusExpired
	o.SubscriptionTier = TierFree
}

// ReactivateSubscription restores a canceled PRO subscription.
func (o *Organization) ReactivateSubscription() error {
	if !o.IsPro() {
		return ErrNotPro
	}
	o.SubscriptionStatus = StatusActive
	return nil
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
