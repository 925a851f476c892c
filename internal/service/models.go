package service

import (
	"time"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/jwt"
)

// TokenResponse is the bearer token pair returned by register, login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func newTokenResponse(pair jwt.Pair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	}
}

// UserViewModel represents user profile data returned to clients.
// Snowflake ids are rendered as strings so browsers keep full precision.
type UserViewModel struct {
	ID                  int64      `json:"id,string"`
	OrganizationID      int64      `json:"organization_id,string"`
	Email               string     `json:"email"`
	FullName            string     `json:"full_name"`
	Role                string     `json:"role"`
	IsActive            bool       `json:"is_active"`
	IsVerified          bool       `json:"is_verified"`
	ProfileImageURL     *string    `json:"profile_image_url,omitempty"`
	DeletionRequestedAt *time.Time `json:"deletion_requested_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func NewUserViewModel(u domain.User) UserViewModel {
	return UserViewModel{
		ID:                  u.ID,
		OrganizationID:      u.OrganizationID,
		Email:               u.Email,
		FullName:            u.FullName,
		Role:                string(u.Role),
		IsActive:            u.IsActive,
		IsVerified:          u.IsVerified,
		ProfileImageURL:     u.ProfileImageURL,
		DeletionRequestedAt: u.DeletionRequestedAt,
		CreatedAt:           u.CreatedAt,
	}
}

// OrganizationViewModel is an organization with its resolved feature flags.
type OrganizationViewModel struct {
	ID                 int64           `json:"id,string"`
	Name               string          `json:"name"`
	SubscriptionTier   string          `json:"subscription_tier"`
	SubscriptionStatus string          `json:"subscription_status"`
	Features           map[string]bool `json:"features"`
	CreatedAt          time.Time       `json:"created_at"`
}

func NewOrganizationViewModel(o domain.Organization) OrganizationViewModel {
	features := make(map[string]bool, len(domain.Features))
	for _, f := range domain.Features {
		features[string(f)] = o.Allows(f)
	}
	return OrganizationViewModel{
		ID:                 o.ID,
		Name:               o.Name,
		SubscriptionTier:   string(o.SubscriptionTier),
		SubscriptionStatus: string(o.SubscriptionStatus),
		Features:           features,
		CreatedAt:          o.CreatedAt,
	}
}

type ExerciseViewModel struct {
	ID          int64     `json:"id,string"`
	Name        string    `json:"name"`
	MuscleGroup string    `json:"muscle_group"`
	Equipment   string    `json:"equipment,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedBy   *int64    `json:"created_by,omitempty,string"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewExerciseViewModel(e domain.Exercise) ExerciseViewModel {
	return ExerciseViewModel{
		ID:          e.ID,
		Name:        e.Name,
		MuscleGroup: e.MuscleGroup,
		Equipment:   e.Equipment,
		Description: e.Description,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}

type ProgramViewModel struct {
	ID            int64     `json:"id,string"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	SplitType     string    `json:"split_type"`
	DaysPerWeek   int       `json:"days_per_week"`
	DurationWeeks *int      `json:"duration_weeks,omitempty"`
	CreatedBy     *int64    `json:"created_by,omitempty,string"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewProgramViewModel(p domain.Program) ProgramViewModel {
	return ProgramViewModel{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		SplitType:     string(p.SplitType),
		DaysPerWeek:   p.DaysPerWeek,
		DurationWeeks: p.DurationWeeks,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
	}
}

// DeletionScheduled is returned when an account deletion is requested.
type DeletionScheduled struct {
	RequestedAt time.Time `json:"requested_at"`
	DeletesAt   time.Time `json:"deletes_at"`
}
