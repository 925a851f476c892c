package domain

import "time"

// SplitType is how a program distributes muscle groups over training days.
type SplitType string

const (
	SplitUpperLower        SplitType = "UPPER_LOWER"
	SplitPushPullLegs      SplitType = "PUSH_PULL_LEGS"
	SplitFullBody          SplitType = "FULL_BODY"
	SplitBro               SplitType = "BRO_SPLIT"
	SplitAnteriorPosterior SplitType = "ANTERIOR_POSTERIOR"
	SplitCustom            SplitType = "CUSTOM"
)

func (s SplitType) Valid() bool {
	switch s {
	case SplitUpperLower, SplitPushPullLegs, SplitFullBody, SplitBro, SplitAnteriorPosterior, SplitCustom:
		return true
	}
	return false
}

// Program is a custom training program owned by an organization.
type Program struct {
	ID             int64
	OrganizationID int64
	CreatedBy      *int64
	Name           string
	Description    string
	SplitType      SplitType
	DaysPerWeek    int
	DurationWeeks  *int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
