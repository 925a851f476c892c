package domain

import "time"

// Exercise is a custom movement owned by an organization.
type Exercise struct {
	ID             int64
	OrganizationID int64
	CreatedBy      *int64
	Name           string
	MuscleGroup    string
	Equipment      string
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
