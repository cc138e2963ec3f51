package domain

import "time"

// Reviewer is a human operator of the review dashboard.
type Reviewer struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
