// Package model defines the core data types shared across the pipelines.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Company is one tracked public company.
type Company struct {
	ID       uuid.UUID `json:"id"`
	Ticker   string    `json:"ticker"`
	Name     string    `json:"name"`
	Sector   string    `json:"sector,omitempty"`
	Industry string    `json:"industry,omitempty"`
	AddedAt  time.Time `json:"added_at"`
}

// NewCompany creates a Company with a fresh ID.
func NewCompany(ticker, name string) Company {
	return Company{
		ID:      uuid.New(),
		Ticker:  ticker,
		Name:    name,
		AddedAt: time.Now().UTC(),
	}
}
