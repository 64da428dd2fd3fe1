package models

import (
	"time"

	"github.com/google/uuid"
)

// DurationType is the unit a package duration is expressed in.
type DurationType string

const (
	// DurationDay is one calendar day.
	DurationDay DurationType = "day"
	// DurationWeek is seven days.
	DurationWeek DurationType = "week"
	// DurationMonth is a fixed thirty days, not a calendar month.
	DurationMonth DurationType = "month"
	// DurationYear is a fixed 365 days.
	DurationYear DurationType = "year"
)

// ValidDurationTypes lists the accepted duration units.
func ValidDurationTypes() []DurationType {
	return []DurationType{DurationDay, DurationWeek, DurationMonth, DurationYear}
}

// Valid reports whether d is a known duration unit.
func (d DurationType) Valid() bool {
	switch d {
	case DurationDay, DurationWeek, DurationMonth, DurationYear:
		return true
	}
	return false
}

// Package is a subscription product customers are enrolled in.
type Package struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Duration     int          `json:"duration"`
	DurationType DurationType `json:"durationType"`
	IsDefault    bool         `json:"isDefault"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	CreatedAt    Timestamp    `json:"createdAt"`
	UpdatedAt    Timestamp    `json:"updatedAt"`
}

// NewPackage creates a new non-default Package with a generated ID.
func NewPackage(name string, duration int, durationType DurationType, imageURL string, now time.Time) *Package {
	ts := NewTimestamp(now)
	return &Package{
		ID:           uuid.New().String(),
		Name:         name,
		Duration:     duration,
		DurationType: durationType,
		ImageURL:     imageURL,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

// PackageForm is the request body for creating a package.
type PackageForm struct {
	Name         string       `json:"name" binding:"required,min=1,max=100"`
	Duration     int          `json:"duration" binding:"required"`
	DurationType DurationType `json:"durationType" binding:"required"`
	ImageURL     string       `json:"imageUrl,omitempty"`
}

// PackageUpdate is the request body for a partial package update.
type PackageUpdate struct {
	Name         *string       `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Duration     *int          `json:"duration,omitempty"`
	DurationType *DurationType `json:"durationType,omitempty"`
	ImageURL     *string       `json:"imageUrl,omitempty"`
}

// Apply merges the set fields of u into p.
func (u PackageUpdate) Apply(p *Package) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Duration != nil {
		p.Duration = *u.Duration
	}
	if u.DurationType != nil {
		p.DurationType = *u.DurationType
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
}

// DefaultPackages returns the catalog seeded into an empty store.
func DefaultPackages(now time.Time) []*Package {
	defs := []struct {
		name     string
		duration int
		unit     DurationType
	}{
		{"1 Day", 1, DurationDay},
		{"7 Days", 7, DurationDay},
		{"1 Week", 1, DurationWeek},
		{"1 Month", 1, DurationMonth},
		{"3 Months", 3, DurationMonth},
		{"1 Year", 1, DurationYear},
	}
	pkgs := make([]*Package, 0, len(defs))
	for _, d := range defs {
		p := NewPackage(d.name, d.duration, d.unit, "", now)
		p.IsDefault = true
		pkgs = append(pkgs, p)
	}
	return pkgs
}
