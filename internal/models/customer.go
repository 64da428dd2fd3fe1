package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerStatus is the subscription state derived from a customer's end date.
type CustomerStatus string

const (
	// CustomerStatusActive has more than a week remaining.
	CustomerStatusActive CustomerStatus = "active"
	// CustomerStatusExpiringSoon ends within the next seven days.
	CustomerStatusExpiringSoon CustomerStatus = "expiring-soon"
	// CustomerStatusExpired ended before today.
	CustomerStatusExpired CustomerStatus = "expired"
)

// Valid reports whether s is a known status.
func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerStatusActive, CustomerStatusExpiringSoon, CustomerStatusExpired:
		return true
	}
	return false
}

// Customer is a subscriber enrolled in a package.
type Customer struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone"`
	ServiceType string         `json:"serviceType"`
	PackageID   string         `json:"packageId"`
	StartDate   Timestamp      `json:"startDate"`
	EndDate     Timestamp      `json:"endDate"`
	Status      CustomerStatus `json:"status"`
	AutoRenew   bool           `json:"autoRenew"`
	Notes       string         `json:"notes,omitempty"`
	CreatedAt   Timestamp      `json:"createdAt"`
	UpdatedAt   Timestamp      `json:"updatedAt"`
}

// NewCustomer creates a Customer from form data with a generated ID. The
// schedule fields are left for the caller to compute.
func NewCustomer(form CustomerForm, now time.Time) *Customer {
	ts := NewTimestamp(now)
	c := &Customer{
		ID:        uuid.New().String(),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	form.applyTo(c)
	return c
}

// CustomerForm is the request body for creating or editing a customer.
// StartDate is a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
type CustomerForm struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Email       string `json:"email" binding:"omitempty,max=254"`
	Phone       string `json:"phone" binding:"omitempty,max=50"`
	ServiceType string `json:"serviceType" binding:"omitempty,max=100"`
	PackageID   string `json:"packageId" binding:"required"`
	StartDate   string `json:"startDate" binding:"required"`
	AutoRenew   bool   `json:"autoRenew"`
	Notes       string `json:"notes,omitempty" binding:"omitempty,max=2000"`
}

func (f CustomerForm) applyTo(c *Customer) {
	c.Name = f.Name
	c.Email = f.Email
	c.Phone = f.Phone
	c.ServiceType = f.ServiceType
	c.PackageID = f.PackageID
	c.AutoRenew = f.AutoRenew
	c.Notes = f.Notes
}

// ApplyDetails copies the descriptive form fields onto c, leaving the
// schedule fields untouched.
func (f CustomerForm) ApplyDetails(c *Customer) {
	f.applyTo(c)
}
