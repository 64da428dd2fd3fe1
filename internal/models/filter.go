package models

// StatusFilterAll disables status filtering.
const StatusFilterAll = "all"

// SortField names a customer attribute the list can be ordered by.
type SortField string

const (
	SortByName      SortField = "name"
	SortByEmail     SortField = "email"
	SortByStartDate SortField = "startDate"
	SortByEndDate   SortField = "endDate"
	SortByStatus    SortField = "status"
)

// Valid reports whether f is a sortable field.
func (f SortField) Valid() bool {
	switch f {
	case SortByName, SortByEmail, SortByStartDate, SortByEndDate, SortByStatus:
		return true
	}
	return false
}

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// CustomerFilter narrows and orders a customer list. Empty fields mean no
// constraint.
type CustomerFilter struct {
	Status    string        `form:"status"`
	PackageID string        `form:"package_id"`
	Search    string        `form:"search"`
	Sort      SortField     `form:"sort"`
	Direction SortDirection `form:"direction"`
}
