package models

// DashboardStats summarizes customers by status.
type DashboardStats struct {
	TotalCustomers   int `json:"totalCustomers"`
	ActiveCustomers  int `json:"activeCustomers"`
	ExpiredCustomers int `json:"expiredCustomers"`
	ExpiringSoon     int `json:"expiringSoon"`
}
