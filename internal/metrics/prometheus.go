// Package metrics provides Prometheus metrics for the dashboard.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MacJediWizard/subdash/internal/models"
)

const namespace = "subdash"

// Metrics holds the registered collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	CustomerWrites    *prometheus.CounterVec
	PackageWrites     *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	CustomersByStatus *prometheus.GaugeVec
	RefreshDuration   *prometheus.HistogramVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		CustomerWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "customer_writes_total",
			Help:      "Customer writes by action.",
		}, []string{"action"}),
		PackageWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "package_writes_total",
			Help:      "Package writes by action.",
		}, []string{"action"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Customer status changes made by the refresh sweep, by new status.",
		}, []string{"status"}),
		CustomersByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "customers",
			Help:      "Customers by status as of the last stats computation.",
		}, []string{"status"}),
		RefreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "status_refresh_duration_seconds",
			Help:      "Duration of status refresh sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 7),
		}, []string{"trigger"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{
		m.CustomerWrites, m.PackageWrites, m.StatusTransitions, m.CustomersByStatus,
		m.RefreshDuration, m.HTTPRequests, m.HTTPDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	return m, nil
}

// RecordCustomerWrite counts a customer create, update or delete.
func (m *Metrics) RecordCustomerWrite(action string) {
	if m == nil {
		return
	}
	m.CustomerWrites.WithLabelValues(action).Inc()
}

// RecordPackageWrite counts a package create, update or delete.
func (m *Metrics) RecordPackageWrite(action string) {
	if m == nil {
		return
	}
	m.PackageWrites.WithLabelValues(action).Inc()
}

// RecordStatusTransition counts a customer moved to status by a sweep.
func (m *Metrics) RecordStatusTransition(status models.CustomerStatus) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(string(status)).Inc()
}

// SetCustomerStats publishes dashboard counts as gauges.
func (m *Metrics) SetCustomerStats(stats models.DashboardStats) {
	if m == nil {
		return
	}
	m.CustomersByStatus.WithLabelValues(string(models.CustomerStatusActive)).Set(float64(stats.ActiveCustomers))
	m.CustomersByStatus.WithLabelValues(string(models.CustomerStatusExpiringSoon)).Set(float64(stats.ExpiringSoon))
	m.CustomersByStatus.WithLabelValues(string(models.CustomerStatusExpired)).Set(float64(stats.ExpiredCustomers))
}

// ObserveRefresh records how long a sweep took.
func (m *Metrics) ObserveRefresh(trigger string, seconds float64) {
	if m == nil {
		return
	}
	m.RefreshDuration.WithLabelValues(trigger).Observe(seconds)
}

// ObserveRequest records an HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}
