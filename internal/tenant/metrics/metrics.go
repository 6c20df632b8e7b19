package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenant module.
type Metrics struct {
	TenantsCreated     prometheus.Counter
	TenantsDeactivated prometheus.Counter
	GetTenantDuration  prometheus.Histogram
}

// New creates and registers all tenant module metrics.
func New() *Metrics {
	return &Metrics{
		TenantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atrium_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		TenantsDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atrium_tenants_deactivated_total",
			Help: "Total number of tenant deactivations",
		}),
		GetTenantDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "atrium_get_tenant_duration_seconds",
			Help:    "Duration of tenant lookup operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveGetTenant records the duration of a tenant lookup. Call with
// time.Now() captured at the start of the operation.
func (m *Metrics) ObserveGetTenant(start time.Time) {
	m.GetTenantDuration.Observe(time.Since(start).Seconds())
}
