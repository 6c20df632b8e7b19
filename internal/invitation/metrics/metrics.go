package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the invitation lifecycle. Critical
// failures get their own counter because they represent security-relevant
// inconsistent states that need operator attention.
type Metrics struct {
	InvitationsIssued  prometheus.Counter
	EmailSendFailures  prometheus.Counter
	RedemptionsTotal   *prometheus.CounterVec
	RevocationsTotal   *prometheus.CounterVec
	CriticalFailures   prometheus.Counter
	RedeemDuration     prometheus.Histogram
}

// New creates and registers all invitation module metrics.
func New() *Metrics {
	return &Metrics{
		InvitationsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atrium_invitations_issued_total",
			Help: "Total number of invitations issued",
		}),
		EmailSendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atrium_invitation_email_failures_total",
			Help: "Invitation emails that failed to dispatch (issuance still succeeded)",
		}),
		RedemptionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "atrium_invitation_redemptions_total",
			Help: "Redemption attempts by outcome",
		}, []string{"outcome"}),
		RevocationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "atrium_access_revocations_total",
			Help: "Revocation attempts by outcome",
		}, []string{"outcome"}),
		CriticalFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atrium_lifecycle_critical_failures_total",
			Help: "Failures leaving a security-relevant inconsistent state",
		}),
		RedeemDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "atrium_invitation_redeem_duration_seconds",
			Help:    "Duration of redemption operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// ObserveRedeem records the duration of a redemption. Call with time.Now()
// captured at the start of the operation.
func (m *Metrics) ObserveRedeem(start time.Time) {
	m.RedeemDuration.Observe(time.Since(start).Seconds())
}
