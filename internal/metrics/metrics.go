// Package metrics collects and exposes Prometheus metrics for the
// authentication flow and the log hub.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and updates porchlight's metric series.
type Collector struct {
	authRequests     *prometheus.CounterVec
	tokensIssued     prometheus.Counter
	tokenRedemptions *prometheus.CounterVec
	sessionsCreated  prometheus.Counter
	swept            *prometheus.CounterVec
	logEvents        prometheus.Counter
	logSubscribers   prometheus.Gauge
}

// NewCollector creates a Collector and registers its series on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "porchlight_auth_requests_total",
			Help: "Magic-link requests by outcome (sent, rejected, invalid).",
		}, []string{"outcome"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "porchlight_tokens_issued_total",
			Help: "Magic-link tokens issued.",
		}),
		tokenRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "porchlight_token_redemptions_total",
			Help: "Token redemption attempts by outcome (ok, failed).",
		}, []string{"outcome"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "porchlight_sessions_created_total",
			Help: "Sessions created.",
		}),
		swept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "porchlight_swept_total",
			Help: "Expired rows removed by the sweeper, by kind (token, session).",
		}, []string{"kind"}),
		logEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "porchlight_log_events_total",
			Help: "Events published to the log hub.",
		}),
		logSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "porchlight_log_subscribers",
			Help: "Currently attached log stream subscribers.",
		}),
	}

	reg.MustRegister(
		c.authRequests,
		c.tokensIssued,
		c.tokenRedemptions,
		c.sessionsCreated,
		c.swept,
		c.logEvents,
		c.logSubscribers,
	)
	return c
}

func (c *Collector) RecordAuthRequest(outcome string) {
	c.authRequests.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordTokenIssued() {
	c.tokensIssued.Inc()
}

func (c *Collector) RecordRedemption(ok bool) {
	outcome := "failed"
	if ok {
		outcome = "ok"
	}
	c.tokenRedemptions.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordSessionCreated() {
	c.sessionsCreated.Inc()
}

func (c *Collector) RecordSwept(tokens, sessions int) {
	if tokens > 0 {
		c.swept.WithLabelValues("token").Add(float64(tokens))
	}
	if sessions > 0 {
		c.swept.WithLabelValues("session").Add(float64(sessions))
	}
}

func (c *Collector) RecordLogEvent() {
	c.logEvents.Inc()
}

func (c *Collector) SetLogSubscribers(n int) {
	c.logSubscribers.Set(float64(n))
}

// Handler returns the HTTP handler serving the given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
