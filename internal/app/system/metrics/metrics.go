// Package metrics exposes Prometheus counters for the auth and family
// workflows plus store-backed gauges.
//
// All recording methods are safe on a nil *Metrics so services can be
// built without instrumentation in tests.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	metricsstore "github.com/dalemusser/drshaadi/internal/app/store/metrics"
	"github.com/dalemusser/drshaadi/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

const namespace = "drshaadi"

// Metrics owns a private registry and the app's collectors.
type Metrics struct {
	registry *prometheus.Registry

	otpSent      *prometheus.CounterVec
	otpVerify    *prometheus.CounterVec
	authEvents   *prometheus.CounterVec
	familyEvents *prometheus.CounterVec
	reqDuration  *prometheus.HistogramVec
}

// New registers the app collectors plus Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		otpSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_sent_total",
			Help:      "OTP send requests by delivery result.",
		}, []string{"result"}),
		otpVerify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_verify_total",
			Help:      "OTP verification attempts by outcome.",
		}, []string{"result"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Registrations and logins by outcome.",
		}, []string{"event", "result"}),
		familyEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "family_events_total",
			Help:      "Family membership changes by event.",
		}, []string{"event"}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.otpSent,
		m.otpVerify,
		m.authEvents,
		m.familyEvents,
		m.reqDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// OTPSent records a send; result is "sent" or "sms_failed".
func (m *Metrics) OTPSent(result string) {
	if m == nil {
		return
	}
	m.otpSent.WithLabelValues(result).Inc()
}

// OTPVerified records a verification outcome.
func (m *Metrics) OTPVerified(result string) {
	if m == nil {
		return
	}
	m.otpVerify.WithLabelValues(result).Inc()
}

// AuthEvent records a register or login outcome.
func (m *Metrics) AuthEvent(event, result string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(event, result).Inc()
}

// FamilyEvent records a family create, join, leave or request change.
func (m *Metrics) FamilyEvent(event string) {
	if m == nil {
		return
	}
	m.familyEvents.WithLabelValues(event).Inc()
}

// Middleware observes request latency labelled with the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.reqDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// RegisterStoreGauges adds gauges read from the database on each scrape.
func (m *Metrics) RegisterStoreGauges(db *mongo.Database) error {
	return m.registry.Register(&storeCollector{db: db})
}

type storeCollector struct {
	db *mongo.Database
}

var (
	descActiveUsers = prometheus.NewDesc(namespace+"_users_active", "Active users.", nil, nil)
	descVerified    = prometheus.NewDesc(namespace+"_users_mobile_verified", "Active users with a verified mobile number.", nil, nil)
	descFamilies    = prometheus.NewDesc(namespace+"_families", "Active families.", nil, nil)
	descPendingReqs = prometheus.NewDesc(namespace+"_join_requests_pending", "Join requests awaiting a decision.", nil, nil)
	descPendingOTPs = prometheus.NewDesc(namespace+"_otps_pending", "Unverified, unexpired OTP records.", nil, nil)
)

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descActiveUsers
	ch <- descVerified
	ch <- descFamilies
	ch <- descPendingReqs
	ch <- descPendingOTPs
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	defer cancel()

	counts := metricsstore.FetchCounts(ctx, c.db)
	ch <- prometheus.MustNewConstMetric(descActiveUsers, prometheus.GaugeValue, float64(counts.ActiveUsers))
	ch <- prometheus.MustNewConstMetric(descVerified, prometheus.GaugeValue, float64(counts.VerifiedUsers))
	ch <- prometheus.MustNewConstMetric(descFamilies, prometheus.GaugeValue, float64(counts.Families))
	ch <- prometheus.MustNewConstMetric(descPendingReqs, prometheus.GaugeValue, float64(counts.PendingJoinRequests))
	ch <- prometheus.MustNewConstMetric(descPendingOTPs, prometheus.GaugeValue, float64(counts.PendingOTPs))
}
