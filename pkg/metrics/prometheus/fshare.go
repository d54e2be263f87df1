package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/fshare/pkg/metrics"
)

func init() {
	metrics.RegisterFShareMetricsConstructor(func() metrics.FShareMetrics {
		return newFShareMetrics(metrics.GetRegistry())
	})
}

// fshareMetrics is the Prometheus implementation of metrics.FShareMetrics.
type fshareMetrics struct {
	sessionsAccepted    prometheus.Counter
	sessionsRejected    prometheus.Counter
	sessionsForceClosed prometheus.Counter
	sessionDuration     prometheus.Histogram
	activeSessions      prometheus.Gauge

	messagesTotal   *prometheus.CounterVec
	messageDuration *prometheus.HistogramVec

	authFailures     prometheus.Counter
	authLockouts     prometheus.Counter
	bytesTransferred *prometheus.CounterVec
	uploads          *prometheus.CounterVec
	frameErrors      *prometheus.CounterVec
}

func newFShareMetrics(reg prometheus.Registerer) *fshareMetrics {
	factory := promauto.With(reg)

	return &fshareMetrics{
		sessionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fshare_sessions_accepted_total",
			Help: "Total number of sessions admitted by the server",
		}),
		sessionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "fshare_sessions_rejected_total",
			Help: "Total number of connections closed because the session limit was reached",
		}),
		sessionsForceClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "fshare_sessions_force_closed_total",
			Help: "Total number of sessions force-closed after the shutdown timeout",
		}),
		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "fshare_session_duration_seconds",
			Help: "Lifetime of client sessions in seconds",
			Buckets: []float64{
				0.1, // failed handshakes
				1,
				10,
				60,
				300, // default idle timeout
				900,
				3600,
			},
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fshare_active_sessions",
			Help: "Current number of live sessions",
		}),
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fshare_messages_total",
			Help: "Total number of handled messages by type and reply status",
		}, []string{"type", "status"}),
		messageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "fshare_message_duration_milliseconds",
			Help: "Time spent handling a single message in milliseconds",
			Buckets: []float64{
				0.1,  // upload data chunks
				1,    // listings
				10,   // small downloads
				100,  // medium downloads
				1000, // large downloads
				10000,
			},
		}, []string{"type"}),
		authFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "fshare_auth_failures_total",
			Help: "Total number of rejected passwords",
		}),
		authLockouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "fshare_auth_lockouts_total",
			Help: "Total number of sessions closed after too many failed passwords",
		}),
		bytesTransferred: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fshare_bytes_transferred_total",
			Help: "Total file content bytes moved by direction",
		}, []string{"direction"}),
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fshare_uploads_total",
			Help: "Total number of finished uploads by outcome",
		}, []string{"outcome"}),
		frameErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fshare_frame_errors_total",
			Help: "Total number of frames rejected before dispatch by reason",
		}, []string{"reason"}),
	}
}

func (m *fshareMetrics) RecordSessionAccepted() {
	m.sessionsAccepted.Inc()
}

func (m *fshareMetrics) RecordSessionRejected() {
	m.sessionsRejected.Inc()
}

func (m *fshareMetrics) RecordSessionClosed(duration time.Duration) {
	m.sessionDuration.Observe(duration.Seconds())
}

func (m *fshareMetrics) RecordSessionForceClosed() {
	m.sessionsForceClosed.Inc()
}

func (m *fshareMetrics) SetActiveSessions(count int) {
	m.activeSessions.Set(float64(count))
}

func (m *fshareMetrics) RecordMessage(msgType string, status string, duration time.Duration) {
	m.messagesTotal.WithLabelValues(msgType, status).Inc()
	m.messageDuration.WithLabelValues(msgType).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *fshareMetrics) RecordAuthFailure(lockout bool) {
	m.authFailures.Inc()
	if lockout {
		m.authLockouts.Inc()
	}
}

func (m *fshareMetrics) RecordBytesTransferred(direction string, bytes uint64) {
	m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
}

func (m *fshareMetrics) RecordUpload(outcome string) {
	m.uploads.WithLabelValues(outcome).Inc()
}

func (m *fshareMetrics) RecordFrameError(reason string) {
	m.frameErrors.WithLabelValues(reason).Inc()
}
