package metrics

import "time"

// Directions reported by RecordBytesTransferred.
const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// Upload outcomes reported by RecordUpload.
const (
	UploadCommitted = "committed"
	UploadAborted   = "aborted"
	UploadOverflow  = "overflow"
	UploadFailed    = "failed"
)

// FShareMetrics provides observability for the file-transfer server.
//
// The session lifecycle methods match adapter.MetricsRecorder so an
// FShareMetrics can be handed straight to the accept loop. Pass nil to
// disable collection.
type FShareMetrics interface {
	RecordSessionAccepted()
	RecordSessionRejected()
	RecordSessionClosed(duration time.Duration)
	RecordSessionForceClosed()
	SetActiveSessions(count int)

	// RecordMessage records one handled inbound message. status is the wire
	// status name of the reply, or "OK" when no error was sent.
	RecordMessage(msgType string, status string, duration time.Duration)

	// RecordAuthFailure records a rejected password. lockout is true when
	// the failure closed the session.
	RecordAuthFailure(lockout bool)

	// RecordBytesTransferred records file content moved in either direction.
	RecordBytesTransferred(direction string, bytes uint64)

	// RecordUpload records how an upload ended.
	RecordUpload(outcome string)

	// RecordFrameError records a frame rejected before dispatch
	// (bad magic, unsupported version, oversized).
	RecordFrameError(reason string)
}

// NewFShareMetrics returns the Prometheus-backed FShareMetrics, or nil if
// InitRegistry has not been called.
//
// Example usage:
//
//	metrics.InitRegistry()
//	m := metrics.NewFShareMetrics()
//	srv, err := fshare.New(cfg, store, cred, m)
func NewFShareMetrics() FShareMetrics {
	if !IsEnabled() || newPrometheusFShareMetrics == nil {
		return nil
	}
	return newPrometheusFShareMetrics()
}

// newPrometheusFShareMetrics is set by pkg/metrics/prometheus during package
// initialization, which keeps this package free of the implementation import.
var newPrometheusFShareMetrics func() FShareMetrics

// RegisterFShareMetricsConstructor registers the Prometheus constructor.
func RegisterFShareMetricsConstructor(constructor func() FShareMetrics) {
	newPrometheusFShareMetrics = constructor
}
