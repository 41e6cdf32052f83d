package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the meeting recorder
type Metrics struct {
	// Audio capture metrics
	FramesReceived prometheus.Counter
	FramesDropped  prometheus.Counter
	EmptyEncodes   prometheus.Counter

	// Session metrics
	ActiveSessions     prometheus.Gauge
	SessionsLaunched   prometheus.Counter
	SessionsFinalized  prometheus.Counter
	SessionDuration    prometheus.Histogram
	FinalizeRejections prometheus.Counter

	// Pipeline metrics
	PipelineBranchFailures *prometheus.CounterVec
	PipelineDuration       prometheus.Histogram

	// Transcription metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	TranscriptionDuration  prometheus.Histogram

	// Analysis metrics
	AnalysisRequests  prometheus.Counter
	AnalysisSuccesses prometheus.Counter
	AnalysisFailures  prometheus.Counter
	AnalysisDuration  prometheus.Histogram

	// Artifact upload metrics
	UploadsSucceeded prometheus.Counter
	UploadsFailed    prometheus.Counter
	UploadDuration   prometheus.Histogram

	// Persistence metrics
	RecordsPersisted prometheus.Counter
	PersistFailures  prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics on the default
// registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics on a specific registerer. Tests use
// this with a private registry.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Audio capture metrics
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_frames_received_total",
			Help: "Total number of audio frames received from drivers",
		}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_frames_dropped_total",
			Help: "Total number of audio frames dropped after buffer close",
		}),
		EmptyEncodes: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_empty_encodes_total",
			Help: "Total number of finalizations that produced no encodable audio",
		}),

		// Session metrics
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "recorder_active_sessions",
			Help: "Current number of active recording sessions",
		}),
		SessionsLaunched: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_sessions_launched_total",
			Help: "Total number of recording sessions launched",
		}),
		SessionsFinalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_sessions_finalized_total",
			Help: "Total number of recording sessions finalized",
		}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recorder_session_duration_seconds",
			Help:    "Recording session duration in seconds",
			Buckets: []float64{30, 60, 300, 600, 1800, 3600, 7200},
		}),
		FinalizeRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_finalize_rejections_total",
			Help: "Total number of finalization signals rejected because finalization already ran",
		}),

		// Pipeline metrics
		PipelineBranchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recorder_pipeline_branch_failures_total",
			Help: "Total number of post-processing branch failures",
		}, []string{"branch"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recorder_pipeline_duration_seconds",
			Help:    "Post-processing pipeline duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}),

		// Transcription metrics
		TranscriptionRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_transcription_requests_total",
			Help: "Total number of transcription requests",
		}),
		TranscriptionSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_transcription_successes_total",
			Help: "Total number of successful transcriptions",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_transcription_failures_total",
			Help: "Total number of failed transcriptions",
		}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recorder_transcription_duration_seconds",
			Help:    "Transcription request duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120},
		}),

		// Analysis metrics
		AnalysisRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_analysis_requests_total",
			Help: "Total number of transcript analysis requests",
		}),
		AnalysisSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_analysis_successes_total",
			Help: "Total number of successful transcript analyses",
		}),
		AnalysisFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_analysis_failures_total",
			Help: "Total number of failed transcript analyses",
		}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recorder_analysis_duration_seconds",
			Help:    "Transcript analysis duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60},
		}),

		// Artifact upload metrics
		UploadsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_uploads_succeeded_total",
			Help: "Total number of successful artifact uploads",
		}),
		UploadsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_uploads_failed_total",
			Help: "Total number of failed artifact uploads",
		}),
		UploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recorder_upload_duration_seconds",
			Help:    "Artifact upload duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		}),

		// Persistence metrics
		RecordsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_records_persisted_total",
			Help: "Total number of meeting records persisted",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "recorder_persist_failures_total",
			Help: "Total number of meeting record persistence failures",
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recorder_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recorder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recorder_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordFrameReceived increments the frames received counter
func (m *Metrics) RecordFrameReceived() {
	m.FramesReceived.Inc()
}

// RecordFrameDropped increments the frames dropped counter
func (m *Metrics) RecordFrameDropped() {
	m.FramesDropped.Inc()
}

// RecordEmptyEncode increments the empty encodes counter
func (m *Metrics) RecordEmptyEncode() {
	m.EmptyEncodes.Inc()
}

// SetActiveSessions sets the current number of active sessions
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// RecordSessionLaunched increments the sessions launched counter
func (m *Metrics) RecordSessionLaunched() {
	m.SessionsLaunched.Inc()
}

// RecordSessionFinalized increments the finalized counter and records duration
func (m *Metrics) RecordSessionFinalized(durationSeconds float64) {
	m.SessionsFinalized.Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordFinalizeRejection increments the duplicate finalization counter
func (m *Metrics) RecordFinalizeRejection() {
	m.FinalizeRejections.Inc()
}

// RecordPipelineBranchFailure records a failed post-processing branch
func (m *Metrics) RecordPipelineBranchFailure(branch string) {
	m.PipelineBranchFailures.WithLabelValues(branch).Inc()
}

// RecordPipelineDuration records the total pipeline duration
func (m *Metrics) RecordPipelineDuration(durationSeconds float64) {
	m.PipelineDuration.Observe(durationSeconds)
}

// RecordTranscriptionRequest increments transcription requests counter
func (m *Metrics) RecordTranscriptionRequest() {
	m.TranscriptionRequests.Inc()
}

// RecordTranscriptionSuccess records a successful transcription
func (m *Metrics) RecordTranscriptionSuccess(durationSeconds float64) {
	m.TranscriptionSuccesses.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordTranscriptionFailure records a failed transcription
func (m *Metrics) RecordTranscriptionFailure(durationSeconds float64) {
	m.TranscriptionFailures.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordAnalysisRequest increments analysis requests counter
func (m *Metrics) RecordAnalysisRequest() {
	m.AnalysisRequests.Inc()
}

// RecordAnalysisSuccess records a successful analysis
func (m *Metrics) RecordAnalysisSuccess(durationSeconds float64) {
	m.AnalysisSuccesses.Inc()
	m.AnalysisDuration.Observe(durationSeconds)
}

// RecordAnalysisFailure records a failed analysis
func (m *Metrics) RecordAnalysisFailure(durationSeconds float64) {
	m.AnalysisFailures.Inc()
	m.AnalysisDuration.Observe(durationSeconds)
}

// RecordUploadSuccess records a successful artifact upload
func (m *Metrics) RecordUploadSuccess(durationSeconds float64) {
	m.UploadsSucceeded.Inc()
	m.UploadDuration.Observe(durationSeconds)
}

// RecordUploadFailure increments the failed uploads counter
func (m *Metrics) RecordUploadFailure() {
	m.UploadsFailed.Inc()
}

// RecordRecordPersisted increments the persisted records counter
func (m *Metrics) RecordRecordPersisted() {
	m.RecordsPersisted.Inc()
}

// RecordPersistFailure increments the persistence failures counter
func (m *Metrics) RecordPersistFailure() {
	m.PersistFailures.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
