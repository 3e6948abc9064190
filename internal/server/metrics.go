package server

import (
	"encoding/json"
	"net/http"
	"sync"
)

// Metrics holds in-process application counters. They reset on restart;
// the /metrics endpoint serves a JSON snapshot.
type Metrics struct {
	mu sync.RWMutex

	uploadsTotal      int64
	uploadErrorsTotal int64

	downloadsTotal      int64
	downloadErrorsTotal int64

	passwordPromptsTotal    int64
	passwordRejectionsTotal int64

	requestsTotal    int64
	requestErrors4xx int64
	requestErrors5xx int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordUpload records a successful upload
func (m *Metrics) RecordUpload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsTotal++
}

// RecordUploadError records an upload failure
func (m *Metrics) RecordUploadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErrorsTotal++
}

// RecordDownload records a successfully served file
func (m *Metrics) RecordDownload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadsTotal++
}

// RecordDownloadError records a failed blob read
func (m *Metrics) RecordDownloadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadErrorsTotal++
}

// RecordPasswordPrompt records a rendered password page
func (m *Metrics) RecordPasswordPrompt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwordPromptsTotal++
}

// RecordPasswordRejection records a failed password attempt
func (m *Metrics) RecordPasswordRejection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwordRejectionsTotal++
}

// RecordRequest records an HTTP request by status class
func (m *Metrics) RecordRequest(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++

	if statusCode >= 500 {
		m.requestErrors5xx++
	} else if statusCode >= 400 {
		m.requestErrors4xx++
	}
}

// Snapshot returns a point-in-time copy of the counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		UploadsTotal:            m.uploadsTotal,
		UploadErrorsTotal:       m.uploadErrorsTotal,
		DownloadsTotal:          m.downloadsTotal,
		DownloadErrorsTotal:     m.downloadErrorsTotal,
		PasswordPromptsTotal:    m.passwordPromptsTotal,
		PasswordRejectionsTotal: m.passwordRejectionsTotal,
		RequestsTotal:           m.requestsTotal,
		RequestErrors4xx:        m.requestErrors4xx,
		RequestErrors5xx:        m.requestErrors5xx,
	}
}

// MetricsSnapshot is the JSON shape served by /metrics
type MetricsSnapshot struct {
	UploadsTotal      int64 `json:"uploads_total"`
	UploadErrorsTotal int64 `json:"upload_errors_total"`

	DownloadsTotal      int64 `json:"downloads_total"`
	DownloadErrorsTotal int64 `json:"download_errors_total"`

	PasswordPromptsTotal    int64 `json:"password_prompts_total"`
	PasswordRejectionsTotal int64 `json:"password_rejections_total"`

	RequestsTotal    int64 `json:"requests_total"`
	RequestErrors4xx int64 `json:"request_errors_4xx"`
	RequestErrors5xx int64 `json:"request_errors_5xx"`
}

// handleMetrics serves the current counter snapshot as JSON.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(GetMetrics().Snapshot())
}
