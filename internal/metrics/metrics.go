// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from file2ddl runs.
//
// The package is intentionally minimal:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - A Recorder binds a Backend to a job label and is handed to the pipeline
//     explicitly; a nil Recorder or nil Backend records nothing.
//   - Concrete metric systems live in subpackages (prompush, datadog).
package metrics

import "time"

// Metric names emitted by Recorder.
const (
	StepTotal           = "file2ddl_step_total"
	StepDurationSeconds = "file2ddl_step_duration_seconds"
	RecordsTotal        = "file2ddl_records_total"
)

// Record kinds passed to RecordRows.
const (
	KindProcessed = "processed"
	KindBad       = "bad"
	KindNull      = "null"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used when no backend is configured so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

// Nop returns a Backend that discards everything.
func Nop() Backend { return nopBackend{} }

// Recorder records file2ddl metrics for one job.
type Recorder struct {
	backend Backend
	job     string
}

// NewRecorder binds b to job. A nil b records nothing; an empty job becomes
// "file2ddl".
func NewRecorder(b Backend, job string) *Recorder {
	if b == nil {
		b = Nop()
	}
	if job == "" {
		job = "file2ddl"
	}
	return &Recorder{backend: b, job: job}
}

func (r *Recorder) get() *Recorder {
	if r == nil {
		return &Recorder{backend: Nop(), job: "file2ddl"}
	}
	return r
}

// RecordStep counts one execution of step with its outcome and duration.
func (r *Recorder) RecordStep(step string, err error, d time.Duration) {
	r = r.get()
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    r.job,
		"step":   step,
		"status": status,
	}

	r.backend.IncCounter(StepTotal, 1, lbls)
	r.backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRows increments the record counter for kind. Non-positive deltas are
// ignored.
func (r *Recorder) RecordRows(kind string, delta int64) {
	if delta <= 0 {
		return
	}
	r = r.get()
	r.backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  r.job,
		"kind": kind,
	})
}

// Flush delegates to the backend.
func (r *Recorder) Flush() error {
	return r.get().backend.Flush()
}
