package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	questionsAskedTotal     atomic.Uint64
	questionsAnsweredTotal  atomic.Uint64
	questionsFailedTotal    atomic.Uint64
	questionsTimedOutTotal  atomic.Uint64
	documentsProvisionTotal atomic.Uint64

	answerDuration = newHistogram([]float64{500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncQuestionAsked increments the asked counter.
func IncQuestionAsked() {
	questionsAskedTotal.Add(1)
}

// IncQuestionAnswered increments the answered counter.
func IncQuestionAnswered() {
	questionsAnsweredTotal.Add(1)
}

// IncQuestionFailed increments the failed counter.
func IncQuestionFailed() {
	questionsFailedTotal.Add(1)
}

// IncQuestionTimedOut increments the timeout counter.
func IncQuestionTimedOut() {
	questionsTimedOutTotal.Add(1)
}

// IncDocumentProvisioned counts first-time provider resource provisioning.
func IncDocumentProvisioned() {
	documentsProvisionTotal.Add(1)
}

// ObserveAnswerDurationMs records an end-to-end answer duration in milliseconds.
func ObserveAnswerDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	answerDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "qa_questions_asked_total", "Total questions received", questionsAskedTotal.Load())
	writeCounter(&buf, "qa_questions_answered_total", "Total questions answered", questionsAnsweredTotal.Load())
	writeCounter(&buf, "qa_questions_failed_total", "Total questions failed", questionsFailedTotal.Load())
	writeCounter(&buf, "qa_questions_timed_out_total", "Total questions timed out while polling", questionsTimedOutTotal.Load())
	writeCounter(&buf, "qa_documents_provisioned_total", "Total first-time provider provisioning runs", documentsProvisionTotal.Load())
	writeHistogram(&buf, "qa_answer_duration_ms", "Answer duration in milliseconds", answerDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
