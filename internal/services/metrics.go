package services

import (
	"sync/atomic"
	"time"

	"github.com/nexconsult/pncp-vagas/internal/models"
)

// Metrics counts query outcomes
type Metrics struct {
	total        atomic.Int64
	completed    atomic.Int64
	superseded   atomic.Int64
	failed       atomic.Int64
	cancelled    atomic.Int64
	fromSnapshot atomic.Int64
	totalMs      atomic.Int64
}

// Outcome classifies a finished query
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeSuperseded
	OutcomeFailed
	OutcomeCancelled
)

// Record adds one finished query
func (m *Metrics) Record(outcome Outcome, elapsed time.Duration, fromSnapshot bool) {
	m.total.Add(1)
	switch outcome {
	case OutcomeCompleted:
		m.completed.Add(1)
		m.totalMs.Add(elapsed.Milliseconds())
		if fromSnapshot {
			m.fromSnapshot.Add(1)
		}
	case OutcomeSuperseded:
		m.superseded.Add(1)
	case OutcomeFailed:
		m.failed.Add(1)
	case OutcomeCancelled:
		m.cancelled.Add(1)
	}
}

// Snapshot returns the current counters
func (m *Metrics) Snapshot() models.QueryMetrics {
	q := models.QueryMetrics{
		Total:        m.total.Load(),
		Completed:    m.completed.Load(),
		Superseded:   m.superseded.Load(),
		Failed:       m.failed.Load(),
		Cancelled:    m.cancelled.Load(),
		FromSnapshot: m.fromSnapshot.Load(),
	}
	if q.Completed > 0 {
		q.AvgMs = float64(m.totalMs.Load()) / float64(q.Completed)
	}
	return q
}
