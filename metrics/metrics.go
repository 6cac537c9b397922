//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package metrics implements prometheus metrics of the AuthDecode
// protocol phases.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Roles.
const (
	RoleProver   = "prover"
	RoleVerifier = "verifier"
)

// Phase results.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultRejected = "rejected"
)

// Metrics holds the phase duration and outcome metrics. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	PhaseDuration *prometheus.HistogramVec
	PhaseTotal    *prometheus.CounterVec
}

// New creates the metrics in the namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Duration of protocol phases",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"role", "phase"},
		),
		PhaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "phase_total",
				Help:      "Number of protocol phases by result",
			},
			[]string{"role", "phase", "result"},
		),
	}
}

// Register registers the metrics with the registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if err := reg.Register(m.PhaseDuration); err != nil {
		return err
	}
	return reg.Register(m.PhaseTotal)
}

// Observe records the duration and the result of the phase that
// started at start. The rejected error marks a normal negative
// outcome that is counted separately from failures.
func (m *Metrics) Observe(role, phase string, start time.Time, err,
	rejected error) {

	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(role, phase).
		Observe(time.Since(start).Seconds())

	result := ResultOK
	if err != nil {
		if rejected != nil && errors.Is(err, rejected) {
			result = ResultRejected
		} else {
			result = ResultError
		}
	}
	m.PhaseTotal.WithLabelValues(role, phase, result).Inc()
}
