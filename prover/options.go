//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package prover

import (
	"github.com/maceip/tlsn-authdecode-wasm/logging"
	"github.com/maceip/tlsn-authdecode-wasm/metrics"
)

// Option configures a Prover.
type Option func(s *session)

// WithLogger sets the Prover logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *session) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics of the Prover phases.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *session) {
		s.metrics = m
	}
}
