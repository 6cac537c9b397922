//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package verifier

import (
	"github.com/maceip/tlsn-authdecode-wasm/logging"
	"github.com/maceip/tlsn-authdecode-wasm/metrics"
)

// Option configures a Verifier.
type Option func(s *session)

// WithLogger sets the Verifier logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *session) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics of the Verifier phases.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *session) {
		s.metrics = m
	}
}
