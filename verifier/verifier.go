//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package verifier implements the Verifier role of the AuthDecode
// protocol. The Verifier advances through the states
//
//	Initial --ReceiveCommitments--> CommitmentsReceived --Verify--> Finished
//
// where Finished is either accepted or rejected. Every transition
// consumes its receiver: calling it again returns
// authdecode.ErrStateConsumed. Input shape errors leave the receiver
// usable.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"github.com/maceip/tlsn-authdecode-wasm/encodings"
	"github.com/maceip/tlsn-authdecode-wasm/logging"
	"github.com/maceip/tlsn-authdecode-wasm/metrics"
)

var (
	_ State = &Initial{}
	_ State = &CommitmentsReceived{}
	_ State = &Finished{}
)

// State is implemented by the Verifier states.
type State interface {
	Phase() authdecode.Phase
	state()
}

type session struct {
	backend authdecode.VerifierBackend
	logger  logging.Logger
	metrics *metrics.Metrics
}

func (s *session) observe(phase string, start time.Time, err error) {
	s.metrics.Observe(metrics.RoleVerifier, phase, start, err,
		authdecode.ErrVerificationRejected)
}

// Initial is the first state of the Verifier.
type Initial struct {
	s        *session
	consumed atomic.Bool
}

// New creates a new Verifier session with the backend.
func New(backend authdecode.VerifierBackend, opts ...Option) *Initial {
	s := &session{
		backend: backend,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("role", metrics.RoleVerifier)

	return &Initial{
		s: s,
	}
}

// Phase implements State.Phase.
func (st *Initial) Phase() authdecode.Phase {
	return authdecode.PhaseInitial
}

func (st *Initial) state() {}

// ReceiveCommitments pairs the commitments with the full encodings of
// the same batch position and derives the public inputs of every
// chunk. It returns the verification data for the Prover's Check.
func (st *Initial) ReceiveCommitments(ctx context.Context,
	commitments []authdecode.Commitment, full []*encodings.FullEncodings,
	initData authdecode.InitData) (
	*CommitmentsReceived, *authdecode.VerificationData, error) {

	if len(commitments) == 0 {
		return nil, nil, authdecode.NewPhaseError(authdecode.PhaseInitial, -1,
			fmt.Errorf("%w: empty batch", authdecode.ErrInputShape))
	}
	if len(commitments) != len(full) {
		return nil, nil, authdecode.NewPhaseError(authdecode.PhaseInitial, -1,
			fmt.Errorf("%w: %d commitments, %d full encodings",
				authdecode.ErrMismatchedBatchSize, len(commitments),
				len(full)))
	}
	chunkSize := st.s.backend.ChunkSize()
	publics := make([][]authdecode.PublicInput, len(commitments))
	for idx, c := range commitments {
		if full[idx] == nil {
			return nil, nil, authdecode.NewPhaseError(authdecode.PhaseInitial,
				idx, fmt.Errorf("%w: missing full encodings",
					authdecode.ErrInputShape))
		}
		pubs, err := authdecode.PublicInputs(c, full[idx], chunkSize)
		if err != nil {
			return nil, nil, authdecode.NewPhaseError(authdecode.PhaseInitial,
				idx, err)
		}
		publics[idx] = pubs
	}
	if !st.consumed.CompareAndSwap(false, true) {
		return nil, nil, authdecode.ErrStateConsumed
	}
	start := time.Now()
	s := st.s

	vd := &authdecode.VerificationData{
		FullEncodings: append([]*encodings.FullEncodings(nil), full...),
		InitData:      append(authdecode.InitData(nil), initData...),
	}
	s.observe("receive_commitments", start, nil)
	s.logger.Debug(ctx, "commitments received", "entries", len(commitments),
		"chunkSize", chunkSize)

	return &CommitmentsReceived{
		s:       s,
		publics: publics,
	}, vd, nil
}

// CommitmentsReceived is the Verifier state after
// ReceiveCommitments.
type CommitmentsReceived struct {
	s        *session
	publics  [][]authdecode.PublicInput
	consumed atomic.Bool
}

// Phase implements State.Phase.
func (st *CommitmentsReceived) Phase() authdecode.Phase {
	return authdecode.PhaseCommitmentsReceived
}

func (st *CommitmentsReceived) state() {}

// Verify verifies the proof sets of the batch entries. A rejected
// proof is a normal outcome: Verify returns a Finished state in the
// rejected phase and a nil error. A proof set with a wrong number of
// proofs is rejected. The error is non-nil for a batch size mismatch
// and for failures of the verification itself, such as the context
// cancellation.
func (st *CommitmentsReceived) Verify(ctx context.Context,
	proofSets []authdecode.ProofSet) (*Finished, error) {

	if len(proofSets) != len(st.publics) {
		return nil, authdecode.NewPhaseError(
			authdecode.PhaseCommitmentsReceived, -1,
			fmt.Errorf("%w: %d proof sets for %d commitments",
				authdecode.ErrMismatchedBatchSize, len(proofSets),
				len(st.publics)))
	}
	if !st.consumed.CompareAndSwap(false, true) {
		return nil, authdecode.ErrStateConsumed
	}
	start := time.Now()
	s := st.s

	err := st.verify(ctx, proofSets)
	s.observe("verify", start, err)

	if err != nil {
		if errors.Is(err, authdecode.ErrVerificationRejected) {
			s.logger.Info(ctx, "rejected", "error", err)
			return &Finished{
				phase: authdecode.PhaseRejected,
				err:   err,
			}, nil
		}
		s.logger.Warn(ctx, "verify failed", "error", err)
		return nil, err
	}
	s.logger.Info(ctx, "accepted", "entries", len(proofSets),
		"elapsed", time.Since(start))

	return &Finished{
		phase: authdecode.PhaseAccepted,
	}, nil
}

func (st *CommitmentsReceived) verify(ctx context.Context,
	proofSets []authdecode.ProofSet) error {

	for idx, set := range proofSets {
		if len(set.Proofs) != len(st.publics[idx]) {
			return authdecode.NewPhaseError(authdecode.PhaseCommitmentsReceived,
				idx, fmt.Errorf("%w: %d proofs for %d chunks",
					authdecode.ErrVerificationRejected, len(set.Proofs),
					len(st.publics[idx])))
		}
		err := st.s.backend.Verify(ctx, st.publics[idx], set.Proofs)
		if err != nil {
			return authdecode.NewPhaseError(authdecode.PhaseCommitmentsReceived,
				idx, err)
		}
	}
	return nil
}

// Finished is the terminal state of the Verifier.
type Finished struct {
	phase authdecode.Phase
	err   error
}

// Phase implements State.Phase. The phase is either
// authdecode.PhaseAccepted or authdecode.PhaseRejected.
func (st *Finished) Phase() authdecode.Phase {
	return st.phase
}

func (st *Finished) state() {}

// Accepted tests if the proofs were accepted.
func (st *Finished) Accepted() bool {
	return st.phase == authdecode.PhaseAccepted
}

// Err returns the reason of the rejection. The error wraps
// authdecode.ErrVerificationRejected. Err returns nil for accepted
// proofs.
func (st *Finished) Err() error {
	return st.err
}
