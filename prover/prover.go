//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package prover implements the Prover role of the AuthDecode
// protocol. The Prover advances through the states
//
//	Initial --Commit--> Committed --Check--> Checked --Prove--> Proved
//
// Every state is a distinct type exposing only its legal transition. A
// transition consumes its receiver: calling it again returns
// authdecode.ErrStateConsumed. Input shape errors leave the receiver
// usable so the caller can retry with corrected inputs. All other
// failures abort the session.
package prover

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"github.com/maceip/tlsn-authdecode-wasm/encodings"
	"github.com/maceip/tlsn-authdecode-wasm/logging"
	"github.com/maceip/tlsn-authdecode-wasm/metrics"
)

var (
	_ State = &Initial{}
	_ State = &Committed{}
	_ State = &Checked{}
	_ State = &Proved{}
)

// State is implemented by the Prover states.
type State interface {
	Phase() authdecode.Phase
	state()
}

// Input is one batch entry: a plaintext and its active encodings.
type Input struct {
	Plaintext []byte
	Encodings *encodings.ActiveEncodings
}

type session struct {
	backend authdecode.ProverBackend
	logger  logging.Logger
	metrics *metrics.Metrics
}

func (s *session) observe(phase string, start time.Time, err error) {
	s.metrics.Observe(metrics.RoleProver, phase, start, err, nil)
}

// entry holds the committed values of one batch entry.
type entry struct {
	plaintext  []byte
	bits       []bool
	active     *encodings.ActiveEncodings
	commitment authdecode.Commitment
	openings   []opening
}

// opening holds the salts and the encoding sum of one chunk.
type opening struct {
	plaintextSalt   []byte
	encodingSum     *big.Int
	encodingSumSalt []byte
}

// Initial is the first state of the Prover.
type Initial struct {
	s        *session
	consumed atomic.Bool
}

// New creates a new Prover session with the backend.
func New(backend authdecode.ProverBackend, opts ...Option) *Initial {
	s := &session{
		backend: backend,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("role", metrics.RoleProver)

	return &Initial{
		s: s,
	}
}

// Phase implements State.Phase.
func (st *Initial) Phase() authdecode.Phase {
	return authdecode.PhaseInitial
}

func (st *Initial) state() {}

func validateBatch(batch []Input) error {
	if len(batch) == 0 {
		return authdecode.NewPhaseError(authdecode.PhaseInitial, -1,
			fmt.Errorf("%w: empty batch", authdecode.ErrInputShape))
	}
	for idx, in := range batch {
		var err error
		switch {
		case len(in.Plaintext) == 0:
			err = fmt.Errorf("%w: empty plaintext", authdecode.ErrInputShape)
		case in.Encodings == nil:
			err = fmt.Errorf("%w: missing encodings", authdecode.ErrInputShape)
		case in.Encodings.Len() != len(in.Plaintext)*8:
			err = fmt.Errorf("%w: %d encodings for %d plaintext bits",
				authdecode.ErrInputShape, in.Encodings.Len(),
				len(in.Plaintext)*8)
		}
		if err != nil {
			return authdecode.NewPhaseError(authdecode.PhaseInitial, idx, err)
		}
	}
	return nil
}

// Commit commits to the plaintexts and their active encodings. It
// returns one commitment per batch entry, in batch order. The rand is
// used to sample the commitment salts.
func (st *Initial) Commit(ctx context.Context, rand io.Reader,
	batch []Input) (*Committed, []authdecode.Commitment, error) {

	if err := validateBatch(batch); err != nil {
		return nil, nil, err
	}
	if !st.consumed.CompareAndSwap(false, true) {
		return nil, nil, authdecode.ErrStateConsumed
	}
	start := time.Now()
	s := st.s

	entries, commitments, err := st.commit(ctx, rand, batch)
	s.observe("commit", start, err)
	if err != nil {
		s.logger.Warn(ctx, "commit failed", "error", err)
		return nil, nil, err
	}
	s.logger.Debug(ctx, "committed", "entries", len(entries),
		"chunkSize", s.backend.ChunkSize(), logging.Redacted("plaintext"))

	return &Committed{
		s:       s,
		entries: entries,
	}, commitments, nil
}

func (st *Initial) commit(ctx context.Context, rand io.Reader,
	batch []Input) ([]*entry, []authdecode.Commitment, error) {

	chunkSize := st.s.backend.ChunkSize()
	if chunkSize <= 0 {
		return nil, nil, authdecode.NewPhaseError(authdecode.PhaseInitial, -1,
			fmt.Errorf("%w: invalid chunk size %d", authdecode.ErrCommitment,
				chunkSize))
	}

	entries := make([]*entry, len(batch))
	commitments := make([]authdecode.Commitment, len(batch))

	for idx, in := range batch {
		if err := ctx.Err(); err != nil {
			return nil, nil, authdecode.NewPhaseError(authdecode.PhaseInitial,
				idx, err)
		}
		e := &entry{
			plaintext: append([]byte(nil), in.Plaintext...),
			active:    in.Encodings,
		}
		e.bits = encodings.BytesToBits(e.plaintext)
		e.commitment.PlaintextLength = len(e.plaintext)

		numChunks := authdecode.NumChunks(len(e.plaintext), chunkSize)
		for c := 0; c < numChunks; c++ {
			chunk := authdecode.Chunk(e.plaintext, chunkSize, c)
			from, to := authdecode.ChunkBits(len(e.bits), chunkSize, c)
			sum := e.active.Sum(from, to)

			pd, ps, err := st.s.backend.CommitPlaintext(rand, chunk)
			if err != nil {
				return nil, nil, authdecode.NewPhaseError(
					authdecode.PhaseInitial, idx,
					fmt.Errorf("%w: chunk %d: %w", authdecode.ErrCommitment,
						c, err))
			}
			sd, ss, err := st.s.backend.CommitEncodingSum(rand, sum)
			if err != nil {
				return nil, nil, authdecode.NewPhaseError(
					authdecode.PhaseInitial, idx,
					fmt.Errorf("%w: chunk %d: %w", authdecode.ErrCommitment,
						c, err))
			}
			e.commitment.Chunks = append(e.commitment.Chunks,
				authdecode.ChunkCommitment{
					PlaintextDigest:   pd,
					EncodingSumDigest: sd,
				})
			e.openings = append(e.openings, opening{
				plaintextSalt:   ps,
				encodingSum:     sum,
				encodingSumSalt: ss,
			})
		}
		entries[idx] = e
		commitments[idx] = e.commitment
	}
	return entries, commitments, nil
}

// Committed is the Prover state after Commit.
type Committed struct {
	s        *session
	entries  []*entry
	consumed atomic.Bool
}

// Phase implements State.Phase.
func (st *Committed) Phase() authdecode.Phase {
	return authdecode.PhaseCommitted
}

func (st *Committed) state() {}

func (st *Committed) validate(vd *authdecode.VerificationData,
	ev EncodingVerifier) error {

	if vd == nil || ev == nil {
		return authdecode.NewPhaseError(authdecode.PhaseCommitted, -1,
			fmt.Errorf("%w: missing verification data or encoding verifier",
				authdecode.ErrInputShape))
	}
	if len(vd.FullEncodings) != len(st.entries) {
		return authdecode.NewPhaseError(authdecode.PhaseCommitted, -1,
			fmt.Errorf("%w: %d full encodings for %d commitments",
				authdecode.ErrMismatchedBatchSize, len(vd.FullEncodings),
				len(st.entries)))
	}
	for idx, full := range vd.FullEncodings {
		if full == nil || full.Len() != st.entries[idx].active.Len() {
			return authdecode.NewPhaseError(authdecode.PhaseCommitted, idx,
				fmt.Errorf("%w: full encodings length",
					authdecode.ErrInputShape))
		}
	}
	return nil
}

// Check verifies the full encodings of the verification data with the
// encoding verifier and checks that the committed active encodings
// are the encodings of the committed plaintexts.
func (st *Committed) Check(ctx context.Context, vd *authdecode.VerificationData,
	ev EncodingVerifier) (*Checked, error) {

	if err := st.validate(vd, ev); err != nil {
		return nil, err
	}
	if !st.consumed.CompareAndSwap(false, true) {
		return nil, authdecode.ErrStateConsumed
	}
	start := time.Now()
	s := st.s

	full, err := st.check(vd, ev)
	s.observe("check", start, err)
	if err != nil {
		s.logger.Warn(ctx, "check failed", "error", err)
		return nil, err
	}
	s.logger.Debug(ctx, "checked", "entries", len(st.entries),
		"initData", len(vd.InitData))

	return &Checked{
		s:       s,
		entries: st.entries,
		full:    full,
	}, nil
}

func (st *Committed) check(vd *authdecode.VerificationData,
	ev EncodingVerifier) ([]*encodings.FullEncodings, error) {

	ev.Init(vd.InitData)

	full := append([]*encodings.FullEncodings(nil), vd.FullEncodings...)
	for idx, f := range full {
		if err := ev.Verify(f); err != nil {
			return nil, authdecode.NewPhaseError(authdecode.PhaseCommitted, idx,
				fmt.Errorf("%w: %w", authdecode.ErrEncodingVerification, err))
		}
	}
	for idx, f := range full {
		e := st.entries[idx]
		expected, err := f.Encode(e.bits)
		if err != nil {
			return nil, authdecode.NewPhaseError(authdecode.PhaseCommitted, idx,
				fmt.Errorf("%w: %w", authdecode.ErrInconsistentEncodings, err))
		}
		if !expected.Equal(e.active) {
			return nil, authdecode.NewPhaseError(authdecode.PhaseCommitted, idx,
				authdecode.ErrInconsistentEncodings)
		}
	}
	return full, nil
}

// Checked is the Prover state after Check.
type Checked struct {
	s        *session
	entries  []*entry
	full     []*encodings.FullEncodings
	consumed atomic.Bool
}

// Phase implements State.Phase.
func (st *Checked) Phase() authdecode.Phase {
	return authdecode.PhaseChecked
}

func (st *Checked) state() {}

// Prove creates the proof sets of the committed batch entries, in
// batch order.
func (st *Checked) Prove(ctx context.Context) (*Proved, []authdecode.ProofSet,
	error) {

	if !st.consumed.CompareAndSwap(false, true) {
		return nil, nil, authdecode.ErrStateConsumed
	}
	start := time.Now()
	s := st.s

	result, err := st.prove(ctx)
	s.observe("prove", start, err)
	if err != nil {
		s.logger.Warn(ctx, "prove failed", "error", err)
		return nil, nil, err
	}
	var proofs int
	for _, set := range result {
		proofs += len(set.Proofs)
	}
	s.logger.Debug(ctx, "proved", "entries", len(result), "proofs", proofs,
		"elapsed", time.Since(start))

	return &Proved{}, result, nil
}

func (st *Checked) prove(ctx context.Context) ([]authdecode.ProofSet, error) {
	chunkSize := st.s.backend.ChunkSize()
	result := make([]authdecode.ProofSet, len(st.entries))

	for idx, e := range st.entries {
		pubs, err := authdecode.PublicInputs(e.commitment, st.full[idx],
			chunkSize)
		if err != nil {
			return nil, authdecode.NewPhaseError(authdecode.PhaseChecked, idx,
				fmt.Errorf("%w: %w", authdecode.ErrProofGeneration, err))
		}
		inputs := make([]authdecode.ProofInput, len(pubs))
		for c, pub := range pubs {
			o := e.openings[c]
			inputs[c] = authdecode.ProofInput{
				Public:          pub,
				Plaintext:       authdecode.Chunk(e.plaintext, chunkSize, c),
				PlaintextSalt:   o.plaintextSalt,
				EncodingSum:     o.encodingSum,
				EncodingSumSalt: o.encodingSumSalt,
			}
		}
		proofs, err := st.s.backend.Prove(ctx, inputs)
		if err == nil && len(proofs) != len(inputs) {
			err = fmt.Errorf("%d proofs for %d chunks", len(proofs),
				len(inputs))
		}
		if err != nil {
			return nil, authdecode.NewPhaseError(authdecode.PhaseChecked, idx,
				fmt.Errorf("%w: %w", authdecode.ErrProofGeneration, err))
		}
		result[idx] = authdecode.ProofSet{
			Proofs: proofs,
		}
	}
	return result, nil
}

// Proved is the terminal state of the Prover.
type Proved struct{}

// Phase implements State.Phase.
func (st *Proved) Phase() authdecode.Phase {
	return authdecode.PhaseProved
}

func (st *Proved) state() {}
